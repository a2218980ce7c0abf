package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*3600)
	at := 8 * time.Hour

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2024, 6, 1, 7, 59, 0, 0, loc),
			want: time.Date(2024, 6, 1, 8, 0, 0, 0, loc),
		},
		{
			name: "exactly at run time moves to tomorrow",
			now:  time.Date(2024, 6, 1, 8, 0, 0, 0, loc),
			want: time.Date(2024, 6, 2, 8, 0, 0, 0, loc),
		},
		{
			name: "after run time",
			now:  time.Date(2024, 6, 1, 20, 0, 0, 0, loc),
			want: time.Date(2024, 6, 2, 8, 0, 0, 0, loc),
		},
		{
			name: "month rollover",
			now:  time.Date(2024, 6, 30, 9, 0, 0, 0, loc),
			want: time.Date(2024, 7, 1, 8, 0, 0, 0, loc),
		},
		{
			name: "now given in another zone",
			now:  time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC),
			want: time.Date(2024, 6, 1, 8, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.NextRun(tt.now, at, loc)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			assert.True(t, got.After(tt.now))
		})
	}
}

func TestNextRun_MinutesOffset(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	got := service.NextRun(now, 8*time.Hour+30*time.Minute, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), got)
}

func TestDailyScheduler_StopReturns(t *testing.T) {
	s := service.NewDailyScheduler([]service.DailyJob{{
		Name: "noop",
		At:   time.Hour,
		Run:  func(ctx context.Context) error { return nil },
	}}, time.UTC, logger.Nop())

	s.Start(context.Background())

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
