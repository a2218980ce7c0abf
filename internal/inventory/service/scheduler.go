package service

import (
	"context"
	"sync"
	"time"

	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// DailyJob is a check run once a day at a fixed time of day
type DailyJob struct {
	Name string
	At   time.Duration // offset from local midnight
	Run  func(ctx context.Context) error
}

// AlertScheduler runs each sweep check at its own time of day in a fixed
// time zone. Runs may overlap with requests; the sweep reads whatever the
// ledger holds at that moment.
type AlertScheduler struct {
	jobs   []DailyJob
	loc    *time.Location
	now    func() time.Time
	logger *logger.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAlertScheduler schedules the low stock check at lowStockAt and the near
// expiry check at nearExpiryAt, both offsets from midnight in loc
func NewAlertScheduler(scanner *AlertScanner, lowStockAt, nearExpiryAt time.Duration, loc *time.Location, log *logger.Logger) *AlertScheduler {
	return NewDailyScheduler([]DailyJob{
		{
			Name: TitleLowStock,
			At:   lowStockAt,
			Run: func(ctx context.Context) error {
				_, err := scanner.ScanLowStock(ctx)
				return err
			},
		},
		{
			Name: TitleNearExpiry,
			At:   nearExpiryAt,
			Run: func(ctx context.Context) error {
				_, err := scanner.ScanNearExpiry(ctx)
				return err
			},
		},
	}, loc, log)
}

// NewDailyScheduler creates a scheduler for arbitrary daily jobs
func NewDailyScheduler(jobs []DailyJob, loc *time.Location, log *logger.Logger) *AlertScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &AlertScheduler{
		jobs:   jobs,
		loc:    loc,
		now:    time.Now,
		logger: log,
	}
}

// Start starts one goroutine per job
func (s *AlertScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for _, job := range s.jobs {
		job := job
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, job)
		}()
	}
}

// Stop stops every job and waits for a running check to return
func (s *AlertScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *AlertScheduler) loop(ctx context.Context, job DailyJob) {
	log := s.logger.With().Str("job", job.Name).Logger()

	for {
		now := s.now()
		next := NextRun(now, job.At, s.loc)
		log.Info().Time("next_run", next).Msg("alert job scheduled")

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("alert job stopped")
			return
		case <-timer.C:
		}

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			log.Error().Err(err).Msg("alert job failed")
			continue
		}
		log.Info().Dur("duration", time.Since(start)).Msg("alert job completed")
	}
}

// NextRun returns the first instant strictly after now at which the wall
// clock in loc reads at past midnight
func NextRun(now time.Time, at time.Duration, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	hour, minute := int(at/time.Hour), int((at%time.Hour)/time.Minute)

	next := time.Date(y, m, d, hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(y, m, d+1, hour, minute, 0, 0, loc)
	}
	return next
}
