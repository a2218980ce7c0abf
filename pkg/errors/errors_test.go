package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cbsistema/cbsistema-backend/pkg/errors"
)

func TestStorage(t *testing.T) {
	err := errors.Storage("batch receipt", stderrors.New("connection reset by peer"))

	assert.Equal(t, "batch receipt failed", err.Message)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, "connection reset by peer", err.Details["detail"])
	assert.True(t, errors.Is(err, errors.ErrStorage))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", errors.NotFound("batch"), http.StatusNotFound},
		{"wrapped validation", fmt.Errorf("submit: %w", errors.Validation(nil)), http.StatusBadRequest},
		{"rate limited", errors.RateLimited(), http.StatusTooManyRequests},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.StatusOf(tt.err))
		})
	}
}
