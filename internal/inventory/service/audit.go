package service

import (
	"context"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// AuditService records and serves the request log
type AuditService struct {
	repo   *repository.AuditLogRepository
	logger *logger.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo *repository.AuditLogRepository, log *logger.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: log,
	}
}

// Record appends a log entry. A zero userID is stored as NULL.
func (s *AuditService) Record(ctx context.Context, userID int64, action, path string, status int) error {
	entry := &repository.LogEntry{
		Action: action,
		Path:   path,
		Status: status,
	}
	if userID != 0 {
		entry.UserID = &userID
	}
	return s.repo.Create(ctx, entry)
}

// List lists log entries, newest first
func (s *AuditService) List(ctx context.Context) ([]*repository.LogEntry, error) {
	return s.repo.List(ctx)
}

// Clear deletes every log entry
func (s *AuditService) Clear(ctx context.Context) (int64, error) {
	n, err := s.repo.Clear(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("deleted", n).Msg("logs cleared")
	return n, nil
}
