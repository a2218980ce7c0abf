package service

import (
	"context"
	"slices"
	"time"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

var movementTypes = []string{repository.MovementIn, repository.MovementOut, repository.MovementAdjustment}

// MovementService records stock movements and physical counts. Neither
// changes the product ledger.
type MovementService struct {
	movementRepo *repository.MovementRepository
	countRepo    *repository.PhysicalCountRepository
	loc          *time.Location
	now          func() time.Time
	logger       *logger.Logger
}

// NewMovementService creates a new movement service
func NewMovementService(
	movementRepo *repository.MovementRepository,
	countRepo *repository.PhysicalCountRepository,
	loc *time.Location,
	log *logger.Logger,
) *MovementService {
	if loc == nil {
		loc = time.Local
	}
	return &MovementService{
		movementRepo: movementRepo,
		countRepo:    countRepo,
		loc:          loc,
		now:          time.Now,
		logger:       log,
	}
}

// ListMovements lists movements, newest first
func (s *MovementService) ListMovements(ctx context.Context) ([]*repository.Movement, error) {
	return s.movementRepo.List(ctx)
}

// CreateMovement records a movement
func (s *MovementService) CreateMovement(ctx context.Context, m *repository.Movement) error {
	details := map[string]string{}
	if !slices.Contains(movementTypes, m.Type) {
		details["type"] = "must be one of: entrada, salida, ajuste"
	}
	if m.Quantity <= 0 {
		details["quantity"] = "must be greater than 0"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return s.movementRepo.Create(ctx, m)
}

// DeleteMovement deletes a movement
func (s *MovementService) DeleteMovement(ctx context.Context, id int64) error {
	return s.movementRepo.Delete(ctx, id)
}

// RecordPhysicalCount stores a count. A nil date means today.
func (s *MovementService) RecordPhysicalCount(ctx context.Context, productID int64, counted int, date *time.Time) (int64, error) {
	if counted < 0 {
		return 0, errors.Validation(map[string]string{"counted": "must be at least 0"})
	}
	day := dateOf(s.now().In(s.loc))
	if date != nil {
		day = *date
	}
	return s.countRepo.Create(ctx, productID, counted, day)
}

// ListPhysicalCounts lists counts with their variance against the ledger
func (s *MovementService) ListPhysicalCounts(ctx context.Context, productID *int64) ([]*repository.PhysicalCount, error) {
	return s.countRepo.List(ctx, productID)
}
