package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// Movement report periods
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// InventoryValue is the total value of all batches on hand
type InventoryValue struct {
	Total decimal.Decimal `json:"total_inventory"`
}

// ReportService builds the admin reports
type ReportService struct {
	batchRepo    *repository.BatchRepository
	movementRepo *repository.MovementRepository
	reportRepo   *repository.ReportRepository
	scanner      *AlertScanner
	loc          *time.Location
	now          func() time.Time
	logger       *logger.Logger
}

// NewReportService creates a new report service. The near expiry report
// uses the same window as the sweep.
func NewReportService(
	batchRepo *repository.BatchRepository,
	movementRepo *repository.MovementRepository,
	reportRepo *repository.ReportRepository,
	scanner *AlertScanner,
	loc *time.Location,
	log *logger.Logger,
) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{
		batchRepo:    batchRepo,
		movementRepo: movementRepo,
		reportRepo:   reportRepo,
		scanner:      scanner,
		loc:          loc,
		now:          time.Now,
		logger:       log,
	}
}

// InventoryValue sums quantity times cost over every batch
func (s *ReportService) InventoryValue(ctx context.Context) (*InventoryValue, error) {
	total, err := s.batchRepo.TotalValue(ctx)
	if err != nil {
		return nil, err
	}
	return &InventoryValue{Total: total}, nil
}

// NearExpiry lists batches inside the sweep's expiry window
func (s *ReportService) NearExpiry(ctx context.Context) ([]*repository.Batch, error) {
	from, to := s.scanner.ExpiryWindow()
	return s.batchRepo.ListExpiringBetween(ctx, from, to)
}

// Movements lists movements of today, the last 7 days or the last month
func (s *ReportService) Movements(ctx context.Context, period string) ([]*repository.Movement, error) {
	since, err := PeriodStart(s.now().In(s.loc), period)
	if err != nil {
		return nil, err
	}
	return s.movementRepo.ListSince(ctx, since)
}

// AdminSummary counts users, low stock products and pending orders
func (s *ReportService) AdminSummary(ctx context.Context) (*repository.AdminSummary, error) {
	return s.reportRepo.AdminSummary(ctx)
}

// PeriodStart returns the start of a report period ending now. An empty
// period means daily.
func PeriodStart(now time.Time, period string) (time.Time, error) {
	today := dateOf(now)
	switch period {
	case "", PeriodDaily:
		return today, nil
	case PeriodWeekly:
		return today.AddDate(0, 0, -7), nil
	case PeriodMonthly:
		return today.AddDate(0, -1, 0), nil
	default:
		return time.Time{}, errors.Validation(map[string]string{
			"type": "must be one of: daily, weekly, monthly",
		})
	}
}
