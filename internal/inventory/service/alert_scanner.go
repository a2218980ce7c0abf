package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// Notification titles written by the sweep
const (
	TitleLowStock   = "low_stock"
	TitleNearExpiry = "near_expiry"
)

// LowStockSource lists products whose quantity is below their threshold
type LowStockSource interface {
	ListBelowThreshold(ctx context.Context) ([]*repository.Product, error)
}

// ExpirySource lists batches expiring inside a closed date range
type ExpirySource interface {
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*repository.Batch, error)
}

// Notifier stores sweep notifications
type Notifier interface {
	Notify(ctx context.Context, n *repository.Notification) error
	Exists(ctx context.Context, title string, productID, batchID *int64, since time.Time) (bool, error)
}

// ScanResult counts the notifications written by a sweep
type ScanResult struct {
	LowStock   int `json:"low_stock"`
	NearExpiry int `json:"near_expiry"`
}

// AlertScanner compares the ledger against thresholds and batch expiry
// dates against today and writes one notification per match. The same
// condition produces a new notification on every run unless a dedup window
// is configured.
type AlertScanner struct {
	products  LowStockSource
	batches   ExpirySource
	notifier  Notifier
	recipient int64
	window    int
	dedup     time.Duration
	loc       *time.Location
	now       func() time.Time
	logger    *logger.Logger
}

// NewAlertScanner creates a new alert scanner. Dates are computed in loc.
func NewAlertScanner(products LowStockSource, batches ExpirySource, notifier Notifier, cfg config.AlertsConfig, loc *time.Location, log *logger.Logger) *AlertScanner {
	if loc == nil {
		loc = time.Local
	}
	window := cfg.ExpiryWindowDays
	if window <= 0 {
		window = 7
	}
	return &AlertScanner{
		products:  products,
		batches:   batches,
		notifier:  notifier,
		recipient: cfg.RecipientUserID,
		window:    window,
		dedup:     cfg.DedupWindow,
		loc:       loc,
		now:       time.Now,
		logger:    log,
	}
}

// SetClock replaces the time source
func (s *AlertScanner) SetClock(now func() time.Time) {
	s.now = now
}

// ExpiryWindow returns the first and last day of the near-expiry window
func (s *AlertScanner) ExpiryWindow() (time.Time, time.Time) {
	today := dateOf(s.now().In(s.loc))
	return today, today.AddDate(0, 0, s.window)
}

// ScanAll runs both checks. A failing check is logged and does not stop the other.
func (s *AlertScanner) ScanAll(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{}
	var lastErr error

	n, err := s.ScanLowStock(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("scanner", TitleLowStock).Msg("alert scan failed")
		lastErr = err
	}
	result.LowStock = n

	n, err = s.ScanNearExpiry(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("scanner", TitleNearExpiry).Msg("alert scan failed")
		lastErr = err
	}
	result.NearExpiry = n

	return result, lastErr
}

// ScanLowStock writes a notification for every product with quantity < threshold
func (s *AlertScanner) ScanLowStock(ctx context.Context) (int, error) {
	products, err := s.products.ListBelowThreshold(ctx)
	if err != nil {
		return 0, fmt.Errorf("scanLowStock: list products: %w", err)
	}

	created := 0
	for _, p := range products {
		productID := p.ID
		n := &repository.Notification{
			Title: TitleLowStock,
			Message: fmt.Sprintf("Product \"%s\" is below its threshold (quantity: %d, threshold: %d).",
				p.Name, p.Quantity, p.Threshold),
			UserID:    s.recipient,
			ProductID: &productID,
		}
		if s.write(ctx, n) {
			created++
		}
	}

	s.logger.Info().Int("matched", len(products)).Int("created", created).Msg("low stock scan completed")
	return created, nil
}

// ScanNearExpiry writes a notification for every batch expiring between
// today and today plus the window, both days included
func (s *AlertScanner) ScanNearExpiry(ctx context.Context) (int, error) {
	from, to := s.ExpiryWindow()
	batches, err := s.batches.ListExpiringBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("scanNearExpiry: list batches: %w", err)
	}

	created := 0
	for _, b := range batches {
		if b.ExpiryDate == nil {
			continue
		}
		productID, batchID := b.ProductID, b.ID
		n := &repository.Notification{
			Title: TitleNearExpiry,
			Message: fmt.Sprintf("Batch #%d of product \"%s\" expires soon (%s). Quantity: %d.",
				b.ID, b.ProductName, b.ExpiryDate.Format(time.DateOnly), b.Quantity),
			UserID:    s.recipient,
			ProductID: &productID,
			BatchID:   &batchID,
		}
		if s.write(ctx, n) {
			created++
		}
	}

	s.logger.Info().
		Str("from", from.Format(time.DateOnly)).
		Str("to", to.Format(time.DateOnly)).
		Int("matched", len(batches)).
		Int("created", created).
		Msg("near expiry scan completed")
	return created, nil
}

// write stores n unless it is suppressed. Failures are logged, not returned.
func (s *AlertScanner) write(ctx context.Context, n *repository.Notification) bool {
	log := s.logger.With().Str("title", n.Title).Int64("product_id", *n.ProductID).Logger()

	if s.dedup > 0 {
		exists, err := s.notifier.Exists(ctx, n.Title, n.ProductID, n.BatchID, s.now().Add(-s.dedup))
		if err != nil {
			log.Error().Err(err).Msg("failed to check existing notification")
			return false
		}
		if exists {
			return false
		}
	}

	if err := s.notifier.Notify(ctx, n); err != nil {
		log.Error().Err(err).Msg("failed to create notification")
		return false
	}
	return true
}
