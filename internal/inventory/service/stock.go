package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/events"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// StockService owns every write to the product ledger: batch receipt,
// batch removal and daily register submission. Each write runs in one
// transaction with the affected product rows locked.
type StockService struct {
	db           *database.DB
	productRepo  *repository.ProductRepository
	batchRepo    *repository.BatchRepository
	registerRepo *repository.RegisterRepository
	publisher    *events.InventoryEventPublisher
	cfg          config.InventoryConfig
	loc          *time.Location
	now          func() time.Time
	logger       *logger.Logger
}

// NewStockService creates a new stock service. Register dates are taken in loc.
func NewStockService(
	db *database.DB,
	productRepo *repository.ProductRepository,
	batchRepo *repository.BatchRepository,
	registerRepo *repository.RegisterRepository,
	publisher *events.InventoryEventPublisher,
	cfg config.InventoryConfig,
	loc *time.Location,
	log *logger.Logger,
) *StockService {
	if loc == nil {
		loc = time.Local
	}
	return &StockService{
		db:           db,
		productRepo:  productRepo,
		batchRepo:    batchRepo,
		registerRepo: registerRepo,
		publisher:    publisher,
		cfg:          cfg,
		loc:          loc,
		now:          time.Now,
		logger:       log,
	}
}

// SetClock replaces the time source
func (s *StockService) SetClock(now func() time.Time) {
	s.now = now
}

// ReceiveBatchInput describes a received lot
type ReceiveBatchInput struct {
	ProductID   int64
	Quantity    int
	ExpiryDate  *time.Time
	Cost        *decimal.Decimal
	WarehouseID *int64
}

// ReceiveBatch records a batch and adds its quantity to the product
func (s *StockService) ReceiveBatch(ctx context.Context, in ReceiveBatchInput) (*repository.Batch, error) {
	if s.cfg.RequirePositiveBatchQuantity && in.Quantity <= 0 {
		return nil, errors.Validation(map[string]string{"quantity": "must be greater than 0"})
	}
	if in.Cost != nil && (in.Cost.IsNegative() || in.Cost.GreaterThan(maxCost)) {
		return nil, errors.Validation(map[string]string{"cost": "must be between 0 and 999999.99"})
	}

	batch := &repository.Batch{
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		ExpiryDate:  in.ExpiryDate,
		WarehouseID: in.WarehouseID,
	}
	if in.Cost != nil {
		batch.Cost = decimal.NewNullDecimal(in.Cost.Round(2))
	}

	var newQuantity int
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.productRepo.GetForUpdate(ctx, in.ProductID); err != nil {
			return err
		}
		if err := s.batchRepo.Create(ctx, batch); err != nil {
			return err
		}
		q, err := s.productRepo.AdjustQuantity(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return err
		}
		newQuantity = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("batch_id", batch.ID).
		Int64("product_id", batch.ProductID).
		Int("quantity", batch.Quantity).
		Int("product_quantity", newQuantity).
		Msg("batch received")

	s.publisher.PublishBatchReceived(ctx, batch)
	return batch, nil
}

// RemoveBatch deletes a batch and subtracts its quantity from the product.
// When a daily register has since lowered the product below the batch
// quantity the removal is refused with a conflict.
func (s *StockService) RemoveBatch(ctx context.Context, id int64) error {
	var batch *repository.Batch
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		b, err := s.batchRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		p, err := s.productRepo.GetForUpdate(ctx, b.ProductID)
		if err != nil {
			return err
		}
		if p.Quantity < b.Quantity {
			return errors.Conflict(fmt.Sprintf(
				"removing batch #%d would leave product %q below 0 (quantity: %d, batch: %d)",
				b.ID, p.Name, p.Quantity, b.Quantity,
			))
		}
		if err := s.batchRepo.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := s.productRepo.AdjustQuantity(ctx, b.ProductID, -b.Quantity); err != nil {
			return err
		}
		batch = b
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Int64("batch_id", batch.ID).
		Int64("product_id", batch.ProductID).
		Int("quantity", batch.Quantity).
		Msg("batch removed")

	s.publisher.PublishBatchRemoved(ctx, batch)
	return nil
}

// ListBatches lists every batch, newest first
func (s *StockService) ListBatches(ctx context.Context) ([]*repository.Batch, error) {
	return s.batchRepo.List(ctx)
}

// ListBatchesByProduct lists the batches of one product
func (s *StockService) ListBatchesByProduct(ctx context.Context, productID int64) ([]*repository.Batch, error) {
	return s.batchRepo.ListByProduct(ctx, productID)
}

// GetBatch gets a batch
func (s *StockService) GetBatch(ctx context.Context, id int64) (*repository.Batch, error) {
	return s.batchRepo.GetByID(ctx, id)
}

// RegisterInput is the client-side count for one product. Outflow is folded
// into the final stock and not stored.
type RegisterInput struct {
	Initial  int
	Received int
	Outflow  int
}

// Final is initial + received - outflow
func (in RegisterInput) Final() int {
	return in.Initial + in.Received - in.Outflow
}

// SubmitDailyRegister stores one register row per product for today and
// overwrites each product's quantity with its final stock. Any failure,
// including an unknown product, rolls back the whole submission.
func (s *StockService) SubmitDailyRegister(ctx context.Context, entries map[int64]RegisterInput) ([]*repository.RegisterEntry, error) {
	if len(entries) == 0 {
		return nil, errors.BadRequest("entries must not be empty")
	}

	// Lock rows in id order so concurrent submissions cannot deadlock.
	ids := make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	date := dateOf(s.now().In(s.loc))
	rows := make([]*repository.RegisterEntry, 0, len(ids))
	for _, id := range ids {
		in := entries[id]
		rows = append(rows, &repository.RegisterEntry{
			Date:          date,
			ProductID:     id,
			StockInitial:  in.Initial,
			StockReceived: in.Received,
			StockFinal:    in.Final(),
		})
	}

	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			if _, err := s.productRepo.GetForUpdate(ctx, id); err != nil {
				return err
			}
		}
		if err := s.registerRepo.InsertMany(ctx, date, rows); err != nil {
			return err
		}
		for _, row := range rows {
			if err := s.productRepo.SetQuantity(ctx, row.ProductID, row.StockFinal); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("date", date.Format(time.DateOnly)).
		Int("entries", len(rows)).
		Msg("daily register submitted")

	s.publisher.PublishRegisterSubmitted(ctx, date, rows)
	return rows, nil
}

// ListDailyRegister lists register rows, optionally for one day
func (s *StockService) ListDailyRegister(ctx context.Context, date *time.Time) ([]*repository.RegisterEntry, error) {
	return s.registerRepo.List(ctx, date)
}

// UpdateRegisterEntry edits a stored row. The product ledger is not touched.
func (s *StockService) UpdateRegisterEntry(ctx context.Context, id int64, initial, received, final int) error {
	return s.registerRepo.Update(ctx, id, initial, received, final)
}

// DeleteRegisterEntry deletes a stored row. The product ledger is not touched.
func (s *StockService) DeleteRegisterEntry(ctx context.Context, id int64) error {
	return s.registerRepo.Delete(ctx, id)
}

// dateOf truncates t to midnight of its calendar day in t's location
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
