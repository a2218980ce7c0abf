package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
)

// Batch is a received lot of a product. Batches are never updated.
type Batch struct {
	ID          int64               `db:"id" json:"id"`
	ProductID   int64               `db:"product_id" json:"product_id"`
	ProductName string              `db:"product_name" json:"product_name,omitempty"`
	Quantity    int                 `db:"quantity" json:"quantity"`
	ExpiryDate  *time.Time          `db:"expiry_date" json:"expiry_date,omitempty"`
	Cost        decimal.NullDecimal `db:"cost" json:"cost"`
	WarehouseID *int64              `db:"warehouse_id" json:"warehouse_id,omitempty"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
}

const batchSelect = `
	SELECT b.id, b.product_id, p.name AS product_name, b.quantity, b.expiry_date,
		b.cost, b.warehouse_id, b.created_at
	FROM product_batches b
	JOIN products p ON p.id = b.product_id
`

// BatchRepository handles batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a batch row. It does not touch the product ledger.
func (r *BatchRepository) Create(ctx context.Context, batch *Batch) error {
	query := `
		INSERT INTO product_batches (product_id, quantity, expiry_date, cost, warehouse_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		batch.ProductID, batch.Quantity, batch.ExpiryDate, batch.Cost, batch.WarehouseID,
	).Scan(&batch.ID, &batch.CreatedAt)
	if err != nil {
		return database.MapError("create batch", err)
	}
	return nil
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id int64) (*Batch, error) {
	var batch Batch
	if err := r.db.GetContext(ctx, &batch, batchSelect+` WHERE b.id = $1`, id); err != nil {
		if database.IsNoRows(err) {
			return nil, errors.NotFound("batch")
		}
		return nil, database.MapError("get batch", err)
	}
	return &batch, nil
}

// GetForUpdate reads a batch and locks its row for the rest of the transaction
func (r *BatchRepository) GetForUpdate(ctx context.Context, id int64) (*Batch, error) {
	var batch Batch
	query := `
		SELECT id, product_id, quantity, expiry_date, cost, warehouse_id, created_at
		FROM product_batches
		WHERE id = $1
		FOR UPDATE
	`
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if database.IsNoRows(err) {
			return nil, errors.NotFound("batch")
		}
		return nil, database.MapError("lock batch", err)
	}
	return &batch, nil
}

// List returns every batch, newest first
func (r *BatchRepository) List(ctx context.Context) ([]*Batch, error) {
	batches := []*Batch{}
	if err := r.db.SelectContext(ctx, &batches, batchSelect+` ORDER BY b.created_at DESC, b.id DESC`); err != nil {
		return nil, database.MapError("list batches", err)
	}
	return batches, nil
}

// ListByProduct lists batches for a product, earliest expiry first
func (r *BatchRepository) ListByProduct(ctx context.Context, productID int64) ([]*Batch, error) {
	batches := []*Batch{}
	query := batchSelect + `
		WHERE b.product_id = $1
		ORDER BY b.expiry_date NULLS LAST, b.id
	`
	if err := r.db.SelectContext(ctx, &batches, query, productID); err != nil {
		return nil, database.MapError("list product batches", err)
	}
	return batches, nil
}

// ListExpiringBetween returns batches whose expiry date lies in [from, to],
// both ends included. Only the calendar dates of from and to are used.
func (r *BatchRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*Batch, error) {
	batches := []*Batch{}
	query := batchSelect + `
		WHERE b.expiry_date BETWEEN $1::date AND $2::date
		ORDER BY b.expiry_date, b.id
	`
	if err := r.db.SelectContext(ctx, &batches, query,
		from.Format(time.DateOnly), to.Format(time.DateOnly),
	); err != nil {
		return nil, database.MapError("list expiring batches", err)
	}
	return batches, nil
}

// Delete removes a batch row. It does not touch the product ledger.
func (r *BatchRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_batches WHERE id = $1`, id)
	if err != nil {
		return database.MapError("delete batch", err)
	}
	return requireAffected(result, "batch")
}

// TotalValue sums quantity times cost over every batch with a known cost
func (r *BatchRepository) TotalValue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(quantity * cost), 0) FROM product_batches WHERE cost IS NOT NULL`
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return decimal.Zero, database.MapError("compute inventory value", err)
	}
	return total, nil
}
