package repository

import (
	"context"
	"time"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
)

// PhysicalCount is a manual stock count. LedgerQuantity and Variance are
// computed against the product ledger when the row is read.
type PhysicalCount struct {
	ID             int64     `db:"id" json:"id"`
	ProductID      int64     `db:"product_id" json:"product_id"`
	ProductName    string    `db:"product_name" json:"product_name"`
	CountDate      time.Time `db:"count_date" json:"count_date"`
	Counted        int       `db:"counted" json:"counted"`
	LedgerQuantity int       `db:"ledger_quantity" json:"ledger_quantity"`
	Variance       int       `db:"variance" json:"variance"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PhysicalCountRepository handles physical count persistence
type PhysicalCountRepository struct {
	db *database.DB
}

// NewPhysicalCountRepository creates a new physical count repository
func NewPhysicalCountRepository(db *database.DB) *PhysicalCountRepository {
	return &PhysicalCountRepository{db: db}
}

// Create records a count for the calendar day of date
func (r *PhysicalCountRepository) Create(ctx context.Context, productID int64, counted int, date time.Time) (int64, error) {
	var id int64
	query := `
		INSERT INTO physical_counts (product_id, count_date, counted)
		VALUES ($1, $2::date, $3)
		RETURNING id
	`
	if err := r.db.GetContext(ctx, &id, query, productID, date.Format(time.DateOnly), counted); err != nil {
		return 0, database.MapError("record physical count", err)
	}
	return id, nil
}

// List returns counts newest first, optionally for one product
func (r *PhysicalCountRepository) List(ctx context.Context, productID *int64) ([]*PhysicalCount, error) {
	counts := []*PhysicalCount{}
	query := `
		SELECT pc.id, pc.product_id, p.name AS product_name, pc.count_date, pc.counted,
			p.quantity AS ledger_quantity, pc.counted - p.quantity AS variance, pc.created_at
		FROM physical_counts pc
		JOIN products p ON p.id = pc.product_id
	`
	args := []interface{}{}
	if productID != nil {
		query += ` WHERE pc.product_id = $1`
		args = append(args, *productID)
	}
	query += ` ORDER BY pc.count_date DESC, pc.id DESC`

	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, database.MapError("list physical counts", err)
	}
	return counts, nil
}
