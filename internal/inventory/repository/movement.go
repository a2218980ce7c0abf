package repository

import (
	"context"
	"time"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
)

// Movement types
const (
	MovementIn         = "entrada"
	MovementOut        = "salida"
	MovementAdjustment = "ajuste"
)

// Movement is an audit record of stock entering or leaving. Movements do
// not change the product ledger.
type Movement struct {
	ID          int64     `db:"id" json:"id"`
	ProductID   int64     `db:"product_id" json:"product_id"`
	ProductName string    `db:"product_name" json:"product_name"`
	Type        string    `db:"type" json:"type"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Reason      string    `db:"reason" json:"reason"`
	UserID      *int64    `db:"user_id" json:"user_id,omitempty"`
	UserName    *string   `db:"user_name" json:"user_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

const movementSelect = `
	SELECT m.id, m.product_id, p.name AS product_name, m.type, m.quantity, m.reason,
		m.user_id, u.name AS user_name, m.created_at
	FROM stock_movements m
	JOIN products p ON p.id = m.product_id
	LEFT JOIN usuarios u ON u.id = m.user_id
`

// MovementRepository handles stock movement persistence
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Create records a movement
func (r *MovementRepository) Create(ctx context.Context, m *Movement) error {
	query := `
		INSERT INTO stock_movements (product_id, type, quantity, reason, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		m.ProductID, m.Type, m.Quantity, m.Reason, m.UserID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return database.MapError("create movement", err)
	}
	return nil
}

// List returns every movement, newest first
func (r *MovementRepository) List(ctx context.Context) ([]*Movement, error) {
	movements := []*Movement{}
	if err := r.db.SelectContext(ctx, &movements, movementSelect+` ORDER BY m.created_at DESC, m.id DESC`); err != nil {
		return nil, database.MapError("list movements", err)
	}
	return movements, nil
}

// ListSince returns movements created at or after since, newest first
func (r *MovementRepository) ListSince(ctx context.Context, since time.Time) ([]*Movement, error) {
	movements := []*Movement{}
	query := movementSelect + `
		WHERE m.created_at >= $1
		ORDER BY m.created_at DESC, m.id DESC
	`
	if err := r.db.SelectContext(ctx, &movements, query, since); err != nil {
		return nil, database.MapError("list movements", err)
	}
	return movements, nil
}

// Delete deletes a movement
func (r *MovementRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		return database.MapError("delete movement", err)
	}
	return requireAffected(result, "movement")
}
