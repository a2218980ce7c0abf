package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
)

// Order statuses
const (
	OrderPending   = "pending"
	OrderApproved  = "approved"
	OrderRejected  = "rejected"
	OrderInTransit = "in_transit"
	OrderReceived  = "received"
)

// OrderStatuses is the fixed set an order status must belong to
var OrderStatuses = []string{OrderPending, OrderApproved, OrderRejected, OrderInTransit, OrderReceived}

// Order is a restock request (pedido)
type Order struct {
	ID          int64     `db:"id" json:"id"`
	ProductID   int64     `db:"product_id" json:"product_id"`
	ProductName string    `db:"product_name" json:"product_name,omitempty"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Status      string    `db:"status" json:"status"`
	RequestedAt time.Time `db:"requested_at" json:"requested_at"`
}

// OrderFilter narrows ListOrders. Empty fields are ignored.
type OrderFilter struct {
	Status  string
	Product string
}

// OrderRepository handles order persistence
type OrderRepository struct {
	db *database.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// List lists orders by id, joined with the product name
func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]*Order, error) {
	orders := []*Order{}
	query := `
		SELECT o.id, o.product_id, p.name AS product_name, o.user_id, o.quantity,
			o.status, o.requested_at
		FROM pedidos o
		JOIN products p ON p.id = o.product_id
		WHERE 1=1
	`
	args := []interface{}{}
	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND o.status = $` + strconv.Itoa(len(args))
	}
	if f.Product != "" {
		args = append(args, f.Product)
		query += ` AND p.name ILIKE '%' || $` + strconv.Itoa(len(args)) + ` || '%'`
	}
	query += ` ORDER BY o.id`

	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, database.MapError("list orders", err)
	}
	return orders, nil
}

// Create inserts a pending order requested now
func (r *OrderRepository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO pedidos (product_id, user_id, quantity, status, requested_at)
		VALUES ($1, $2, $3, 'pending', NOW())
		RETURNING id, status, requested_at
	`
	err := r.db.QueryRowxContext(ctx, query, o.ProductID, o.UserID, o.Quantity).
		Scan(&o.ID, &o.Status, &o.RequestedAt)
	if err != nil {
		return database.MapError("create order", err)
	}
	return nil
}

// Update sets whichever of status and quantity is non-nil
func (r *OrderRepository) Update(ctx context.Context, id int64, status *string, quantity *int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE pedidos SET
			status = COALESCE($2, status),
			quantity = COALESCE($3, quantity)
		WHERE id = $1
	`, id, status, quantity)
	if err != nil {
		return database.MapError("update order", err)
	}
	return requireAffected(result, "order")
}

// Delete deletes an order
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pedidos WHERE id = $1`, id)
	if err != nil {
		return database.MapError("delete order", err)
	}
	return requireAffected(result, "order")
}

// Count counts all orders
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM pedidos`); err != nil {
		return 0, database.MapError("count orders", err)
	}
	return n, nil
}

// ResetSequence makes the next generated order id 1
func (r *OrderRepository) ResetSequence(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `ALTER SEQUENCE pedidos_id_seq RESTART WITH 1`); err != nil {
		return database.MapError("reset order sequence", err)
	}
	return nil
}

// ListPendingOlderThan lists pending orders requested before cutoff
func (r *OrderRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*Order, error) {
	orders := []*Order{}
	query := `
		SELECT id, product_id, user_id, quantity, status, requested_at
		FROM pedidos
		WHERE status = 'pending' AND requested_at < $1
		ORDER BY id
	`
	if err := r.db.SelectContext(ctx, &orders, query, cutoff); err != nil {
		return nil, database.MapError("list stale orders", err)
	}
	return orders, nil
}
