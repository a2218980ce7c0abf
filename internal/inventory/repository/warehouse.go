package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
)

// WarehouseStock is the quantity of a product held in one warehouse
type WarehouseStock struct {
	ID          int64     `db:"id" json:"id"`
	WarehouseID int64     `db:"warehouse_id" json:"warehouse_id"`
	ProductID   int64     `db:"product_id" json:"product_id"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// WarehouseProduct is a product as seen from one warehouse
type WarehouseProduct struct {
	ProductID         int64           `db:"product_id" json:"product_id"`
	Name              string          `db:"name" json:"name"`
	Supplier          string          `db:"supplier" json:"supplier"`
	Cost              decimal.Decimal `db:"cost" json:"cost"`
	LedgerQuantity    int             `db:"ledger_quantity" json:"ledger_quantity"`
	WarehouseQuantity int             `db:"warehouse_quantity" json:"warehouse_quantity"`
}

// WarehouseRepository handles per-warehouse stock
type WarehouseRepository struct {
	db *database.DB
}

// NewWarehouseRepository creates a new warehouse repository
func NewWarehouseRepository(db *database.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

// AddStock adds quantity to the warehouse row, creating it when missing
func (r *WarehouseRepository) AddStock(ctx context.Context, warehouseID, productID int64, quantity int) (*WarehouseStock, error) {
	var ws WarehouseStock
	query := `
		INSERT INTO warehouse_stock (warehouse_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (warehouse_id, product_id)
		DO UPDATE SET quantity = warehouse_stock.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, warehouse_id, product_id, quantity, updated_at
	`
	if err := r.db.GetContext(ctx, &ws, query, warehouseID, productID, quantity); err != nil {
		return nil, database.MapError("add warehouse stock", err)
	}
	return &ws, nil
}

// RemoveStock deletes the warehouse row for a product
func (r *WarehouseRepository) RemoveStock(ctx context.Context, warehouseID, productID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM warehouse_stock WHERE warehouse_id = $1 AND product_id = $2`,
		warehouseID, productID,
	)
	if err != nil {
		return database.MapError("remove warehouse stock", err)
	}
	return requireAffected(result, "warehouse stock")
}

// ListProducts lists products stocked in a warehouse, plus products whose
// home warehouse it is
func (r *WarehouseRepository) ListProducts(ctx context.Context, warehouseID int64) ([]*WarehouseProduct, error) {
	products := []*WarehouseProduct{}
	query := `
		SELECT p.id AS product_id, p.name, p.supplier, p.cost,
			p.quantity AS ledger_quantity, COALESCE(ws.quantity, 0) AS warehouse_quantity
		FROM products p
		LEFT JOIN warehouse_stock ws ON ws.product_id = p.id AND ws.warehouse_id = $1
		WHERE ws.id IS NOT NULL OR p.warehouse_id = $1
		ORDER BY p.id
	`
	if err := r.db.SelectContext(ctx, &products, query, warehouseID); err != nil {
		return nil, database.MapError("list warehouse products", err)
	}
	return products, nil
}
