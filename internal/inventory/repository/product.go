package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
)

// Product is a row of the product ledger. Quantity is the authoritative
// on-hand value.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Threshold   int             `db:"threshold" json:"threshold"`
	Supplier    string          `db:"supplier" json:"supplier"`
	Cost        decimal.Decimal `db:"cost" json:"cost"`
	CategoryID  *int64          `db:"category_id" json:"category_id,omitempty"`
	WarehouseID *int64          `db:"warehouse_id" json:"warehouse_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

const productColumns = `id, name, quantity, threshold, supplier, cost, category_id, warehouse_id, created_at, updated_at`

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns every product ordered by name
func (r *ProductRepository) List(ctx context.Context) ([]*Product, error) {
	products := []*Product{}
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name, id`
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, database.MapError("list products", err)
	}
	return products, nil
}

// Search returns products whose name contains term, ignoring case
func (r *ProductRepository) Search(ctx context.Context, term string) ([]*Product, error) {
	products := []*Product{}
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name, id
	`
	if err := r.db.SelectContext(ctx, &products, query, term); err != nil {
		return nil, database.MapError("search products", err)
	}
	return products, nil
}

// GetByID gets a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	var p Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if database.IsNoRows(err) {
			return nil, errors.NotFound("product")
		}
		return nil, database.MapError("get product", err)
	}
	return &p, nil
}

// GetForUpdate reads a product and locks its row until the surrounding
// transaction ends. It must be called with a transaction context.
func (r *ProductRepository) GetForUpdate(ctx context.Context, id int64) (*Product, error) {
	var p Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if database.IsNoRows(err) {
			return nil, errors.NotFound("product")
		}
		return nil, database.MapError("lock product", err)
	}
	return &p, nil
}

// Create inserts a product and fills in its generated fields
func (r *ProductRepository) Create(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (name, quantity, threshold, supplier, cost, category_id, warehouse_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.Name, p.Quantity, p.Threshold, p.Supplier, p.Cost, p.CategoryID, p.WarehouseID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return database.MapError("create product", err)
	}
	return nil
}

// Update overwrites the descriptive fields of a product. Quantity is left
// alone; only batches and the daily register move it. The stored quantity is
// read back into p.
func (r *ProductRepository) Update(ctx context.Context, p *Product) error {
	query := `
		UPDATE products SET
			name = $2, threshold = $3, supplier = $4, cost = $5,
			category_id = $6, warehouse_id = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING quantity, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.Name, p.Threshold, p.Supplier, p.Cost, p.CategoryID, p.WarehouseID,
	).Scan(&p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return errors.NotFound("product")
		}
		return database.MapError("update product", err)
	}
	return nil
}

// Delete deletes a product. Rows still referencing it make this fail.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return database.MapError("delete product", err)
	}
	return requireAffected(result, "product")
}

// AdjustQuantity adds delta to the on-hand quantity in a single statement
// and returns the new value.
func (r *ProductRepository) AdjustQuantity(ctx context.Context, id int64, delta int) (int, error) {
	var quantity int
	query := `
		UPDATE products SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING quantity
	`
	if err := r.db.GetContext(ctx, &quantity, query, id, delta); err != nil {
		if database.IsNoRows(err) {
			return 0, errors.NotFound("product")
		}
		return 0, database.MapError("adjust product quantity", err)
	}
	return quantity, nil
}

// SetQuantity overwrites the on-hand quantity
func (r *ProductRepository) SetQuantity(ctx context.Context, id int64, quantity int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET quantity = $2, updated_at = NOW() WHERE id = $1`,
		id, quantity,
	)
	if err != nil {
		return database.MapError("set product quantity", err)
	}
	return requireAffected(result, "product")
}

// ListBelowThreshold returns every product with quantity < threshold
func (r *ProductRepository) ListBelowThreshold(ctx context.Context) ([]*Product, error) {
	products := []*Product{}
	query := `SELECT ` + productColumns + ` FROM products WHERE quantity < threshold ORDER BY id`
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, database.MapError("list low stock products", err)
	}
	return products, nil
}
