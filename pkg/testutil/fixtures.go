package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
)

// FixtureFactory inserts rows straight into a test schema, bypassing the
// services, so a test can set up exactly the state it needs.
type FixtureFactory struct {
	seq atomic.Int64
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

func (f *FixtureFactory) next() int64 {
	return f.seq.Add(1)
}

// ProductFixture describes a product row
type ProductFixture struct {
	Name      string
	Quantity  int
	Threshold int
	Cost      string
}

// Product inserts a product and returns its id
func (f *FixtureFactory) Product(t *testing.T, ctx context.Context, db *database.DB, p ProductFixture) int64 {
	t.Helper()
	if p.Name == "" {
		p.Name = fmt.Sprintf("Product %d", f.next())
	}
	if p.Cost == "" {
		p.Cost = "1.00"
	}

	var id int64
	err := db.QueryRowxContext(ctx,
		`INSERT INTO products (name, quantity, threshold, supplier, cost)
		 VALUES ($1, $2, $3, 'Fixture Supplier', $4) RETURNING id`,
		p.Name, p.Quantity, p.Threshold, p.Cost,
	).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert product fixture: %v", err)
	}
	return id
}

// Batch inserts a batch row without touching the product ledger
func (f *FixtureFactory) Batch(t *testing.T, ctx context.Context, db *database.DB, productID int64, quantity int, expiry *time.Time) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowxContext(ctx,
		`INSERT INTO product_batches (product_id, quantity, expiry_date) VALUES ($1, $2, $3) RETURNING id`,
		productID, quantity, expiry,
	).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert batch fixture: %v", err)
	}
	return id
}

// User inserts a user with a bcrypt-hashed password and returns its id
func (f *FixtureFactory) User(t *testing.T, ctx context.Context, db *database.DB, name, role, password string) int64 {
	t.Helper()
	if name == "" {
		name = fmt.Sprintf("user%d", f.next())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash fixture password: %v", err)
	}

	var id int64
	err = db.QueryRowxContext(ctx,
		`INSERT INTO usuarios (name, password_hash, role) VALUES ($1, $2, $3) RETURNING id`,
		name, string(hash), role,
	).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert user fixture: %v", err)
	}
	return id
}

// Order inserts an order with an explicit status and request time
func (f *FixtureFactory) Order(t *testing.T, ctx context.Context, db *database.DB, productID, userID int64, status string, requestedAt time.Time) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowxContext(ctx,
		`INSERT INTO pedidos (product_id, user_id, quantity, status, requested_at)
		 VALUES ($1, $2, 1, $3, $4) RETURNING id`,
		productID, userID, status, requestedAt,
	).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert order fixture: %v", err)
	}
	return id
}

// ProductQuantity reads the ledger quantity of a product
func ProductQuantity(t *testing.T, ctx context.Context, db *database.DB, productID int64) int {
	t.Helper()

	var q int
	if err := db.GetContext(ctx, &q, "SELECT quantity FROM products WHERE id = $1", productID); err != nil {
		t.Fatalf("failed to read product quantity: %v", err)
	}
	return q
}
