package repository

import (
	"context"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
)

// AdminSummary holds the headline counters of the admin dashboard
type AdminSummary struct {
	TotalUsers       int64 `db:"total_users" json:"total_users"`
	LowStockProducts int64 `db:"low_stock_products" json:"low_stock_products"`
	PendingOrders    int64 `db:"pending_orders" json:"pending_orders"`
}

// ReportRepository runs the read-only aggregate queries
type ReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// AdminSummary counts users, products below threshold and pending orders
func (r *ReportRepository) AdminSummary(ctx context.Context) (*AdminSummary, error) {
	var s AdminSummary
	query := `
		SELECT
			(SELECT COUNT(*) FROM usuarios) AS total_users,
			(SELECT COUNT(*) FROM products WHERE quantity < threshold) AS low_stock_products,
			(SELECT COUNT(*) FROM pedidos WHERE status = 'pending') AS pending_orders
	`
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return nil, database.MapError("build admin summary", err)
	}
	return &s, nil
}
