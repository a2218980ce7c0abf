package repository_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/testutil"
)

func TestProductRepository_AdjustQuantity(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("UPDATE products SET quantity = quantity + $2").
		WithArgs(int64(7), -3).
		WillReturnRows(testutil.MockRows("quantity").AddRow(12))

	repo := repository.NewProductRepository(mockDB.Database())
	q, err := repo.AdjustQuantity(context.Background(), 7, -3)
	require.NoError(t, err)
	assert.Equal(t, 12, q)
	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_AdjustQuantity_Missing(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("UPDATE products SET quantity = quantity + $2").
		WithArgs(int64(99), 5).
		WillReturnRows(testutil.MockRows("quantity"))

	repo := repository.NewProductRepository(mockDB.Database())
	_, err := repo.AdjustQuantity(context.Background(), 99, 5)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))
	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_AdjustQuantity_CheckViolation(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("UPDATE products SET quantity = quantity + $2").
		WithArgs(int64(1), -50).
		WillReturnError(&pq.Error{Code: "23514", Constraint: "products_quantity_range", Message: "check violation"})

	repo := repository.NewProductRepository(mockDB.Database())
	_, err := repo.AdjustQuantity(context.Background(), 1, -50)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))
	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_List_StorageFailure(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM products ORDER BY name, id").
		WillReturnError(stderrors.New("connection reset"))

	repo := repository.NewProductRepository(mockDB.Database())
	_, err := repo.List(context.Background())
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, "list products failed", appErr.Message)
	mockDB.ExpectationsWereMet(t)
}

func TestBatchRepository_ListExpiringBetween_UsesCalendarDates(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	loc := time.FixedZone("UTC-6", -6*3600)
	from := time.Date(2024, 3, 10, 23, 30, 0, 0, loc)
	to := from.AddDate(0, 0, 7)

	expiry := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)
	mockDB.ExpectQuery("WHERE b.expiry_date BETWEEN $1::date AND $2::date").
		WithArgs("2024-03-10", "2024-03-17").
		WillReturnRows(testutil.MockRows(
			"id", "product_id", "product_name", "quantity", "expiry_date", "cost", "warehouse_id", "created_at",
		).AddRow(int64(4), int64(2), "Milk", 6, expiry, nil, nil, time.Now()))

	repo := repository.NewBatchRepository(mockDB.Database())
	batches, err := repo.ListExpiringBetween(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "Milk", batches[0].ProductName)
	assert.False(t, batches[0].Cost.Valid)
	mockDB.ExpectationsWereMet(t)
}

func TestBatchRepository_TotalValue(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT COALESCE(SUM(quantity * cost), 0) FROM product_batches").
		WillReturnRows(testutil.MockRows("coalesce").AddRow("152.50"))

	repo := repository.NewBatchRepository(mockDB.Database())
	total, err := repo.TotalValue(context.Background())
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("152.5")))
	mockDB.ExpectationsWereMet(t)
}

func TestOrderRepository_List_Filters(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("AND o.status = $1 AND p.name ILIKE '%' || $2 || '%' ORDER BY o.id").
		WithArgs("pending", "flour").
		WillReturnRows(testutil.MockRows(
			"id", "product_id", "product_name", "user_id", "quantity", "status", "requested_at",
		).AddRow(int64(1), int64(3), "Flour", int64(2), 10, "pending", time.Now()))

	repo := repository.NewOrderRepository(mockDB.Database())
	orders, err := repo.List(context.Background(), repository.OrderFilter{Status: "pending", Product: "flour"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "Flour", orders[0].ProductName)
	mockDB.ExpectationsWereMet(t)
}

func TestOrderRepository_Delete_Missing(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectExec("DELETE FROM pedidos WHERE id = $1").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := repository.NewOrderRepository(mockDB.Database())
	err := repo.Delete(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))
	mockDB.ExpectationsWereMet(t)
}

func TestNotificationRepository_CreateMany(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	productID := int64(3)
	ns := []*repository.Notification{
		{Title: "low_stock", Message: "a", UserID: 1, ProductID: &productID},
		{Title: "low_stock", Message: "b", UserID: 1},
	}
	now := time.Now()

	mockDB.ExpectQuery("VALUES ($1, $2, $3, $4, $5), ($6, $7, $8, $9, $10)").
		WithArgs("low_stock", "a", int64(1), &productID, nil, "low_stock", "b", int64(1), nil, nil).
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(10), now).AddRow(int64(11), now))

	repo := repository.NewNotificationRepository(mockDB.Database())
	require.NoError(t, repo.CreateMany(context.Background(), ns))
	assert.Equal(t, int64(10), ns[0].ID)
	assert.Equal(t, int64(11), ns[1].ID)
	mockDB.ExpectationsWereMet(t)
}

func TestNotificationRepository_CreateMany_Empty(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewNotificationRepository(mockDB.Database())
	require.NoError(t, repo.CreateMany(context.Background(), nil))
	mockDB.ExpectationsWereMet(t)
}
