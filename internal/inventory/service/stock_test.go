package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
	"github.com/cbsistema/cbsistema-backend/pkg/testutil"
)

var inventoryCfg = config.InventoryConfig{RequirePositiveBatchQuantity: true, MaxProductQuantity: 9999}

func newStockService(db *database.DB) *service.StockService {
	return service.NewStockService(
		db,
		repository.NewProductRepository(db),
		repository.NewBatchRepository(db),
		repository.NewRegisterRepository(db),
		nil,
		inventoryCfg,
		time.UTC,
		logger.Nop(),
	)
}

func productRow(id int64, quantity int) *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows(
		"id", "name", "quantity", "threshold", "supplier", "cost", "category_id", "warehouse_id", "created_at", "updated_at",
	).AddRow(id, "Harina", quantity, 5, "", "0.00", nil, nil, now, now)
}

func TestStockService_ReceiveBatch(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FROM products WHERE id = $1 FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(productRow(3, 5))
	mockDB.ExpectQuery("INSERT INTO product_batches").
		WithArgs(int64(3), 10, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(21), time.Now()))
	mockDB.ExpectQuery("UPDATE products SET quantity = quantity + $2").
		WithArgs(int64(3), 10).
		WillReturnRows(testutil.MockRows("quantity").AddRow(15))
	mockDB.ExpectCommit()

	cost := decimal.RequireFromString("1.255")
	svc := newStockService(mockDB.Database())
	batch, err := svc.ReceiveBatch(context.Background(), service.ReceiveBatchInput{
		ProductID: 3,
		Quantity:  10,
		Cost:      &cost,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21), batch.ID)
	assert.True(t, batch.Cost.Valid)
	assert.True(t, batch.Cost.Decimal.Equal(decimal.RequireFromString("1.26")))
	mockDB.ExpectationsWereMet(t)
}

func TestStockService_ReceiveBatch_RollsBackOverLimit(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FROM products WHERE id = $1 FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(productRow(3, 9995))
	mockDB.ExpectQuery("INSERT INTO product_batches").
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(21), time.Now()))
	mockDB.ExpectQuery("UPDATE products SET quantity = quantity + $2").
		WithArgs(int64(3), 10).
		WillReturnError(&pq.Error{Code: "23514", Constraint: "products_quantity_range", Message: "check violation"})
	mockDB.ExpectRollback()

	svc := newStockService(mockDB.Database())
	_, err := svc.ReceiveBatch(context.Background(), service.ReceiveBatchInput{ProductID: 3, Quantity: 10})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))
	mockDB.ExpectationsWereMet(t)
}

func TestStockService_ReceiveBatch_UnknownProduct(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FROM products WHERE id = $1 FOR UPDATE").
		WithArgs(int64(404)).
		WillReturnRows(testutil.MockRows("id"))
	mockDB.ExpectRollback()

	svc := newStockService(mockDB.Database())
	_, err := svc.ReceiveBatch(context.Background(), service.ReceiveBatchInput{ProductID: 404, Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))
	mockDB.ExpectationsWereMet(t)
}

func TestStockService_ReceiveBatch_Validation(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	svc := newStockService(mockDB.Database())

	_, err := svc.ReceiveBatch(context.Background(), service.ReceiveBatchInput{ProductID: 3, Quantity: 0})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))

	cost := decimal.RequireFromString("-1")
	_, err = svc.ReceiveBatch(context.Background(), service.ReceiveBatchInput{ProductID: 3, Quantity: 1, Cost: &cost})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))

	mockDB.ExpectationsWereMet(t)
}

func batchRow(id, productID int64, quantity int) *sqlmock.Rows {
	return testutil.MockRows(
		"id", "product_id", "quantity", "expiry_date", "cost", "warehouse_id", "created_at",
	).AddRow(id, productID, quantity, nil, nil, nil, time.Now())
}

func TestStockService_RemoveBatch(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FROM product_batches WHERE id = $1 FOR UPDATE").
		WithArgs(int64(21)).
		WillReturnRows(batchRow(21, 3, 4))
	mockDB.ExpectQuery("FROM products WHERE id = $1 FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(productRow(3, 10))
	mockDB.ExpectExec("DELETE FROM product_batches WHERE id = $1").
		WithArgs(int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery("UPDATE products SET quantity = quantity + $2").
		WithArgs(int64(3), -4).
		WillReturnRows(testutil.MockRows("quantity").AddRow(6))
	mockDB.ExpectCommit()

	svc := newStockService(mockDB.Database())
	require.NoError(t, svc.RemoveBatch(context.Background(), 21))
	mockDB.ExpectationsWereMet(t)
}

func TestStockService_RemoveBatch_Missing(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FROM product_batches WHERE id = $1 FOR UPDATE").
		WithArgs(int64(404)).
		WillReturnRows(testutil.MockRows("id"))
	mockDB.ExpectRollback()

	svc := newStockService(mockDB.Database())
	err := svc.RemoveBatch(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))
	mockDB.ExpectationsWereMet(t)
}

func TestStockService_RemoveBatch_LedgerBelowBatch(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	// a register submission has since set the product to 2
	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FROM product_batches WHERE id = $1 FOR UPDATE").
		WithArgs(int64(21)).
		WillReturnRows(batchRow(21, 3, 4))
	mockDB.ExpectQuery("FROM products WHERE id = $1 FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(productRow(3, 2))
	mockDB.ExpectRollback()

	svc := newStockService(mockDB.Database())
	err := svc.RemoveBatch(context.Background(), 21)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, errors.StatusOf(err))
	assert.Contains(t, err.Error(), `removing batch #21 would leave product "Harina" below 0 (quantity: 2, batch: 4)`)
	mockDB.ExpectationsWereMet(t)
}

func TestStockService_SubmitDailyRegister_Empty(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	svc := newStockService(mockDB.Database())
	_, err := svc.SubmitDailyRegister(context.Background(), map[int64]service.RegisterInput{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))
	mockDB.ExpectationsWereMet(t)
}

func TestStockService_SubmitDailyRegister_UnknownProductRollsBack(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FROM products WHERE id = $1 FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(productRow(1, 10))
	mockDB.ExpectQuery("FROM products WHERE id = $1 FOR UPDATE").
		WithArgs(int64(2)).
		WillReturnRows(testutil.MockRows("id"))
	mockDB.ExpectRollback()

	svc := newStockService(mockDB.Database())
	_, err := svc.SubmitDailyRegister(context.Background(), map[int64]service.RegisterInput{
		2: {Initial: 1},
		1: {Initial: 10, Received: 5, Outflow: 3},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))
	mockDB.ExpectationsWereMet(t)
}

func TestRegisterInput_Final(t *testing.T) {
	assert.Equal(t, 12, service.RegisterInput{Initial: 10, Received: 5, Outflow: 3}.Final())
	assert.Equal(t, -2, service.RegisterInput{Initial: 0, Received: 0, Outflow: 2}.Final())
}
