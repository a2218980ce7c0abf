package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
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

func newOrderService(db *database.DB, cfg config.OrdersConfig) *service.OrderService {
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, logger.Nop())
	return service.NewOrderService(db, repository.NewOrderRepository(db), notifications, nil, cfg, logger.Nop())
}

func TestOrderService_DeleteOrder_ResetsSequenceWhenEmpty(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM pedidos WHERE id = $1").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery("SELECT COUNT(*) FROM pedidos").
		WillReturnRows(testutil.MockRows("count").AddRow(int64(0)))
	mockDB.ExpectExec("ALTER SEQUENCE pedidos_id_seq RESTART WITH 1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectCommit()

	svc := newOrderService(mockDB.Database(), config.OrdersConfig{ResetSequenceWhenEmpty: true})
	reset, err := svc.DeleteOrder(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, reset)
	mockDB.ExpectationsWereMet(t)
}

func TestOrderService_DeleteOrder_KeepsSequenceWhenOrdersRemain(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM pedidos WHERE id = $1").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery("SELECT COUNT(*) FROM pedidos").
		WillReturnRows(testutil.MockRows("count").AddRow(int64(2)))
	mockDB.ExpectCommit()

	svc := newOrderService(mockDB.Database(), config.OrdersConfig{ResetSequenceWhenEmpty: true})
	reset, err := svc.DeleteOrder(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, reset)
	mockDB.ExpectationsWereMet(t)
}

func TestOrderService_DeleteOrder_ResetDisabled(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM pedidos WHERE id = $1").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	svc := newOrderService(mockDB.Database(), config.OrdersConfig{})
	reset, err := svc.DeleteOrder(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, reset)
	mockDB.ExpectationsWereMet(t)
}

func TestOrderService_DeleteOrder_Missing(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM pedidos WHERE id = $1").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectRollback()

	svc := newOrderService(mockDB.Database(), config.OrdersConfig{ResetSequenceWhenEmpty: true})
	_, err := svc.DeleteOrder(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))
	mockDB.ExpectationsWereMet(t)
}

func TestOrderService_FlagStalePendingOrders(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mockDB.ExpectQuery("WHERE status = 'pending' AND requested_at < $1").
		WithArgs(now.Add(-48 * time.Hour)).
		WillReturnRows(testutil.MockRows(
			"id", "product_id", "user_id", "quantity", "status", "requested_at",
		).AddRow(int64(5), int64(3), int64(2), 10, "pending", now.Add(-72*time.Hour)))

	productID := int64(3)
	mockDB.ExpectQuery("INSERT INTO notificaciones (title, message, user_id, product_id, batch_id)").
		WithArgs(
			service.TitlePendingOrder,
			"Order #5 has been pending for more than 48h without approval",
			int64(1), &productID, nil,
		).
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(30), now))

	svc := newOrderService(mockDB.Database(), config.OrdersConfig{StaleAfterHours: 24, RecipientUserID: 1})
	svc.SetClock(func() time.Time { return now })

	result, err := svc.FlagStalePendingOrders(context.Background(), 48)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Flagged)
	assert.Equal(t, "Notifications generated for 1 pending orders", result.Message)
	mockDB.ExpectationsWereMet(t)
}

func TestOrderService_FlagStalePendingOrders_None(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mockDB.ExpectQuery("WHERE status = 'pending' AND requested_at < $1").
		WithArgs(now.Add(-24 * time.Hour)).
		WillReturnRows(testutil.MockRows("id", "product_id", "user_id", "quantity", "status", "requested_at"))

	svc := newOrderService(mockDB.Database(), config.OrdersConfig{StaleAfterHours: 24, RecipientUserID: 1})
	svc.SetClock(func() time.Time { return now })

	result, err := svc.FlagStalePendingOrders(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, result.Flagged)
	assert.Equal(t, "No pending orders older than threshold", result.Message)
	mockDB.ExpectationsWereMet(t)
}

func TestOrderService_Validation(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	svc := newOrderService(mockDB.Database(), config.OrdersConfig{})

	_, err := svc.CreateOrder(context.Background(), 1, 1, 0)
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))

	err = svc.UpdateOrder(context.Background(), 1, testutil.PtrString("shipped"), nil)
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))

	_, err = svc.ListOrders(context.Background(), repository.OrderFilter{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))

	mockDB.ExpectationsWereMet(t)
}
