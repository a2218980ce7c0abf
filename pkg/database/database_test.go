package database_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return database.NewFromSQLX(sqlx.NewDb(raw, "postgres"), logger.Nop()), mock
}

func TestTransaction_CommitsAndRoutesThroughTx(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET quantity = quantity + $1 WHERE id = $2")).
		WithArgs(5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.Transaction(context.Background(), func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, "UPDATE products SET quantity = quantity + $1 WHERE id = $2", 5, 1)
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := stderrors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := db.Transaction(context.Background(), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_NestedReusesOuter(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := db.Transaction(context.Background(), func(ctx context.Context) error {
		return db.Transaction(ctx, func(ctx context.Context) error { return nil })
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantField  string
	}{
		{
			name:       "quantity check",
			err:        &pq.Error{Code: "23514", Constraint: "products_quantity_range"},
			wantStatus: http.StatusBadRequest,
			wantField:  "quantity",
		},
		{
			name:       "order status check",
			err:        &pq.Error{Code: "23514", Constraint: "pedidos_status_valid"},
			wantStatus: http.StatusBadRequest,
			wantField:  "status",
		},
		{
			name:       "unique user name",
			err:        &pq.Error{Code: "23505", Constraint: "usuarios_name_key"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "referenced on delete",
			err:        &pq.Error{Code: "23503", Message: `update or delete on table "products" violates foreign key constraint`},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "driver failure",
			err:        stderrors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "app error passes through",
			err:        errors.NotFound("batch"),
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := database.MapError("product update", tt.err)

			var appErr *errors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
			if tt.wantField != "" {
				assert.Contains(t, appErr.Details, tt.wantField)
			}
		})
	}
}

func TestMapError_StorageCarriesDetail(t *testing.T) {
	err := database.MapError("batch receipt", stderrors.New("connection refused"))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "batch receipt failed", appErr.Message)
	assert.Equal(t, "connection refused", appErr.Details["detail"])
}
