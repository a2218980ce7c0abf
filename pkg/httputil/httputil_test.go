package httputil_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
	"github.com/cbsistema/cbsistema-backend/pkg/testutil"
)

func TestError_AppError(t *testing.T) {
	rr := httptest.NewRecorder()
	httputil.Error(rr, errors.Storage("batch receipt", stderrors.New("deadlock detected")))

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)

	var resp httputil.Response
	testutil.ParseJSONBody(t, rr, &resp)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "STORAGE_ERROR", resp.Error.Code)
	assert.Equal(t, "batch receipt failed", resp.Error.Message)
	assert.Equal(t, "deadlock detected", resp.Error.Details["detail"])
}

func TestError_PlainErrorIsHidden(t *testing.T) {
	rr := httptest.NewRecorder()
	httputil.Error(rr, stderrors.New("secret internals"))

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	assert.NotContains(t, rr.Body.String(), "secret internals")
}

type batchInput struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=9999"`
	Expiry    string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
}

func TestValidate_UsesJSONNames(t *testing.T) {
	err := httputil.Validate(batchInput{Quantity: 10000, Expiry: "31/12/2026"})

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "this field is required", appErr.Details["product_id"])
	assert.Equal(t, "must be less than or equal to 9999", appErr.Details["quantity"])
	assert.Contains(t, appErr.Details, "expiry_date")
}

func TestIDParam(t *testing.T) {
	tests := []struct {
		path    string
		want    int64
		wantErr bool
	}{
		{"/batches/42", 42, false},
		{"/batches/0", 0, true},
		{"/batches/abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var got int64
			var gotErr error
			r := chi.NewRouter()
			r.Get("/batches/{id}", func(w http.ResponseWriter, r *http.Request) {
				got, gotErr = httputil.IDParam(r, "id")
			})
			testutil.ExecuteRequest(r, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if tt.wantErr {
				assert.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecoverer(t *testing.T) {
	h := httputil.Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := testutil.ExecuteRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	testutil.AssertBodyContains(t, rr, "INTERNAL_ERROR")
}

func TestUserContext(t *testing.T) {
	ctx := httputil.WithUserContext(context.Background(), 3, "ana", "almacen")

	assert.Equal(t, int64(3), httputil.GetUserID(ctx))
	assert.Equal(t, "ana", httputil.GetUserName(ctx))
	assert.Equal(t, "almacen", httputil.GetUserRole(ctx))
	assert.Equal(t, int64(0), httputil.GetUserID(context.Background()))
}
