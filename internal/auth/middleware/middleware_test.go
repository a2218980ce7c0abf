package middleware_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbsistema/cbsistema-backend/internal/auth/jwt"
	"github.com/cbsistema/cbsistema-backend/internal/auth/middleware"
	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
	"github.com/cbsistema/cbsistema-backend/pkg/testutil"
)

type sessionUser struct {
	id   int64
	role string
}

func setup(t *testing.T) (*jwt.Manager, *jwt.MemoryRevoker, http.Handler, *sessionUser) {
	t.Helper()

	manager := jwt.NewManager(&config.SessionConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "cbsistema"})
	revoker := jwt.NewMemoryRevoker()
	auth := middleware.NewAuthenticator(manager, revoker, logger.Nop())

	seen := &sessionUser{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.id = httputil.GetUserID(r.Context())
		seen.role = httputil.GetUserRole(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	return manager, revoker, auth.Authenticate(next), seen
}

func TestAuthenticate(t *testing.T) {
	manager, _, handler, seen := setup(t)

	session, err := manager.Issue(&jwt.UserInfo{ID: 7, Name: "pedro", Role: middleware.RoleWarehouse})
	require.NoError(t, err)

	req := testutil.WithBearer(testutil.NewHTTPRequest(http.MethodGet, "/api/products", nil), session.Token)
	rr := testutil.ExecuteRequest(handler, req)

	testutil.AssertStatus(t, rr, http.StatusNoContent)
	assert.Equal(t, int64(7), seen.id)
	assert.Equal(t, middleware.RoleWarehouse, seen.role)
}

func TestAuthenticate_Rejects(t *testing.T) {
	_, _, handler, _ := setup(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"malformed token", "Bearer garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewHTTPRequest(http.MethodGet, "/api/products", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := testutil.ExecuteRequest(handler, req)
			testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		})
	}
}

func TestAuthenticate_RevokedSession(t *testing.T) {
	manager, revoker, handler, _ := setup(t)

	session, err := manager.Issue(&jwt.UserInfo{ID: 7, Role: middleware.RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, revoker.Revoke(context.Background(), session.TokenID, time.Hour))

	req := testutil.WithBearer(testutil.NewHTTPRequest(http.MethodGet, "/api/products", nil), session.Token)
	rr := testutil.ExecuteRequest(handler, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	testutil.AssertBodyContains(t, rr, "session has ended")
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RequireAdmin(ok)

	tests := []struct {
		name string
		role string
		want int
	}{
		{"admin passes", middleware.RoleAdmin, http.StatusOK},
		{"cashier forbidden", middleware.RoleCashier, http.StatusForbidden},
		{"manager forbidden", middleware.RoleManager, http.StatusForbidden},
		{"anonymous unauthorized", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewHTTPRequest(http.MethodDelete, "/api/products/1", nil)
			if tt.role != "" {
				req = req.WithContext(httputil.WithUserContext(req.Context(), 1, "u", tt.role))
			}
			rr := testutil.ExecuteRequest(handler, req)
			testutil.AssertStatus(t, rr, tt.want)
		})
	}
}

func TestRequireRole_Any(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RequireRole(middleware.RoleWarehouse, middleware.RoleManager)(ok)

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/batches", nil)
	req = req.WithContext(httputil.WithUserContext(req.Context(), 3, "w", middleware.RoleManager))
	testutil.AssertStatus(t, testutil.ExecuteRequest(handler, req), http.StatusOK)
}
