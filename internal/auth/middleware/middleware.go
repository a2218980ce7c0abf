// Package middleware authenticates requests by session token and gates
// routes by role.
package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/cbsistema/cbsistema-backend/internal/auth/jwt"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// Roles
const (
	RoleAdmin     = "admin"
	RoleManager   = "gerente"
	RoleWarehouse = "almacen"
	RoleCashier   = "caja"
)

// Roles lists every valid role
var Roles = []string{RoleAdmin, RoleManager, RoleWarehouse, RoleCashier}

// Authenticator validates session tokens
type Authenticator struct {
	manager *jwt.Manager
	revoker jwt.Revoker
	logger  *logger.Logger
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(manager *jwt.Manager, revoker jwt.Revoker, log *logger.Logger) *Authenticator {
	return &Authenticator{
		manager: manager,
		revoker: revoker,
		logger:  log,
	}
}

// Authenticate rejects requests without a valid, unrevoked bearer token and
// puts the session user in the request context
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.Error(w, errors.Unauthorized("not logged in"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.Error(w, errors.Unauthorized("invalid authorization header format"))
			return
		}

		claims, err := a.manager.Validate(parts[1])
		if err != nil {
			a.logger.Debug().Err(err).Msg("token validation failed")
			httputil.Error(w, err)
			return
		}

		revoked, err := a.revoker.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			a.logger.Error().Err(err).Msg("failed to check token revocation")
			httputil.Error(w, errors.Internal("failed to check session"))
			return
		}
		if revoked {
			httputil.Error(w, errors.Unauthorized("session has ended"))
			return
		}

		ctx := httputil.WithUserContext(r.Context(), claims.UserID, claims.Name, claims.Role)
		ctx = httputil.WithTokenID(ctx, claims.ID)
		if claims.ExpiresAt != nil {
			ctx = httputil.WithTokenExpiry(ctx, claims.ExpiresAt.Time)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole lets through only authenticated users holding one of roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := httputil.GetUserRole(r.Context())
			if role == "" {
				httputil.Error(w, errors.Unauthorized("not logged in"))
				return
			}
			if !slices.Contains(roles, role) {
				httputil.Error(w, errors.Forbidden("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin lets through only admins
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(RoleAdmin)(next)
}
