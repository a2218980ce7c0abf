package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cbsistema/cbsistema-backend/pkg/config"
	apperrors "github.com/cbsistema/cbsistema-backend/pkg/errors"
)

// Claims are the session claims carried by a token
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// UserInfo identifies the user a session is issued for
type UserInfo struct {
	ID   int64
	Name string
	Role string
}

// Session is an issued session token
type Session struct {
	Token     string    `json:"token"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"`
}

// Manager issues and validates HS256 session tokens
type Manager struct {
	config *config.SessionConfig
	now    func() time.Time
}

// NewManager creates a new session manager
func NewManager(cfg *config.SessionConfig) *Manager {
	return &Manager{config: cfg, now: time.Now}
}

// Issue signs a session token for user
func (m *Manager) Issue(user *UserInfo) (*Session, error) {
	now := m.now()
	expiry := now.Add(m.config.Expiry)
	tokenID := uuid.New().String()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        tokenID,
		},
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     signed,
		TokenID:   tokenID,
		ExpiresAt: expiry,
		TokenType: "Bearer",
	}, nil
}

// Validate checks the signature, issuer and lifetime of a token and returns its claims
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	},
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.TokenInvalid()
	}

	return claims, nil
}

// Expiry returns the session lifetime
func (m *Manager) Expiry() time.Duration {
	return m.config.Expiry
}
