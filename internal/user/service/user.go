package service

import (
	"context"
	"slices"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cbsistema/cbsistema-backend/internal/auth/jwt"
	"github.com/cbsistema/cbsistema-backend/internal/user/domain"
	"github.com/cbsistema/cbsistema-backend/internal/user/events"
	"github.com/cbsistema/cbsistema-backend/internal/user/repository"
	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

var validRoles = []string{domain.RoleAdmin, domain.RoleManager, domain.RoleWarehouse, domain.RoleCashier}

// UserService handles accounts and sessions
type UserService struct {
	userRepo *repository.UserRepository
	sessions *jwt.Manager
	revoker  jwt.Revoker
	events   *events.UserEventPublisher
	cfg      config.UsersConfig
	now      func() time.Time
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo *repository.UserRepository,
	sessions *jwt.Manager,
	revoker jwt.Revoker,
	publisher *events.UserEventPublisher,
	cfg config.UsersConfig,
	log *logger.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		sessions: sessions,
		revoker:  revoker,
		events:   publisher,
		cfg:      cfg,
		now:      time.Now,
		logger:   log,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is a session plus the user it belongs to
type LoginResponse struct {
	*jwt.Session
	User *domain.User `json:"user"`
}

// CreateUserRequest represents a create user request
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// UpdateUserRequest represents an update user request
type UpdateUserRequest struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
	Role *string `json:"role"`
}

// ResetPasswordRequest represents an admin password reset
type ResetPasswordRequest struct {
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Login checks credentials and issues a session token
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.GetByName(ctx, req.Name)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug().Int64("user_id", user.ID).Msg("password mismatch")
		return nil, errors.InvalidCredentials()
	}

	session, err := s.sessions.Issue(&jwt.UserInfo{ID: user.ID, Name: user.Name, Role: user.Role})
	if err != nil {
		return nil, errors.Internal("failed to issue session")
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("user logged in")
	return &LoginResponse{Session: session, User: user}, nil
}

// Logout revokes a session token until it would have expired
func (s *UserService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errors.Unauthorized("not logged in")
	}
	ttl := expiresAt.Sub(s.now())
	if expiresAt.IsZero() {
		ttl = s.sessions.Expiry()
	}
	if err := s.revoker.Revoke(ctx, tokenID, ttl); err != nil {
		s.logger.Error().Err(err).Msg("failed to revoke session")
		return errors.Internal("failed to end session")
	}
	return nil
}

// Me returns the logged in user
func (s *UserService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	if userID == 0 {
		return nil, errors.Unauthorized("not logged in")
	}
	return s.userRepo.GetByID(ctx, userID)
}

// List lists every user
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.List(ctx)
}

// GetByID gets a user
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Create creates a user
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*domain.User, error) {
	if err := s.checkRole(req.Role); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("user created")
	s.events.PublishUserCreated(ctx, user)
	return user, nil
}

// Update changes name and/or role
func (s *UserService) Update(ctx context.Context, id int64, req *UpdateUserRequest) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, errors.Validation(map[string]string{"name": "must not be empty"})
		}
		user.Name = *req.Name
	}
	oldRole := user.Role
	if req.Role != nil {
		if err := s.checkRole(*req.Role); err != nil {
			return nil, err
		}
		user.Role = *req.Role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if user.Role != oldRole {
		s.events.PublishUserRoleChanged(ctx, user.ID, oldRole, user.Role)
	}
	return user, nil
}

// Delete deletes a user
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	s.events.PublishUserDeleted(ctx, id)
	return nil
}

// ResetPassword replaces a user's password
func (s *UserService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, req.UserID, hash)
}

// BootstrapAdmin creates the first admin account when the users table is
// empty and a bootstrap password is configured. It reports whether an
// account was created.
func (s *UserService) BootstrapAdmin(ctx context.Context) (bool, error) {
	if s.cfg.BootstrapAdminPassword == "" {
		return false, nil
	}
	n, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	name := s.cfg.BootstrapAdminName
	if name == "" {
		name = "admin"
	}
	if _, err := s.Create(ctx, &CreateUserRequest{
		Name:     name,
		Password: s.cfg.BootstrapAdminPassword,
		Role:     domain.RoleAdmin,
	}); err != nil {
		return false, err
	}
	s.logger.Warn().Str("name", name).Msg("bootstrap admin account created")
	return true, nil
}

func (s *UserService) checkRole(role string) error {
	if !slices.Contains(validRoles, role) {
		return errors.Validation(map[string]string{"role": "must be one of admin, gerente, almacen, caja"})
	}
	return nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	if len(password) < s.cfg.MinPasswordLength {
		return "", errors.Validation(map[string]string{"password": "too short"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Internal("failed to hash password")
	}
	return string(hash), nil
}
