package repository

import (
	"context"

	"github.com/cbsistema/cbsistema-backend/internal/user/domain"
	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
)

const userColumns = `id, name, password_hash, role, created_at`

// UserRepository handles user persistence
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO usuarios (name, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, user.Name, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return database.MapError("create user", err)
	}
	return nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM usuarios WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if database.IsNoRows(err) {
			return nil, errors.NotFound("user")
		}
		return nil, database.MapError("get user", err)
	}
	return &user, nil
}

// GetByName gets a user by exact name
func (r *UserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM usuarios WHERE name = $1`
	if err := r.db.GetContext(ctx, &user, query, name); err != nil {
		if database.IsNoRows(err) {
			return nil, errors.NotFound("user")
		}
		return nil, database.MapError("get user", err)
	}
	return &user, nil
}

// List lists users by id
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	users := []*domain.User{}
	query := `SELECT ` + userColumns + ` FROM usuarios ORDER BY id`
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, database.MapError("list users", err)
	}
	return users, nil
}

// Count counts users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM usuarios`); err != nil {
		return 0, database.MapError("count users", err)
	}
	return n, nil
}

// Update updates name and role
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRowxContext(ctx,
		`UPDATE usuarios SET name = $2, role = $3 WHERE id = $1 RETURNING created_at`,
		user.ID, user.Name, user.Role,
	).Scan(&user.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return errors.NotFound("user")
		}
		return database.MapError("update user", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE usuarios SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return database.MapError("update password", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return database.MapError("update password", err)
	}
	if n == 0 {
		return errors.NotFound("user")
	}
	return nil
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return database.MapError("delete user", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return database.MapError("delete user", err)
	}
	if n == 0 {
		return errors.NotFound("user")
	}
	return nil
}
