package repository

import (
	"context"
	"time"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
)

// Category groups products
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CategoryRepository handles category persistence
type CategoryRepository struct {
	db *database.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *database.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List lists categories by name
func (r *CategoryRepository) List(ctx context.Context) ([]*Category, error) {
	categories := []*Category{}
	query := `SELECT id, name, description, created_at FROM categorias ORDER BY name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, database.MapError("list categories", err)
	}
	return categories, nil
}

// GetByID gets a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*Category, error) {
	var c Category
	query := `SELECT id, name, description, created_at FROM categorias WHERE id = $1`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if database.IsNoRows(err) {
			return nil, errors.NotFound("category")
		}
		return nil, database.MapError("get category", err)
	}
	return &c, nil
}

// Create creates a category
func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO categorias (name, description) VALUES ($1, $2) RETURNING id, created_at`,
		c.Name, c.Description,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return database.MapError("create category", err)
	}
	return nil
}

// Update renames or re-describes a category
func (r *CategoryRepository) Update(ctx context.Context, c *Category) error {
	err := r.db.QueryRowxContext(ctx,
		`UPDATE categorias SET name = $2, description = $3 WHERE id = $1 RETURNING created_at`,
		c.ID, c.Name, c.Description,
	).Scan(&c.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return errors.NotFound("category")
		}
		return database.MapError("update category", err)
	}
	return nil
}

// Delete deletes a category. Its products keep existing without one.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categorias WHERE id = $1`, id)
	if err != nil {
		return database.MapError("delete category", err)
	}
	return requireAffected(result, "category")
}
