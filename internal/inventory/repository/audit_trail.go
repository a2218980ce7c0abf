package repository

import (
	"context"
	"time"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
)

// LogEntry is one audited request: who did what on which path and how it ended
type LogEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    *int64    `db:"user_id" json:"user_id,omitempty"`
	UserName  *string   `db:"user_name" json:"user_name,omitempty"`
	Action    string    `db:"action" json:"action"`
	Path      string    `db:"path" json:"path"`
	Status    int       `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AuditLogRepository handles the logs table
type AuditLogRepository struct {
	db *database.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create appends an entry
func (r *AuditLogRepository) Create(ctx context.Context, e *LogEntry) error {
	query := `
		INSERT INTO logs (user_id, action, path, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, e.UserID, e.Action, e.Path, e.Status).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return database.MapError("write log", err)
	}
	return nil
}

// List returns every entry, newest first
func (r *AuditLogRepository) List(ctx context.Context) ([]*LogEntry, error) {
	entries := []*LogEntry{}
	query := `
		SELECT l.id, l.user_id, u.name AS user_name, l.action, l.path, l.status, l.created_at
		FROM logs l
		LEFT JOIN usuarios u ON u.id = l.user_id
		ORDER BY l.created_at DESC, l.id DESC
	`
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, database.MapError("list logs", err)
	}
	return entries, nil
}

// Clear deletes every entry and reports how many were removed
func (r *AuditLogRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM logs`)
	if err != nil {
		return 0, database.MapError("clear logs", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, database.MapError("clear logs", err)
	}
	return n, nil
}
