package repository

import (
	"context"
	"time"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
)

// DefaultNotificationTitle is used when a notification is created without one
const DefaultNotificationTitle = "Stock Alert"

// Notification is an advisory message addressed to a user
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProductID *int64    `db:"product_id" json:"product_id,omitempty"`
	BatchID   *int64    `db:"batch_id" json:"batch_id,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const notificationColumns = `id, title, message, user_id, product_id, batch_id, is_read, created_at`

// NotificationRepository handles notification persistence
type NotificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts one unread notification
func (r *NotificationRepository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notificaciones (title, message, user_id, product_id, batch_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_read, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		n.Title, n.Message, n.UserID, n.ProductID, n.BatchID,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return database.MapError("create notification", err)
	}
	return nil
}

// CreateMany inserts all notifications and sets their IDs, splitting the
// insert when it would exceed the statement parameter limit.
func (r *NotificationRepository) CreateMany(ctx context.Context, ns []*Notification) error {
	for _, span := range chunkRows(len(ns), 5) {
		chunk := ns[span[0]:span[1]]

		args := make([]interface{}, 0, len(chunk)*5)
		for _, n := range chunk {
			args = append(args, n.Title, n.Message, n.UserID, n.ProductID, n.BatchID)
		}
		query := `
			INSERT INTO notificaciones (title, message, user_id, product_id, batch_id)
			VALUES ` + valuesList(len(chunk), 5) + `
			RETURNING id, created_at
		`

		var rows []struct {
			ID        int64     `db:"id"`
			CreatedAt time.Time `db:"created_at"`
		}
		if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return database.MapError("create notifications", err)
		}
		for i, row := range rows {
			if i < len(chunk) {
				chunk[i].ID = row.ID
				chunk[i].CreatedAt = row.CreatedAt
			}
		}
	}
	return nil
}

// List returns every notification, newest first
func (r *NotificationRepository) List(ctx context.Context) ([]*Notification, error) {
	ns := []*Notification{}
	query := `SELECT ` + notificationColumns + ` FROM notificaciones ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &ns, query); err != nil {
		return nil, database.MapError("list notifications", err)
	}
	return ns, nil
}

// ListForUser returns the notifications addressed to userID, newest first
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64) ([]*Notification, error) {
	ns := []*Notification{}
	query := `
		SELECT ` + notificationColumns + `
		FROM notificaciones
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &ns, query, userID); err != nil {
		return nil, database.MapError("list notifications", err)
	}
	return ns, nil
}

// MarkRead flags a notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notificaciones SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return database.MapError("mark notification read", err)
	}
	return requireAffected(result, "notification")
}

// Delete deletes a notification
func (r *NotificationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notificaciones WHERE id = $1`, id)
	if err != nil {
		return database.MapError("delete notification", err)
	}
	return requireAffected(result, "notification")
}

// DeleteForUser deletes every notification addressed to userID and returns how many
func (r *NotificationRepository) DeleteForUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notificaciones WHERE user_id = $1`, userID)
	if err != nil {
		return 0, database.MapError("delete user notifications", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, database.MapError("delete user notifications", err)
	}
	return n, nil
}

// ExistsUnread reports whether an unread notification with this title for
// the same product and batch was created at or after since
func (r *NotificationRepository) ExistsUnread(ctx context.Context, title string, productID, batchID *int64, since time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notificaciones
			WHERE title = $1
				AND product_id IS NOT DISTINCT FROM $2
				AND batch_id IS NOT DISTINCT FROM $3
				AND is_read = FALSE
				AND created_at >= $4
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, title, productID, batchID, since); err != nil {
		return false, database.MapError("check notification", err)
	}
	return exists, nil
}
