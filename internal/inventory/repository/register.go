package repository

import (
	"context"
	"time"

	"github.com/cbsistema/cbsistema-backend/pkg/database"
)

// RegisterEntry is one product's line of a daily register
type RegisterEntry struct {
	ID            int64     `db:"id" json:"id"`
	Date          time.Time `db:"date" json:"date"`
	ProductID     int64     `db:"product_id" json:"product_id"`
	ProductName   string    `db:"product_name" json:"product_name,omitempty"`
	StockInitial  int       `db:"stock_initial" json:"stock_initial"`
	StockReceived int       `db:"stock_received" json:"stock_received"`
	StockFinal    int       `db:"stock_final" json:"stock_final"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// RegisterRepository handles daily register persistence
type RegisterRepository struct {
	db *database.DB
}

// NewRegisterRepository creates a new register repository
func NewRegisterRepository(db *database.DB) *RegisterRepository {
	return &RegisterRepository{db: db}
}

// InsertMany writes all entries for date and sets their IDs in input order.
// Large submissions are split into several statements; callers run it in a
// transaction so the rows still land together.
func (r *RegisterRepository) InsertMany(ctx context.Context, date time.Time, entries []*RegisterEntry) error {
	day := date.Format(time.DateOnly)
	for _, span := range chunkRows(len(entries), 5) {
		chunk := entries[span[0]:span[1]]

		args := make([]interface{}, 0, len(chunk)*5)
		for _, e := range chunk {
			args = append(args, day, e.ProductID, e.StockInitial, e.StockReceived, e.StockFinal)
		}

		query := `
			INSERT INTO registro_diario (date, product_id, stock_initial, stock_received, stock_final)
			VALUES ` + valuesList(len(chunk), 5) + `
			RETURNING id
		`

		var ids []int64
		if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
			return database.MapError("insert daily register", err)
		}
		for i, id := range ids {
			if i < len(chunk) {
				chunk[i].ID = id
			}
		}
	}
	return nil
}

// List returns register rows, newest day first. A nil date returns every day.
func (r *RegisterRepository) List(ctx context.Context, date *time.Time) ([]*RegisterEntry, error) {
	entries := []*RegisterEntry{}
	query := `
		SELECT rd.id, rd.date, rd.product_id, p.name AS product_name,
			rd.stock_initial, rd.stock_received, rd.stock_final, rd.created_at
		FROM registro_diario rd
		JOIN products p ON p.id = rd.product_id
	`
	args := []interface{}{}
	if date != nil {
		query += ` WHERE rd.date = $1::date`
		args = append(args, date.Format(time.DateOnly))
	}
	query += ` ORDER BY rd.date DESC, rd.id`

	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, database.MapError("list daily register", err)
	}
	return entries, nil
}

// Update overwrites the stock figures of one row
func (r *RegisterRepository) Update(ctx context.Context, id int64, initial, received, final int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE registro_diario SET stock_initial = $2, stock_received = $3, stock_final = $4
		WHERE id = $1
	`, id, initial, received, final)
	if err != nil {
		return database.MapError("update register entry", err)
	}
	return requireAffected(result, "register entry")
}

// Delete deletes one row
func (r *RegisterRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM registro_diario WHERE id = $1`, id)
	if err != nil {
		return database.MapError("delete register entry", err)
	}
	return requireAffected(result, "register entry")
}
