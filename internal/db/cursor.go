package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"alert-monitor/internal/models"
)

// cursorRowID is the id of the single cursor row; the monitor watches one stream.
const cursorRowID = 1

// CursorBackend persists the stream cursor in the stream_cursor table.
type CursorBackend struct {
	db *DB
}

// NewCursorBackend returns a cursor backend bound to d.
func NewCursorBackend(d *DB) *CursorBackend {
	return &CursorBackend{db: d}
}

func (b *CursorBackend) Name() string { return "postgres" }

// Load reads the cursor row. No row yields an empty cursor.
func (b *CursorBackend) Load(ctx context.Context) (models.Cursor, error) {
	var c models.Cursor
	query := `SELECT last_seen_id, seen_ids FROM stream_cursor WHERE id = $1`
	err := b.db.Pool.QueryRow(ctx, query, cursorRowID).Scan(&c.LastSeenID, &c.SeenIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Cursor{}, nil
	}
	if err != nil {
		return models.Cursor{}, fmt.Errorf("failed to load cursor: %w", err)
	}
	return c, nil
}

// Save upserts the cursor row.
func (b *CursorBackend) Save(ctx context.Context, c models.Cursor) error {
	seen := c.SeenIDs
	if seen == nil {
		seen = []int64{}
	}
	query := `
        INSERT INTO stream_cursor (id, last_seen_id, seen_ids, updated_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (id) DO UPDATE
        SET last_seen_id = EXCLUDED.last_seen_id,
            seen_ids = EXCLUDED.seen_ids,
            updated_at = EXCLUDED.updated_at`
	if _, err := b.db.Pool.Exec(ctx, query, cursorRowID, c.LastSeenID, seen); err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}
