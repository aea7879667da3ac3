package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"alert-monitor/internal/models"
)

// CreateEscalation inserts a history record.
func (d *DB) CreateEscalation(ctx context.Context, r models.EscalationRecord) error {
	query := `
        INSERT INTO escalations (id, created_at, item_id, level, kind, status, attempts, last_error)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := d.Pool.Exec(ctx, query,
		pgtype.UUID{Bytes: r.ID, Valid: true}, r.CreatedAt, r.ItemID, string(r.Level),
		string(r.Kind), r.Status, r.Attempts, r.LastError)
	if err != nil {
		return fmt.Errorf("failed to create escalation: %w", err)
	}
	return nil
}

// ListEscalations returns the most recent records, newest first.
func (d *DB) ListEscalations(ctx context.Context, limit int) ([]models.EscalationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, created_at, item_id, level, kind, status, attempts, last_error
        FROM escalations
        ORDER BY created_at DESC
        LIMIT $1`
	rows, err := d.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get escalations: %w", err)
	}
	defer rows.Close()

	var list []models.EscalationRecord
	for rows.Next() {
		var (
			r           models.EscalationRecord
			id          pgtype.UUID
			level, kind string
		)
		if err := rows.Scan(&id, &r.CreatedAt, &r.ItemID, &level, &kind, &r.Status, &r.Attempts, &r.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		r.ID = id.Bytes
		r.Level = models.ThreatLevel(level)
		r.Kind = models.EscalationKind(kind)
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate escalations: %w", err)
	}
	return list, nil
}
