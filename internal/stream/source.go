// Package stream holds the intake side of the monitor: the Source contract the
// controller polls and the in-memory Buffer that push-based transports fill.
package stream

import (
	"context"

	"alert-monitor/internal/models"
)

// Source returns items newer than a cursor.
type Source interface {
	// FetchSince returns at most limit items with id greater than after
	// (all items when after is nil), newest first.
	FetchSince(ctx context.Context, after *int64, limit int) ([]models.StreamItem, error)
}
