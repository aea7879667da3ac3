package stream

import (
	"context"
	"sort"
	"sync"

	"alert-monitor/internal/models"
)

// Buffer keeps the most recent items received from a push transport, ordered by id.
// Transports call Push from their own goroutine; the controller reads with FetchSince.
type Buffer struct {
	mu       sync.Mutex
	items    []models.StreamItem
	capacity int
}

// NewBuffer creates a Buffer holding at most capacity items.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 500
	}
	return &Buffer{capacity: capacity}
}

// Push stores an item. Items with an id already buffered are ignored, so
// retransmissions never produce two entries.
func (b *Buffer) Push(item models.StreamItem) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := sort.Search(len(b.items), func(i int) bool { return b.items[i].ID >= item.ID })
	if i < len(b.items) && b.items[i].ID == item.ID {
		return
	}
	b.items = append(b.items, models.StreamItem{})
	copy(b.items[i+1:], b.items[i:])
	b.items[i] = item

	if len(b.items) > b.capacity {
		b.items = append([]models.StreamItem(nil), b.items[len(b.items)-b.capacity:]...)
	}
}

// Len returns the number of buffered items.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// FetchSince implements Source.
func (b *Buffer) FetchSince(ctx context.Context, after *int64, limit int) ([]models.StreamItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []models.StreamItem
	for i := len(b.items) - 1; i >= 0; i-- {
		item := b.items[i]
		if after != nil && item.ID <= *after {
			break
		}
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
