package models

import (
	"sort"
	"time"
)

// StreamItem is one inbound message from the monitored source.
type StreamItem struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	ObservedAt time.Time `json:"observed_at"`
}

// MaxSeenIDs bounds the dedup window kept in a Cursor.
const MaxSeenIDs = 1000

// Cursor is the durable processing marker plus a bounded recent-id window.
// The JSON names match the storage.json layout used by earlier deployments.
type Cursor struct {
	LastSeenID *int64  `json:"lastCheckedMessageId"`
	SeenIDs    []int64 `json:"processedMessageIds"`
}

// Clone returns a deep copy.
func (c Cursor) Clone() Cursor {
	out := Cursor{SeenIDs: append([]int64(nil), c.SeenIDs...)}
	if c.LastSeenID != nil {
		id := *c.LastSeenID
		out.LastSeenID = &id
	}
	return out
}

// SortedSeenIDs returns the seen set in ascending order.
func SortedSeenIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
