package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EscalationKind distinguishes plain messages from call campaigns.
type EscalationKind string

const (
	KindMessage EscalationKind = "message"
	KindCall    EscalationKind = "call"
)

// Escalation statuses as stored in history.
const (
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusAnswered  = "answered"
	StatusExhausted = "exhausted"
)

// EscalationRecord is one row of escalation history.
type EscalationRecord struct {
	ID        [16]byte       `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	ItemID    int64          `json:"item_id"`
	Level     ThreatLevel    `json:"level"`
	Kind      EscalationKind `json:"kind"`
	Status    string         `json:"status"`
	Attempts  int            `json:"attempts"`
	LastError string         `json:"last_error,omitempty"`
}

// NewEscalationRecord creates a record with a fresh id.
func NewEscalationRecord(itemID int64, level ThreatLevel, kind EscalationKind) EscalationRecord {
	return EscalationRecord{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		ItemID:    itemID,
		Level:     level,
		Kind:      kind,
	}
}

// MarshalJSON renders the id as a UUID string.
func (r EscalationRecord) MarshalJSON() ([]byte, error) {
	type Alias EscalationRecord
	return json.Marshal(&struct {
		ID string `json:"id"`
		*Alias
	}{
		ID:    uuid.UUID(r.ID).String(),
		Alias: (*Alias)(&r),
	})
}
