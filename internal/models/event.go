package models

import "time"

// EventType names the kind of live event pushed to dashboards.
type EventType string

const (
	EventAssessment        EventType = "assessment"
	EventEscalationStarted EventType = "escalation_started"
	EventEscalationEnded   EventType = "escalation_finished"
	EventCycleSkipped      EventType = "cycle_skipped"
)

// Event is a single live update about the monitor.
type Event struct {
	Type       EventType         `json:"type"`
	At         time.Time         `json:"at"`
	ItemID     int64             `json:"item_id,omitempty"`
	Assessment *ThreatAssessment `json:"assessment,omitempty"`
	Campaign   *CampaignResult   `json:"campaign,omitempty"`
}
