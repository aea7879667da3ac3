// Package classifier turns raw stream text into threat assessments.
//
// Two implementations share the Classifier contract: Rules, a deterministic
// keyword matcher, and AI, which asks a chat-completions endpoint for a
// structured verdict and falls back to Rules whenever that request fails.
// Which one runs is decided once at startup.
package classifier

import (
	"context"

	"alert-monitor/internal/models"
)

// Classifier assesses a batch of items. The result is index-aligned with the
// input and always has the same length; failures never surface to the caller.
type Classifier interface {
	Classify(ctx context.Context, items []models.StreamItem) []models.ThreatAssessment
	Name() string
}

// CityOptions describes the monitored city and the cities that must not be
// mistaken for it.
type CityOptions struct {
	City        string
	Variants    []string
	OtherCities []string
}
