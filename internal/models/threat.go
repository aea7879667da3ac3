package models

import "fmt"

// ThreatLevel is one of five ordinal severity classes.
type ThreatLevel string

const (
	LevelNone   ThreatLevel = "none"
	LevelYellow ThreatLevel = "yellow"
	LevelPurple ThreatLevel = "purple"
	LevelOrange ThreatLevel = "orange"
	LevelRed    ThreatLevel = "red"
)

// Levels lists every level from least to most severe.
var Levels = []ThreatLevel{LevelNone, LevelYellow, LevelPurple, LevelOrange, LevelRed}

// ParseThreatLevel validates a level name.
func ParseThreatLevel(s string) (ThreatLevel, error) {
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown threat level %q", s)
}

// Emoji returns the colored square used in notifications.
func (l ThreatLevel) Emoji() string {
	switch l {
	case LevelRed:
		return "🟥"
	case LevelOrange:
		return "🟧"
	case LevelPurple:
		return "🟪"
	case LevelYellow:
		return "🟨"
	default:
		return "🟩"
	}
}

// Description is the human readable label shown to the recipient.
func (l ThreatLevel) Description() string {
	switch l {
	case LevelRed:
		return "🟥 ЧЕРВОНИЙ (критична небезпека)"
	case LevelOrange:
		return "🟧 ПОМАРАНЧЕВИЙ (небезпечно)"
	case LevelPurple:
		return "🟪 ФІОЛЕТОВИЙ (балістична загроза)"
	case LevelYellow:
		return "🟨 ЖОВТИЙ (відносно безпечно)"
	default:
		return "🟩 ЗЕЛЕНИЙ (безпечно)"
	}
}

// ThreatAssessment is the classifier's verdict for one StreamItem.
type ThreatAssessment struct {
	Level         ThreatLevel `json:"threatLevel"`
	NeedCall      bool        `json:"needCall"`
	NeedMessage   bool        `json:"needMessage"`
	Confidence    int         `json:"confidence"`
	Reason        string      `json:"reason"`
	CityMentioned bool        `json:"cityMentioned"`
}

// Normalize enforces the level/response invariants:
// red needs a call, orange and purple need a message, none and yellow need nothing.
// Unknown levels degrade to yellow. Confidence is clamped to 0..100.
func (a ThreatAssessment) Normalize() ThreatAssessment {
	switch a.Level {
	case LevelRed:
		a.NeedCall = true
		a.NeedMessage = true
	case LevelOrange, LevelPurple:
		a.NeedCall = false
		a.NeedMessage = true
	case LevelNone:
		a.NeedCall = false
		a.NeedMessage = false
	default:
		a.Level = LevelYellow
		a.NeedCall = false
		a.NeedMessage = false
	}
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	if a.Confidence > 100 {
		a.Confidence = 100
	}
	return a
}
