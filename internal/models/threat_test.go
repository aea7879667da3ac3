package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreatAssessment_Normalize(t *testing.T) {
	tests := []struct {
		level       ThreatLevel
		wantLevel   ThreatLevel
		wantCall    bool
		wantMessage bool
	}{
		{LevelRed, LevelRed, true, true},
		{LevelOrange, LevelOrange, false, true},
		{LevelPurple, LevelPurple, false, true},
		{LevelYellow, LevelYellow, false, false},
		{LevelNone, LevelNone, false, false},
		{ThreatLevel("green"), LevelYellow, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			// Deliberately inconsistent flags.
			a := ThreatAssessment{Level: tt.level, NeedCall: !tt.wantCall, NeedMessage: !tt.wantMessage, Confidence: 150}
			got := a.Normalize()
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantCall, got.NeedCall)
			assert.Equal(t, tt.wantMessage, got.NeedMessage)
			assert.Equal(t, 100, got.Confidence)
		})
	}
}

func TestParseThreatLevel(t *testing.T) {
	l, err := ParseThreatLevel("purple")
	require.NoError(t, err)
	assert.Equal(t, LevelPurple, l)

	_, err = ParseThreatLevel("blue")
	assert.Error(t, err)
}

func TestCursor_CloneIsDeep(t *testing.T) {
	id := int64(10)
	c := Cursor{LastSeenID: &id, SeenIDs: []int64{9, 10}}
	cp := c.Clone()
	*cp.LastSeenID = 11
	cp.SeenIDs[0] = 1

	assert.Equal(t, int64(10), *c.LastSeenID)
	assert.Equal(t, int64(9), c.SeenIDs[0])
}

func TestEscalationRecord_MarshalJSON(t *testing.T) {
	rec := NewEscalationRecord(5, LevelRed, KindCall)
	rec.Status = StatusAnswered

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, uuid.UUID(rec.ID).String(), out["id"])
	assert.Equal(t, "red", out["level"])
	assert.Equal(t, "answered", out["status"])
}
