package cursor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-monitor/internal/models"
)

func TestFileBackend_MissingFileIsEmpty(t *testing.T) {
	backend := NewFileBackend(filepath.Join(t.TempDir(), "storage.json"))

	c, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, c.LastSeenID)
	assert.Empty(t, c.SeenIDs)
}

func TestFileBackend_ReadsLegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	legacy := `{"lastCheckedMessageId": 120, "processedMessageIds": [118, 119, 120]}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	c, err := NewFileBackend(path).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c.LastSeenID)
	assert.Equal(t, int64(120), *c.LastSeenID)
	assert.Equal(t, []int64{118, 119, 120}, c.SeenIDs)
}

func TestFileBackend_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileBackend(path).Load(context.Background())
	assert.Error(t, err)
}

func TestFileBackend_StoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")

	store, err := Open(ctx, NewFileBackend(path))
	require.NoError(t, err)
	require.NoError(t, store.RecordSeen(ctx, 3))
	require.NoError(t, store.AdvanceCursorTo(ctx, 3))

	reopened, err := Open(ctx, NewFileBackend(path))
	require.NoError(t, err)
	assert.True(t, reopened.IsSeen(3))
	assert.Equal(t, int64(3), *reopened.LastSeenID())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestFileBackend_EmptyCursorWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, NewFileBackend(path).Save(context.Background(), models.Cursor{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"processedMessageIds": []`)
	assert.Contains(t, string(data), `"lastCheckedMessageId": null`)
}
