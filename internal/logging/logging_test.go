package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(dir, "debug", "json")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("item_id", 7).Info("hello")
	logger.Close()

	data, err := os.ReadFile(filepath.Join(dir, "alert-monitor.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"item_id":7`)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(t.TempDir(), "loud", "text")
	require.NoError(t, err)
	defer logger.Close()

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestDiscard_CloseIsSafe(t *testing.T) {
	logger := Discard()
	logger.Error("dropped")
	logger.Close()
}
