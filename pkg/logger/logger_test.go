package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_FileOutputJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streakzilla.log")

	require.NoError(t, Init("debug", "json", path))
	WithFields(logrus.Fields{"challenge_id": "c1"}).Info("checked in")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"challenge_id":"c1"`)
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init("loud", "text", "discard"))
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}

func TestForChallenge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoped.log")
	require.NoError(t, Init("info", "json", path))

	ForChallenge("c1", "").Info("challenge closed")
	ForChallenge("c1", "m1").Warn("heart used")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "membership_id")
	assert.Contains(t, lines[1], `"membership_id":"m1"`)
	assert.Contains(t, lines[1], `"challenge_id":"c1"`)
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Log = logrus.New()
	Log.SetOutput(os.Stderr)

	assert.NotPanics(t, func() {
		Debug("debug")
		Info("info")
		Warn("warn")
		Error("error")
	})
}
