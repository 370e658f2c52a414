package sqlite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackingturtles/peregrin/pkg/types"
)

func TestConfigNotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.Config("RunQueue")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSetConfigChangeLog(t *testing.T) {
	s := setupStore(t)

	engineID, err := s.AddEngine("Scanner", "1.0", "")
	require.NoError(t, err)

	require.NoError(t, s.SetConfig(engineID, "k", "v1"))
	// Same value again: no write, no status line.
	require.NoError(t, s.SetConfig(engineID, "k", "v1"))

	value, err := s.Config("k")
	require.NoError(t, err)
	assert.Equal(t, "v1", value)

	lines, err := s.RecentStatus(100)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0].Message, "CONFIG NEW:"), "got %q", lines[0].Message)

	require.NoError(t, s.SetConfig(engineID, "k", "v2"))

	value, err = s.Config("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)

	lines, err = s.RecentStatus(100)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	// Newest first.
	assert.True(t, strings.HasPrefix(lines[0].Message, "CONFIG CHANGE:"), "got %q", lines[0].Message)
	assert.Contains(t, lines[0].Message, "v1 -> v2")
}

func TestRecentStatusLimit(t *testing.T) {
	s := setupStore(t)

	engineID, err := s.AddEngine("Scanner", "1.0", "")
	require.NoError(t, err)
	actionID, err := s.AddAction("scan")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddStatus(engineID, actionID, "line"))
	}

	lines, err := s.RecentStatus(3)
	require.NoError(t, err)
	assert.Len(t, lines, 3)
}

func TestRunQueueFlagRoundTrip(t *testing.T) {
	s := setupStore(t)

	engineID, err := s.AddEngine("Scanner", "1.0", "")
	require.NoError(t, err)

	require.NoError(t, s.SetConfig(engineID, types.ConfigRunQueue, types.RunQueueRunning))
	value, err := s.Config(types.ConfigRunQueue)
	require.NoError(t, err)
	assert.Equal(t, types.RunQueueRunning, value)

	require.NoError(t, s.SetConfig(engineID, types.ConfigRunQueue, types.RunQueueStopped))
	value, err = s.Config(types.ConfigRunQueue)
	require.NoError(t, err)
	assert.Equal(t, types.RunQueueStopped, value)
}
