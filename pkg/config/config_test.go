package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrInit_CreatesDefaultWhenAbsent(t *testing.T) {
	t.Setenv("ANGELA_CONFIG", t.TempDir())

	cfg, err := LoadOrInit()
	require.NoError(t, err)
	assert.True(t, cfg.AutoExecute.Safe)
	assert.True(t, cfg.AutoExecute.Low)
	assert.False(t, cfg.AutoExecute.Medium)

	_, err = LoadOrInit()
	require.NoError(t, err)
}

func TestSave_ThenLoadRoundTrips(t *testing.T) {
	t.Setenv("ANGELA_CONFIG", t.TempDir())

	cfg := Default()
	cfg.ConfirmAllActions = true
	cfg.TrustedCommands = []string{"git status"}
	require.NoError(t, Save(cfg))

	loaded, err := LoadOrInit()
	require.NoError(t, err)
	assert.True(t, loaded.ConfirmAllActions)
	assert.Equal(t, []string{"git status"}, loaded.TrustedCommands)
}

func TestPreferences_BuildsLookupSetsFromLists(t *testing.T) {
	cfg := Default()
	cfg.TrustedCommands = []string{"ls"}
	cfg.UntrustedCommands = []string{"curl http://example.com"}

	prefs := cfg.Preferences()
	assert.True(t, prefs.TrustedCommands["ls"])
	assert.True(t, prefs.UntrustedCommands["curl http://example.com"])
	assert.False(t, prefs.TrustedCommands["rm -rf /"])
}

func TestPath_HonorsAngelaConfigEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANGELA_CONFIG", dir)
	assert.Equal(t, filepath.Join(dir, "preferences.json"), Path())
}
