package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_AllFields(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"NOTESYNC_CONFIG": "/path/to/config.json",

		"NOTESYNC_SERVER_URL":             "https://sync.example.com",
		"NOTESYNC_SERVER_API_KEY":         "secret-key",
		"NOTESYNC_SERVER_REQUEST_TIMEOUT": "30s",

		"NOTESYNC_STORAGE_DB_PATH":   "/var/lib/notesync/sync.db",
		"NOTESYNC_STORAGE_NOTES_DIR": "/var/lib/notesync/notes",

		"NOTESYNC_ENGINE_ENABLED":         "true",
		"NOTESYNC_ENGINE_SYNC_INTERVAL":   "10m",
		"NOTESYNC_ENGINE_DEBOUNCE_DELAY":  "3s",
		"NOTESYNC_ENGINE_PUSH_BATCH_SIZE": "25",
		"NOTESYNC_ENGINE_PROBE_INTERVAL":  "45s",
	}
	setEnvVars(t, envVars)

	// Act
	cfg := &Config{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)

	assert.Equal(t, "https://sync.example.com", cfg.Server.URL)
	assert.Equal(t, "secret-key", cfg.Server.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)

	assert.Equal(t, "/var/lib/notesync/sync.db", cfg.Storage.DBPath)
	assert.Equal(t, "/var/lib/notesync/notes", cfg.Storage.NotesDir)

	assert.True(t, cfg.Engine.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Engine.SyncInterval)
	assert.Equal(t, 3*time.Second, cfg.Engine.DebounceDelay)
	assert.Equal(t, 25, cfg.Engine.PushBatchSize)
	assert.Equal(t, 45*time.Second, cfg.Engine.ProbeInterval)
}

func TestParseEnv_PartialFields(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"NOTESYNC_SERVER_URL":      "https://sync.example.com",
		"NOTESYNC_STORAGE_DB_PATH": "/tmp/sync.db",
	}
	setEnvVars(t, envVars)

	// Act
	cfg := &Config{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, "https://sync.example.com", cfg.Server.URL)
	assert.Empty(t, cfg.Server.APIKey)
	assert.Zero(t, cfg.Server.RequestTimeout)

	assert.Equal(t, "/tmp/sync.db", cfg.Storage.DBPath)

	assert.False(t, cfg.Engine.Enabled)
	assert.Zero(t, cfg.Engine.SyncInterval)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseEnv_EmptyEnv(t *testing.T) {
	// Arrange
	clearEnvVars(t)

	// Act
	cfg := &Config{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestParseEnv_InvalidDuration(t *testing.T) {
	// Arrange
	setEnvVars(t, map[string]string{
		"NOTESYNC_ENGINE_SYNC_INTERVAL": "not-a-duration",
	})

	// Act
	cfg := &Config{}
	err := parseEnv(cfg)

	// Assert
	require.Error(t, err)
}

// Helpers

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	clearEnvVars(t)
	for k, v := range vars {
		require.NoError(t, os.Setenv(k, v))
		t.Cleanup(func() { _ = os.Unsetenv(k) })
	}
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	keys := []string{
		"NOTESYNC_CONFIG",

		"NOTESYNC_SERVER_URL",
		"NOTESYNC_SERVER_API_KEY",
		"NOTESYNC_SERVER_REQUEST_TIMEOUT",

		"NOTESYNC_STORAGE_DB_PATH",
		"NOTESYNC_STORAGE_NOTES_DIR",

		"NOTESYNC_ENGINE_ENABLED",
		"NOTESYNC_ENGINE_SYNC_INTERVAL",
		"NOTESYNC_ENGINE_DEBOUNCE_DELAY",
		"NOTESYNC_ENGINE_PUSH_BATCH_SIZE",
		"NOTESYNC_ENGINE_PROBE_INTERVAL",
	}
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}
