package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── newConfigBuilder ─────────────────────────────────────────────────────────

func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ────────────────────────────────────────────────────────────────────

func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_EarlierSourcesWin verifies the merge precedence: a field set by
// an earlier source is not overwritten by a later one.
func TestBuild_EarlierSourcesWin(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&Config{
			Server:  Server{URL: "https://from-flags.example.com"},
			Storage: Storage{DBPath: "/tmp/sync.db"},
		},
		&Config{
			Server: Server{URL: "https://from-env.example.com", APIKey: "env-key"},
		},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "https://from-flags.example.com", cfg.Server.URL)
	assert.Equal(t, "env-key", cfg.Server.APIKey)
	assert.Equal(t, "/tmp/sync.db", cfg.Storage.DBPath)
}

func TestBuild_AppliesDefaults(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &Config{Storage: Storage{DBPath: "/tmp/sync.db"}})

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, DefaultSyncInterval, cfg.Engine.SyncInterval)
	assert.Equal(t, DefaultDebounceDelay, cfg.Engine.DebounceDelay)
	assert.Equal(t, DefaultPushBatchSize, cfg.Engine.PushBatchSize)
	assert.Equal(t, DefaultProbeInterval, cfg.Engine.ProbeInterval)
	assert.Equal(t, DefaultRequestTimeout, cfg.Server.RequestTimeout)
}

func TestBuild_DefaultsDoNotOverrideExplicit(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &Config{
		Storage: Storage{DBPath: "/tmp/sync.db"},
		Engine:  Engine{SyncInterval: time.Minute},
	})

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Engine.SyncInterval)
}

// ── validation ───────────────────────────────────────────────────────────────

func TestBuild_MissingDBPath(t *testing.T) {
	cfg, err := newConfigBuilder().build()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDBPath)
	_ = cfg
}

func TestBuild_EnabledRequiresServerAndKey(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &Config{
		Storage: Storage{DBPath: "/tmp/sync.db"},
		Engine:  Engine{Enabled: true},
	})

	_, err := b.build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoServerURL)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestBuild_DisabledNeedsNoServer(t *testing.T) {
	// Offline-only use: local change recording without a configured server.
	b := newConfigBuilder()
	b.configs = append(b.configs, &Config{Storage: Storage{DBPath: "/tmp/sync.db"}})

	cfg, err := b.build()
	require.NoError(t, err)
	assert.False(t, cfg.Engine.Enabled)
}

// ── withJSON ─────────────────────────────────────────────────────────────────

func TestWithJSON_UsesPathFromEarlierSource(t *testing.T) {
	path := writeTempJSONConfig(t, `{"server": {"api_key": "json-key"}}`)

	b := newConfigBuilder()
	b.configs = append(b.configs, &Config{
		JSONFilePath: path,
		Storage:      Storage{DBPath: "/tmp/sync.db"},
	})

	cfg, err := b.withJSON().build()
	require.NoError(t, err)
	assert.Equal(t, "json-key", cfg.Server.APIKey)
}

func TestWithJSON_NoPathIsNoop(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &Config{Storage: Storage{DBPath: "/tmp/sync.db"}})

	b = b.withJSON()
	assert.Len(t, b.configs, 1)
	assert.NoError(t, b.err)
}

func TestWithJSON_UnreadableFileSetsError(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &Config{JSONFilePath: "/definitely/absent.json"})

	b = b.withJSON()
	assert.Error(t, b.err)
}

// ── withEnv ──────────────────────────────────────────────────────────────────

func TestWithEnv_CollectsEnvConfig(t *testing.T) {
	setEnvVars(t, map[string]string{"NOTESYNC_SERVER_URL": "https://env.example.com"})

	b := newConfigBuilder().withEnv()
	require.NoError(t, b.err)
	require.Len(t, b.configs, 1)
	assert.Equal(t, "https://env.example.com", b.configs[0].Server.URL)
}
