package config

import (
	"time"
)

// Config is the top-level configuration container for the notesync daemon.
// It is populated by merging values from command-line flags, environment
// variables, and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type Config struct {
	// Server holds the sync server endpoint settings. Exactly one server
	// endpoint is configured per device.
	Server Server `envPrefix:"SERVER_" json:"server"`

	// Storage holds local database settings.
	Storage Storage `envPrefix:"STORAGE_" json:"storage"`

	// Engine holds scheduling knobs for the sync engine.
	Engine Engine `envPrefix:"ENGINE_" json:"engine"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from flags and environment variables.
	// Populated via the NOTESYNC_CONFIG environment variable or the
	// -c / -config flag.
	JSONFilePath string `env:"CONFIG" json:"-"`
}

// Server describes the remote endpoint and credential used by the transport.
type Server struct {
	// URL is the base URL of the sync server, e.g. "https://sync.example.com".
	// Env: NOTESYNC_SERVER_URL
	URL string `env:"URL" json:"url"`

	// APIKey is attached to every push/pull request. Authentication failures
	// are surfaced to the user rather than retried with the same credential.
	// Env: NOTESYNC_SERVER_API_KEY
	APIKey string `env:"API_KEY" json:"api_key"`

	// RequestTimeout bounds every outbound HTTP request.
	// Env: NOTESYNC_SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" json:"request_timeout"`
}

// Storage holds local persistence settings.
type Storage struct {
	// DBPath is the SQLite database file holding sync state, the change
	// queue, conflicts and metadata. Created on first start.
	// Env: NOTESYNC_STORAGE_DB_PATH
	DBPath string `env:"DB_PATH" json:"db_path"`

	// NotesDir is the directory holding note documents, one JSON file per
	// note. Only the daemon binary uses it; embedded callers provide their
	// own document store.
	// Env: NOTESYNC_STORAGE_NOTES_DIR
	NotesDir string `env:"NOTES_DIR" json:"notes_dir"`
}

// Engine groups the scheduling parameters of the sync engine.
type Engine struct {
	// Enabled switches synchronization on. When false the engine still
	// records local changes durably but never contacts the server.
	// Env: NOTESYNC_ENGINE_ENABLED
	Enabled bool `env:"ENABLED" json:"enabled"`

	// SyncInterval is the period of the background sync ticker while online.
	// Env: NOTESYNC_ENGINE_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL" json:"sync_interval"`

	// DebounceDelay is how long the engine coalesces rapid local edits
	// before firing an out-of-band sync cycle.
	// Env: NOTESYNC_ENGINE_DEBOUNCE_DELAY
	DebounceDelay time.Duration `env:"DEBOUNCE_DELAY" json:"debounce_delay"`

	// PushBatchSize bounds how many queued changes a single cycle pushes.
	// Env: NOTESYNC_ENGINE_PUSH_BATCH_SIZE
	PushBatchSize int `env:"PUSH_BATCH_SIZE" json:"push_batch_size"`

	// ProbeInterval is the period of the connectivity probe.
	// Env: NOTESYNC_ENGINE_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL" json:"probe_interval"`
}

// Defaults applied for fields left unset by every source.
const (
	DefaultSyncInterval   = 5 * time.Minute
	DefaultDebounceDelay  = 2 * time.Second
	DefaultPushBatchSize  = 50
	DefaultProbeInterval  = 30 * time.Second
	DefaultRequestTimeout = 15 * time.Second
)

// withDefaults fills zero-valued scheduling fields so that downstream code
// never has to special-case a zero interval.
func (c *Config) withDefaults() {
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = DefaultRequestTimeout
	}
	if c.Engine.SyncInterval <= 0 {
		c.Engine.SyncInterval = DefaultSyncInterval
	}
	if c.Engine.DebounceDelay <= 0 {
		c.Engine.DebounceDelay = DefaultDebounceDelay
	}
	if c.Engine.PushBatchSize <= 0 {
		c.Engine.PushBatchSize = DefaultPushBatchSize
	}
	if c.Engine.ProbeInterval <= 0 {
		c.Engine.ProbeInterval = DefaultProbeInterval
	}
}
