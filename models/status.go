package models

// EngineStatus is the aggregate state of the sync engine as shown to
// callers and status subscribers.
type EngineStatus string

const (
	// EngineDisabled: synchronization is switched off in configuration.
	EngineDisabled EngineStatus = "disabled"

	// EngineOffline: the network monitor reports no connectivity.
	EngineOffline EngineStatus = "offline"

	// EngineSyncing: a sync cycle is currently in flight.
	EngineSyncing EngineStatus = "syncing"

	// EngineError: unresolved conflicts exist or the last cycle failed in a
	// way that needs user attention (e.g. bad credentials).
	EngineError EngineStatus = "error"

	// EngineIdle: online, no cycle running, nothing outstanding.
	EngineIdle EngineStatus = "idle"
)

// SyncReport summarises one completed sync cycle.
type SyncReport struct {
	// Pushed is the number of queued changes acknowledged by the server.
	Pushed int `json:"pushed"`

	// Pulled is the number of remote changes applied locally.
	Pulled int `json:"pulled"`
}
