package models

import "time"

// SyncStatus describes where a single note stands relative to the server.
type SyncStatus string

const (
	// StatusPending marks a note with local changes not yet acknowledged by
	// the server.
	StatusPending SyncStatus = "pending"

	// StatusSynced marks a note whose last known content is acknowledged by
	// the server; ServerVersion is always set in this state.
	StatusSynced SyncStatus = "synced"

	// StatusConflict marks a note whose local and remote versions diverged
	// incompatibly. Exactly one SyncConflict record exists for it.
	StatusConflict SyncStatus = "conflict"
)

// SyncState is the per-note synchronization record, keyed by note id.
//
// LocalVersion increases monotonically on every local save. ServerVersion is
// the last version acknowledged by the server (nil before the first
// successful push). ContentHash fingerprints the last-known-synced content
// and is used to tell a real divergence from a no-op.
type SyncState struct {
	NoteID        string     `json:"note_id"`
	LocalVersion  int64      `json:"local_version"`
	ServerVersion *int64     `json:"server_version,omitempty"`
	ContentHash   string     `json:"content_hash"`
	LastSyncedAt  *time.Time `json:"last_synced_at,omitempty"`
	Status        SyncStatus `json:"status"`
}
