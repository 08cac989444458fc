package models

import "time"

// ConflictType classifies how the two sides of a conflict diverged.
type ConflictType string

const (
	// ConflictEdit means both sides modified the note.
	ConflictEdit ConflictType = "edit"

	// ConflictDeleteEdit means the remote side deleted the note while the
	// local side modified it.
	ConflictDeleteEdit ConflictType = "delete-edit"

	// ConflictEditDelete means the local side deleted the note while the
	// remote side modified it.
	ConflictEditDelete ConflictType = "edit-delete"
)

// SyncConflict is the durable record of one detected divergence. At most one
// conflict exists per note at a time; the note's SyncState stays at
// StatusConflict until the record is retired via a Resolution.
type SyncConflict struct {
	NoteID        string       `json:"note_id"`
	LocalNote     *Note        `json:"local_note,omitempty"`
	RemoteNote    *Note        `json:"remote_note,omitempty"`
	LocalVersion  int64        `json:"local_version"`
	RemoteVersion int64        `json:"remote_version"`
	DetectedAt    time.Time    `json:"detected_at"`
	Type          ConflictType `json:"type"`
}

// ResolutionStrategy names the caller-chosen way to retire a conflict.
type ResolutionStrategy string

const (
	ResolutionKeepLocal   ResolutionStrategy = "keep-local"
	ResolutionKeepRemote  ResolutionStrategy = "keep-remote"
	ResolutionMergeManual ResolutionStrategy = "merge-manual"
)

// Resolution carries the chosen strategy for retiring a conflict. Merged is
// consulted only for ResolutionMergeManual and holds the caller-merged note
// content.
type Resolution struct {
	Strategy ResolutionStrategy `json:"strategy"`
	Merged   *Note              `json:"merged,omitempty"`
}
