package store

import (
	"context"

	"github.com/notablehq/notesync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// SyncStateRepository owns the per-note sync state table.
type SyncStateRepository interface {
	// Get returns the sync state for noteID. Returns ErrSyncStateNotFound
	// (wrapped) when the note has no record.
	Get(ctx context.Context, noteID string) (models.SyncState, error)

	// GetAll returns sync states for every tracked note, in no particular
	// order.
	GetAll(ctx context.Context) ([]models.SyncState, error)

	// Save inserts or replaces the state record keyed by state.NoteID.
	Save(ctx context.Context, state models.SyncState) error

	// Delete removes the state record. Deleting an absent record is a no-op.
	Delete(ctx context.Context, noteID string) error
}

// ChangeQueueRepository owns the durable outbound change queue. Entries are
// FIFO-ordered by their auto-assigned id.
type ChangeQueueRepository interface {
	// Append adds change to the tail of the queue and returns the assigned
	// sequence id.
	Append(ctx context.Context, change models.QueuedChange) (int64, error)

	// List returns up to limit entries in insertion order. limit <= 0 means
	// no bound.
	List(ctx context.Context, limit int) ([]models.QueuedChange, error)

	// ListForNote returns the queued entries for one note in insertion order.
	ListForNote(ctx context.Context, noteID string) ([]models.QueuedChange, error)

	// MarkAttempt increments the retry counter of the entry and records the
	// failure message and attempt time.
	MarkAttempt(ctx context.Context, id int64, errMsg string) error

	// Remove deletes the entries with the given ids. Unknown ids are ignored.
	Remove(ctx context.Context, ids ...int64) error

	// RemoveForNote deletes every queued entry for the given note. Used when
	// later local operations supersede earlier queued ones.
	RemoveForNote(ctx context.Context, noteID string) error

	// Depth returns the number of entries currently queued.
	Depth(ctx context.Context) (int, error)
}

// ConflictRepository owns the detected-conflict table, keyed by note id.
// At most one conflict exists per note; Save replaces any previous record.
type ConflictRepository interface {
	Save(ctx context.Context, conflict models.SyncConflict) error

	// Get returns the conflict recorded for noteID. Returns
	// ErrConflictNotFound (wrapped) when none exists.
	Get(ctx context.Context, noteID string) (models.SyncConflict, error)

	GetAll(ctx context.Context) ([]models.SyncConflict, error)

	// Delete removes the conflict record. Deleting an absent record is a
	// no-op.
	Delete(ctx context.Context, noteID string) error

	// Count returns the number of unresolved conflicts.
	Count(ctx context.Context) (int, error)
}

// MetadataRepository owns the open-ended key→value table holding scalars
// such as the pull cursor and the device identity.
type MetadataRepository interface {
	// Get returns the value stored for key. Returns ErrMetadataNotFound
	// (wrapped) when the key has never been set.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error

	// EnsureDeviceID returns the persisted device identity, generating and
	// storing one on first call.
	EnsureDeviceID(ctx context.Context) (string, error)
}
