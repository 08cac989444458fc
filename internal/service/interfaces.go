package service

import (
	"context"

	"github.com/notablehq/notesync/models"
)

// DocumentStore is the boundary to the collaborator that owns note files.
// The engine never touches note storage directly: it reads snapshots for
// conflict records and writes snapshots when applying remote changes or
// resolutions.
type DocumentStore interface {
	ReadNote(ctx context.Context, id string) (models.Note, error)
	SaveNote(ctx context.Context, note models.Note) error
	DeleteNote(ctx context.Context, id string) error
}

// ChangeTracker records local note mutations into the durable outbound
// queue. It runs synchronously on the note-mutation path, before any network
// activity, so a crash right after a local save never loses the change. No
// retry or network logic lives here.
type ChangeTracker interface {
	// TrackChange computes the next local version, appends a queued change
	// carrying the note snapshot, and marks the note's sync state pending.
	// op must be create or update.
	TrackChange(ctx context.Context, note models.Note, op models.Operation) (models.QueuedChange, error)

	// TrackDelete appends a delete-typed change without a payload and marks
	// local state pending. Queued changes the deletion supersedes are
	// dropped; if the server never saw the note, nothing is queued at all
	// and the returned change has ID zero.
	TrackDelete(ctx context.Context, noteID string) (models.QueuedChange, error)

	// QueueDepth reports the number of changes waiting to be pushed.
	QueueDepth(ctx context.Context) (int, error)

	// PendingChanges returns the queue contents in push order.
	PendingChanges(ctx context.Context) ([]models.QueuedChange, error)
}

// RemoteState is what the server reports as current for one note when a
// divergence is being classified.
type RemoteState struct {
	Version     int64
	ContentHash string
	Deleted     bool
}

// ConflictResolver classifies divergences, stores structured conflict
// records, and applies caller-chosen resolutions to retire them. Conflicts
// are per-note: an unresolved conflict blocks only that note's sync state.
type ConflictResolver interface {
	// Detect returns the conflict classification for the given local state
	// against the server-reported remote state, or ok=false when the
	// divergence is a clean fast-forward (content agrees on one side).
	Detect(local models.SyncState, localDeleted bool, remote RemoteState) (models.ConflictType, bool)

	// Record stores the conflict and flips the note's sync state to
	// conflict. At most one record exists per note; a newer detection
	// replaces the older record.
	Record(ctx context.Context, conflict models.SyncConflict) error

	// Resolve retires the conflict for noteID: writes the chosen content
	// through the document store, re-queues it for push, marks the state
	// synced, and removes the conflict record.
	Resolve(ctx context.Context, noteID string, resolution models.Resolution) error

	// Conflicts lists all unresolved conflicts.
	Conflicts(ctx context.Context) ([]models.SyncConflict, error)
}

// SyncCoordinator executes sync cycles: one push phase draining the outbound
// queue, then one pull phase applying remote changes.
type SyncCoordinator interface {
	// RunCycle runs one push/pull cycle and reports how many changes moved
	// in each direction. Concurrent callers join the in-flight cycle and
	// receive its result instead of starting a second one.
	RunCycle(ctx context.Context) (models.SyncReport, error)

	// Syncing reports whether a cycle is currently in flight.
	Syncing() bool
}

// Engine is the public facade of the sync subsystem.
type Engine interface {
	// Initialize subscribes to network transitions and starts periodic
	// polling when sync is enabled. Safe to call once per engine.
	Initialize(ctx context.Context) error

	// Shutdown stops scheduling future cycles, unsubscribes from the network
	// monitor and waits for any in-flight cycle to finish naturally. It
	// never aborts a cycle mid-push.
	Shutdown()

	// QueueChange records a local create/update and schedules a debounced
	// sync when online.
	QueueChange(ctx context.Context, note models.Note, op models.Operation) error

	// QueueDelete records a local deletion and schedules a debounced sync
	// when online.
	QueueDelete(ctx context.Context, noteID string) error

	// TriggerSync runs one coordinator cycle immediately.
	TriggerSync(ctx context.Context) (models.SyncReport, error)

	// Conflicts lists unresolved conflicts.
	Conflicts(ctx context.Context) ([]models.SyncConflict, error)

	// ResolveConflict applies a resolution and schedules a push of the
	// chosen content.
	ResolveConflict(ctx context.Context, noteID string, resolution models.Resolution) error

	// Status derives the aggregate engine state.
	Status(ctx context.Context) models.EngineStatus

	// OnStatusChange registers a status listener and immediately invokes it
	// with the current status, so callers never need a separate initial
	// fetch. Returns an unsubscribe function.
	OnStatusChange(fn func(models.EngineStatus)) (unsubscribe func())
}
