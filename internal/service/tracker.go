package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/internal/store"
	"github.com/notablehq/notesync/models"
)

type changeTracker struct {
	storages *store.Storages
	logger   *logger.Logger
}

func NewChangeTracker(storages *store.Storages, logger *logger.Logger) ChangeTracker {
	return &changeTracker{
		storages: storages,
		logger:   logger,
	}
}

func (t *changeTracker) TrackChange(ctx context.Context, note models.Note, op models.Operation) (models.QueuedChange, error) {
	log := logger.FromContext(ctx)

	if op != models.OperationCreate && op != models.OperationUpdate {
		return models.QueuedChange{}, fmt.Errorf("operation %q: %w", op, ErrUnknownOperation)
	}

	state, err := t.loadOrInitState(ctx, note.ID)
	if err != nil {
		return models.QueuedChange{}, err
	}

	payload, err := json.Marshal(note)
	if err != nil {
		return models.QueuedChange{}, fmt.Errorf("encode note snapshot (note_id=%s): %w", note.ID, err)
	}

	state.LocalVersion++
	change := models.QueuedChange{
		NoteID:    note.ID,
		Operation: op,
		Version:   state.LocalVersion,
		Payload:   payload,
	}

	// Queue first, state second: a crash between the two leaves a queued
	// change with a stale state record, which the next push reconciles. The
	// reverse order could lose the change entirely.
	change.ID, err = t.storages.Queue.Append(ctx, change)
	if err != nil {
		return models.QueuedChange{}, err
	}

	state.Status = models.StatusPending
	if err = t.storages.SyncState.Save(ctx, state); err != nil {
		return models.QueuedChange{}, err
	}

	log.Debug().
		Str("func", "changeTracker.TrackChange").
		Str("note_id", note.ID).
		Str("operation", string(op)).
		Int64("version", state.LocalVersion).
		Msg("tracked local change")

	return change, nil
}

func (t *changeTracker) TrackDelete(ctx context.Context, noteID string) (models.QueuedChange, error) {
	log := logger.FromContext(ctx)

	state, err := t.loadOrInitState(ctx, noteID)
	if err != nil {
		return models.QueuedChange{}, err
	}

	// The deletion supersedes anything still queued for this note.
	if err = t.storages.Queue.RemoveForNote(ctx, noteID); err != nil {
		return models.QueuedChange{}, err
	}

	if state.ServerVersion == nil {
		// Created and deleted locally before the first sync: the server
		// never knew about the note, so there is nothing to push and the
		// state record can be retired immediately.
		if err = t.storages.SyncState.Delete(ctx, noteID); err != nil {
			return models.QueuedChange{}, err
		}
		log.Debug().
			Str("func", "changeTracker.TrackDelete").
			Str("note_id", noteID).
			Msg("delete superseded unsynced note, nothing queued")
		return models.QueuedChange{}, nil
	}

	state.LocalVersion++
	change := models.QueuedChange{
		NoteID:    noteID,
		Operation: models.OperationDelete,
		Version:   state.LocalVersion,
	}

	change.ID, err = t.storages.Queue.Append(ctx, change)
	if err != nil {
		return models.QueuedChange{}, err
	}

	state.Status = models.StatusPending
	if err = t.storages.SyncState.Save(ctx, state); err != nil {
		return models.QueuedChange{}, err
	}

	log.Debug().
		Str("func", "changeTracker.TrackDelete").
		Str("note_id", noteID).
		Int64("version", state.LocalVersion).
		Msg("tracked local delete")

	return change, nil
}

func (t *changeTracker) QueueDepth(ctx context.Context) (int, error) {
	return t.storages.Queue.Depth(ctx)
}

func (t *changeTracker) PendingChanges(ctx context.Context) ([]models.QueuedChange, error) {
	return t.storages.Queue.List(ctx, 0)
}

func (t *changeTracker) loadOrInitState(ctx context.Context, noteID string) (models.SyncState, error) {
	state, err := t.storages.SyncState.Get(ctx, noteID)
	if errors.Is(err, store.ErrSyncStateNotFound) {
		return models.SyncState{NoteID: noteID}, nil
	}
	if err != nil {
		return models.SyncState{}, err
	}
	return state, nil
}
