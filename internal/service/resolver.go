package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/internal/store"
	"github.com/notablehq/notesync/internal/utils"
	"github.com/notablehq/notesync/models"
)

type conflictResolver struct {
	storages *store.Storages
	docs     DocumentStore
	logger   *logger.Logger
	now      func() time.Time
}

func NewConflictResolver(storages *store.Storages, docs DocumentStore, logger *logger.Logger) ConflictResolver {
	return &conflictResolver{
		storages: storages,
		docs:     docs,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Detect applies the divergence rule: a conflict exists when the server has
// moved past the version the local state last acknowledged AND the content
// fingerprints differ. Hash agreement on either side means only one side
// actually changed: a clean fast-forward, not a conflict.
func (r *conflictResolver) Detect(local models.SyncState, localDeleted bool, remote RemoteState) (models.ConflictType, bool) {
	remoteUnchanged := local.ServerVersion != nil && remote.Version == *local.ServerVersion

	switch {
	case localDeleted && remote.Deleted:
		// Both sides agree the note is gone.
		return "", false

	case localDeleted:
		if remoteUnchanged {
			// Server still holds the version we deleted from; the delete
			// pushes cleanly.
			return "", false
		}
		return models.ConflictEditDelete, true

	case remote.Deleted:
		if local.Status != models.StatusPending {
			// No local edits since the last sync; the remote deletion
			// applies cleanly.
			return "", false
		}
		return models.ConflictDeleteEdit, true
	}

	// Both sides live.
	if remoteUnchanged {
		return "", false
	}
	if local.ContentHash != "" && local.ContentHash == remote.ContentHash {
		// Version numbers diverged but the content did not.
		return "", false
	}
	return models.ConflictEdit, true
}

func (r *conflictResolver) Record(ctx context.Context, conflict models.SyncConflict) error {
	log := logger.FromContext(ctx)

	if conflict.DetectedAt.IsZero() {
		conflict.DetectedAt = r.now()
	}

	if err := r.storages.Conflicts.Save(ctx, conflict); err != nil {
		return err
	}

	state, err := r.storages.SyncState.Get(ctx, conflict.NoteID)
	if errors.Is(err, store.ErrSyncStateNotFound) {
		state = models.SyncState{NoteID: conflict.NoteID, LocalVersion: conflict.LocalVersion}
	} else if err != nil {
		return err
	}

	state.Status = models.StatusConflict
	if err = r.storages.SyncState.Save(ctx, state); err != nil {
		return err
	}

	log.Warn().
		Str("func", "conflictResolver.Record").
		Str("note_id", conflict.NoteID).
		Str("type", string(conflict.Type)).
		Int64("local_version", conflict.LocalVersion).
		Int64("remote_version", conflict.RemoteVersion).
		Msg("recorded sync conflict")

	return nil
}

func (r *conflictResolver) Resolve(ctx context.Context, noteID string, resolution models.Resolution) error {
	log := logger.FromContext(ctx)

	conflict, err := r.storages.Conflicts.Get(ctx, noteID)
	if err != nil {
		return err
	}

	var chosen *models.Note
	switch resolution.Strategy {
	case models.ResolutionKeepLocal:
		chosen = conflict.LocalNote
	case models.ResolutionKeepRemote:
		chosen = conflict.RemoteNote
	case models.ResolutionMergeManual:
		if resolution.Merged == nil {
			return ErrNoMergedContent
		}
		chosen = resolution.Merged
	default:
		return fmt.Errorf("strategy %q: %w", resolution.Strategy, ErrUnknownResolution)
	}

	state, err := r.storages.SyncState.Get(ctx, noteID)
	if errors.Is(err, store.ErrSyncStateNotFound) {
		state = models.SyncState{NoteID: noteID, LocalVersion: conflict.LocalVersion}
	} else if err != nil {
		return err
	}

	state.LocalVersion++
	remoteVersion := conflict.RemoteVersion
	state.ServerVersion = &remoteVersion
	now := r.now()
	state.LastSyncedAt = &now
	state.Status = models.StatusSynced

	// The resolution replaces whatever was queued for this note; the chosen
	// content is re-queued so the next cycle propagates it to the server.
	if err = r.storages.Queue.RemoveForNote(ctx, noteID); err != nil {
		return err
	}

	if chosen == nil {
		// The kept side is a deletion.
		if err = r.docs.DeleteNote(ctx, noteID); err != nil {
			return fmt.Errorf("delete note %s for resolution: %w", noteID, err)
		}
		state.ContentHash = ""
		if _, err = r.storages.Queue.Append(ctx, models.QueuedChange{
			NoteID:    noteID,
			Operation: models.OperationDelete,
			Version:   state.LocalVersion,
		}); err != nil {
			return err
		}
	} else {
		note := *chosen
		note.ID = noteID
		if err = r.docs.SaveNote(ctx, note); err != nil {
			return fmt.Errorf("save note %s for resolution: %w", noteID, err)
		}
		state.ContentHash = utils.HashContent(note.Content)

		payload, mErr := json.Marshal(note)
		if mErr != nil {
			return fmt.Errorf("encode resolved note %s: %w", noteID, mErr)
		}
		if _, err = r.storages.Queue.Append(ctx, models.QueuedChange{
			NoteID:    noteID,
			Operation: models.OperationUpdate,
			Version:   state.LocalVersion,
			Payload:   payload,
		}); err != nil {
			return err
		}
	}

	if err = r.storages.SyncState.Save(ctx, state); err != nil {
		return err
	}

	if err = r.storages.Conflicts.Delete(ctx, noteID); err != nil {
		return err
	}

	log.Info().
		Str("func", "conflictResolver.Resolve").
		Str("note_id", noteID).
		Str("strategy", string(resolution.Strategy)).
		Msg("resolved sync conflict")

	return nil
}

func (r *conflictResolver) Conflicts(ctx context.Context) ([]models.SyncConflict, error) {
	return r.storages.Conflicts.GetAll(ctx)
}
