package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/notablehq/notesync/internal/adapter"
	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/internal/store"
	"github.com/notablehq/notesync/internal/utils"
	"github.com/notablehq/notesync/models"
)

type syncCoordinator struct {
	storages  *store.Storages
	transport adapter.SyncTransport
	resolver  ConflictResolver
	docs      DocumentStore
	logger    *logger.Logger

	deviceID  string
	batchSize int

	group   singleflight.Group
	syncing atomic.Bool
	now     func() time.Time
}

// NewSyncCoordinator wires one coordinator for one device. batchSize bounds
// how many queued changes a single push phase sends.
func NewSyncCoordinator(
	storages *store.Storages,
	transport adapter.SyncTransport,
	resolver ConflictResolver,
	docs DocumentStore,
	deviceID string,
	batchSize int,
	logger *logger.Logger,
) SyncCoordinator {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &syncCoordinator{
		storages:  storages,
		transport: transport,
		resolver:  resolver,
		docs:      docs,
		deviceID:  deviceID,
		batchSize: batchSize,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (c *syncCoordinator) Syncing() bool {
	return c.syncing.Load()
}

// RunCycle executes one push/pull cycle. Callers arriving while a cycle is
// in flight join it via singleflight and receive the shared result. This is
// the single-slot work queue of the engine, not a queue of cycle requests.
func (c *syncCoordinator) RunCycle(ctx context.Context) (models.SyncReport, error) {
	v, err, _ := c.group.Do("cycle", func() (any, error) {
		return c.runCycle(ctx)
	})

	report, _ := v.(models.SyncReport)
	return report, err
}

// runCycle drives the per-cycle state machine: idle → pushing → pulling →
// idle, or → idle(error) on transport failure.
func (c *syncCoordinator) runCycle(ctx context.Context) (models.SyncReport, error) {
	c.syncing.Store(true)
	defer c.syncing.Store(false)

	log := logger.FromContext(ctx)
	var report models.SyncReport

	pushed, err := c.pushPhase(ctx)
	report.Pushed = pushed
	if err != nil {
		return report, fmt.Errorf("push phase: %w", err)
	}

	pulled, err := c.pullPhase(ctx)
	report.Pulled = pulled
	if err != nil {
		return report, fmt.Errorf("pull phase: %w", err)
	}

	log.Debug().
		Str("func", "syncCoordinator.runCycle").
		Int("pushed", report.Pushed).
		Int("pulled", report.Pulled).
		Msg("sync cycle completed")

	return report, nil
}

func (c *syncCoordinator) pushPhase(ctx context.Context) (int, error) {
	changes, err := c.storages.Queue.List(ctx, c.batchSize)
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		return 0, nil
	}

	// Notes with an unresolved conflict are blocked until the caller
	// resolves them; everything else keeps syncing.
	blocked, err := c.blockedNotes(ctx)
	if err != nil {
		return 0, err
	}

	included := make([]models.QueuedChange, 0, len(changes))
	batch := make([]models.PushChange, 0, len(changes))
	for _, ch := range changes {
		if blocked[ch.NoteID] {
			continue
		}
		included = append(included, ch)
		batch = append(batch, models.PushChange{
			NoteID:    ch.NoteID,
			Operation: ch.Operation,
			Version:   ch.Version,
			Payload:   ch.Payload,
		})
	}
	if len(included) == 0 {
		return 0, nil
	}

	resp, err := c.transport.Push(ctx, models.PushRequest{
		DeviceID: c.deviceID,
		Changes:  batch,
	})
	if err != nil {
		// The whole batch stays queued; record the attempt on every entry so
		// callers can see retry counts and the last failure.
		for _, ch := range included {
			if markErr := c.storages.Queue.MarkAttempt(ctx, ch.ID, err.Error()); markErr != nil {
				c.logger.Err(markErr).
					Str("func", "syncCoordinator.pushPhase").
					Int64("change_id", ch.ID).
					Msg("failed to record push attempt")
			}
		}
		return 0, err
	}

	results := make(map[string][]models.PushResult, len(resp.Results))
	for _, res := range resp.Results {
		results[res.NoteID] = append(results[res.NoteID], res)
	}

	pushed := 0
	for _, ch := range included {
		if blocked[ch.NoteID] {
			// An earlier change for this note hit a conflict; later changes
			// must not be pushed out of order ahead of it.
			continue
		}

		queue := results[ch.NoteID]
		if len(queue) == 0 {
			continue
		}
		res := queue[0]
		results[ch.NoteID] = queue[1:]

		switch res.Outcome {
		case models.PushAccepted:
			if err = c.applyAck(ctx, ch, res); err != nil {
				return pushed, err
			}
			pushed++

		case models.PushConflict:
			retired, cErr := c.handlePushConflict(ctx, ch, res)
			if cErr != nil {
				return pushed, cErr
			}
			if retired {
				pushed++
			} else {
				blocked[ch.NoteID] = true
			}
		}
	}

	return pushed, nil
}

// applyAck records a server acknowledgement: sync state advances to the
// acknowledged version and the queued change is retired.
func (c *syncCoordinator) applyAck(ctx context.Context, ch models.QueuedChange, res models.PushResult) error {
	if ch.Operation == models.OperationDelete {
		// Deletion acknowledged: the note is permanently gone on both sides,
		// so its sync state record is retired too.
		if err := c.storages.SyncState.Delete(ctx, ch.NoteID); err != nil {
			return err
		}
		return c.storages.Queue.Remove(ctx, ch.ID)
	}

	state, err := c.loadOrInitState(ctx, ch.NoteID)
	if err != nil {
		return err
	}

	serverVersion := res.ServerVersion
	state.ServerVersion = &serverVersion
	state.ContentHash = res.ContentHash
	now := c.now()
	state.LastSyncedAt = &now
	if ch.Version >= state.LocalVersion {
		// This ack covers the newest local edit; anything tracked mid-cycle
		// keeps the state pending.
		state.Status = models.StatusSynced
	}

	if err = c.storages.SyncState.Save(ctx, state); err != nil {
		return err
	}

	return c.storages.Queue.Remove(ctx, ch.ID)
}

// handlePushConflict routes a conflict indicator through the resolver. When
// detection says the divergence is a clean fast-forward (identical content),
// the queued change is retired and the server version adopted; otherwise the
// conflict is recorded and the change stays queued until resolution.
func (c *syncCoordinator) handlePushConflict(ctx context.Context, ch models.QueuedChange, res models.PushResult) (retired bool, err error) {
	state, err := c.loadOrInitState(ctx, ch.NoteID)
	if err != nil {
		return false, err
	}

	localDeleted := ch.Operation == models.OperationDelete
	remote := RemoteState{
		Version: res.RemoteVersion,
		Deleted: res.RemoteDeleted,
	}
	if res.RemoteNote != nil {
		remote.ContentHash = utils.HashContent(res.RemoteNote.Content)
	}

	conflictType, ok := c.resolver.Detect(state, localDeleted, remote)
	if !ok {
		remoteVersion := res.RemoteVersion
		state.ServerVersion = &remoteVersion
		now := c.now()
		state.LastSyncedAt = &now
		if ch.Version >= state.LocalVersion {
			state.Status = models.StatusSynced
		}
		if err = c.storages.SyncState.Save(ctx, state); err != nil {
			return false, err
		}
		if err = c.storages.Queue.Remove(ctx, ch.ID); err != nil {
			return false, err
		}
		return true, nil
	}

	conflict := models.SyncConflict{
		NoteID:        ch.NoteID,
		LocalNote:     c.localSnapshot(ctx, ch),
		RemoteNote:    res.RemoteNote,
		LocalVersion:  state.LocalVersion,
		RemoteVersion: res.RemoteVersion,
		DetectedAt:    c.now(),
		Type:          conflictType,
	}

	// The queued change stays in place: it is retried after manual
	// resolution rewrites the queue.
	return false, c.resolver.Record(ctx, conflict)
}

func (c *syncCoordinator) pullPhase(ctx context.Context) (int, error) {
	since, err := c.lastSequence(ctx)
	if err != nil {
		return 0, err
	}

	resp, err := c.transport.Pull(ctx, since)
	if err != nil {
		return 0, err
	}

	pulled := 0
	for _, rc := range resp.Changes {
		if rc.DeviceID == c.deviceID {
			// Our own change echoed back through the stream.
			continue
		}

		applied, aErr := c.applyRemote(ctx, rc)
		if aErr != nil {
			return pulled, aErr
		}
		if applied {
			pulled++
		}
	}

	if resp.NextSequence > since {
		if err = c.storages.Metadata.Set(ctx, store.MetaKeyLastSyncSequence,
			strconv.FormatInt(resp.NextSequence, 10)); err != nil {
			return pulled, err
		}
	}

	return pulled, nil
}

// applyRemote applies one remote change to local state, unless a divergent
// local pending change exists, in which case a conflict is recorded instead.
func (c *syncCoordinator) applyRemote(ctx context.Context, rc models.RemoteChange) (bool, error) {
	state, err := c.loadOrInitState(ctx, rc.NoteID)
	if err != nil {
		return false, err
	}

	if state.Status == models.StatusConflict {
		// Already conflicted; the recorded conflict keeps the freshest known
		// remote version once resolved.
		return false, nil
	}

	pending, err := c.storages.Queue.ListForNote(ctx, rc.NoteID)
	if err != nil {
		return false, err
	}

	if len(pending) > 0 {
		return false, c.reconcilePending(ctx, state, pending, rc)
	}

	// No local pending changes: the remote change applies cleanly.
	if rc.Operation == models.OperationDelete {
		if err = c.docs.DeleteNote(ctx, rc.NoteID); err != nil {
			return false, fmt.Errorf("apply remote delete %s: %w", rc.NoteID, err)
		}
		if err = c.storages.SyncState.Delete(ctx, rc.NoteID); err != nil {
			return false, err
		}
		return true, nil
	}

	if rc.Note == nil {
		return false, fmt.Errorf("remote change for %s carries no snapshot", rc.NoteID)
	}
	if err = c.docs.SaveNote(ctx, *rc.Note); err != nil {
		return false, fmt.Errorf("apply remote change %s: %w", rc.NoteID, err)
	}

	remoteVersion := rc.Version
	state.ServerVersion = &remoteVersion
	state.ContentHash = rc.ContentHash
	if state.ContentHash == "" {
		state.ContentHash = utils.HashContent(rc.Note.Content)
	}
	if state.LocalVersion < rc.Version {
		state.LocalVersion = rc.Version
	}
	now := c.now()
	state.LastSyncedAt = &now
	state.Status = models.StatusSynced

	return true, c.storages.SyncState.Save(ctx, state)
}

// reconcilePending decides between fast-forward and conflict when a remote
// change lands on a note with queued local changes.
func (c *syncCoordinator) reconcilePending(ctx context.Context, state models.SyncState, pending []models.QueuedChange, rc models.RemoteChange) error {
	last := pending[len(pending)-1]
	localDeleted := last.Operation == models.OperationDelete

	remote := RemoteState{
		Version:     rc.Version,
		ContentHash: rc.ContentHash,
		Deleted:     rc.Operation == models.OperationDelete,
	}
	if remote.ContentHash == "" && rc.Note != nil {
		remote.ContentHash = utils.HashContent(rc.Note.Content)
	}

	conflictType, ok := c.resolver.Detect(state, localDeleted, remote)
	if !ok {
		// Same content on both sides; just adopt the server version so the
		// pending push fast-forwards.
		remoteVersion := rc.Version
		state.ServerVersion = &remoteVersion
		return c.storages.SyncState.Save(ctx, state)
	}

	conflict := models.SyncConflict{
		NoteID:        rc.NoteID,
		LocalNote:     c.localSnapshot(ctx, last),
		RemoteNote:    rc.Note,
		LocalVersion:  state.LocalVersion,
		RemoteVersion: rc.Version,
		DetectedAt:    c.now(),
		Type:          conflictType,
	}

	return c.resolver.Record(ctx, conflict)
}

// localSnapshot recovers the local side of a conflict: the live note from
// the document store when available, else the snapshot captured at queue
// time. Nil for deletions.
func (c *syncCoordinator) localSnapshot(ctx context.Context, ch models.QueuedChange) *models.Note {
	if ch.Operation == models.OperationDelete {
		return nil
	}

	if note, err := c.docs.ReadNote(ctx, ch.NoteID); err == nil {
		return &note
	}

	if len(ch.Payload) > 0 {
		note := &models.Note{}
		if err := json.Unmarshal(ch.Payload, note); err == nil {
			return note
		}
	}

	return nil
}

func (c *syncCoordinator) lastSequence(ctx context.Context) (int64, error) {
	raw, err := c.storages.Metadata.Get(ctx, store.MetaKeyLastSyncSequence)
	if errors.Is(err, store.ErrMetadataNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	seq, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt %s metadata %q: %w", store.MetaKeyLastSyncSequence, raw, err)
	}
	return seq, nil
}

func (c *syncCoordinator) blockedNotes(ctx context.Context) (map[string]bool, error) {
	conflicts, err := c.storages.Conflicts.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	blocked := make(map[string]bool, len(conflicts))
	for _, conflict := range conflicts {
		blocked[conflict.NoteID] = true
	}
	return blocked, nil
}

func (c *syncCoordinator) loadOrInitState(ctx context.Context, noteID string) (models.SyncState, error) {
	state, err := c.storages.SyncState.Get(ctx, noteID)
	if errors.Is(err, store.ErrSyncStateNotFound) {
		return models.SyncState{NoteID: noteID}, nil
	}
	if err != nil {
		return models.SyncState{}, err
	}
	return state, nil
}
