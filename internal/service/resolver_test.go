package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/internal/store"
	"github.com/notablehq/notesync/internal/utils"
	"github.com/notablehq/notesync/models"
)

func newTestResolver(t *testing.T) (ConflictResolver, *store.Storages, *memDocs) {
	t.Helper()

	storages := newTestStorages(t)
	docs := newMemDocs()
	return NewConflictResolver(storages, docs, logger.Nop()), storages, docs
}

// ── Detect ───────────────────────────────────────────────────────────────────

func TestResolver_Detect(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	hashA := utils.HashContent("side a")
	hashB := utils.HashContent("side b")

	tests := []struct {
		name         string
		local        models.SyncState
		localDeleted bool
		remote       RemoteState
		wantType     models.ConflictType
		wantConflict bool
	}{
		{
			name:         "both edited with different content",
			local:        models.SyncState{ServerVersion: int64Ptr(3), ContentHash: hashA, Status: models.StatusPending},
			remote:       RemoteState{Version: 5, ContentHash: hashB},
			wantType:     models.ConflictEdit,
			wantConflict: true,
		},
		{
			name:         "versions diverged but content identical",
			local:        models.SyncState{ServerVersion: int64Ptr(3), ContentHash: hashA, Status: models.StatusPending},
			remote:       RemoteState{Version: 5, ContentHash: hashA},
			wantConflict: false,
		},
		{
			name:         "remote unchanged since last sync",
			local:        models.SyncState{ServerVersion: int64Ptr(3), ContentHash: hashA, Status: models.StatusPending},
			remote:       RemoteState{Version: 3, ContentHash: hashA},
			wantConflict: false,
		},
		{
			name:         "never synced note meets remote content",
			local:        models.SyncState{Status: models.StatusPending},
			remote:       RemoteState{Version: 2, ContentHash: hashB},
			wantType:     models.ConflictEdit,
			wantConflict: true,
		},
		{
			name:         "both sides deleted",
			local:        models.SyncState{ServerVersion: int64Ptr(3), Status: models.StatusPending},
			localDeleted: true,
			remote:       RemoteState{Version: 5, Deleted: true},
			wantConflict: false,
		},
		{
			name:         "local delete against unchanged remote",
			local:        models.SyncState{ServerVersion: int64Ptr(3), Status: models.StatusPending},
			localDeleted: true,
			remote:       RemoteState{Version: 3, ContentHash: hashA},
			wantConflict: false,
		},
		{
			name:         "local delete against remote edit",
			local:        models.SyncState{ServerVersion: int64Ptr(3), Status: models.StatusPending},
			localDeleted: true,
			remote:       RemoteState{Version: 5, ContentHash: hashB},
			wantType:     models.ConflictEditDelete,
			wantConflict: true,
		},
		{
			name:         "remote delete against local edit",
			local:        models.SyncState{ServerVersion: int64Ptr(3), ContentHash: hashA, Status: models.StatusPending},
			remote:       RemoteState{Version: 5, Deleted: true},
			wantType:     models.ConflictDeleteEdit,
			wantConflict: true,
		},
		{
			name:         "remote delete with no local edits",
			local:        models.SyncState{ServerVersion: int64Ptr(3), ContentHash: hashA, Status: models.StatusSynced},
			remote:       RemoteState{Version: 5, Deleted: true},
			wantConflict: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflictType, ok := resolver.Detect(tt.local, tt.localDeleted, tt.remote)
			assert.Equal(t, tt.wantConflict, ok)
			if tt.wantConflict {
				assert.Equal(t, tt.wantType, conflictType)
			}
		})
	}
}

// ── Record ───────────────────────────────────────────────────────────────────

func TestResolver_Record(t *testing.T) {
	resolver, storages, _ := newTestResolver(t)
	ctx := context.Background()

	require.NoError(t, storages.SyncState.Save(ctx, models.SyncState{
		NoteID: "n1", LocalVersion: 3, Status: models.StatusPending,
	}))

	err := resolver.Record(ctx, models.SyncConflict{
		NoteID:        "n1",
		LocalNote:     &models.Note{ID: "n1", Content: "local"},
		RemoteNote:    &models.Note{ID: "n1", Content: "remote"},
		LocalVersion:  3,
		RemoteVersion: 5,
		Type:          models.ConflictEdit,
	})
	require.NoError(t, err)

	state, err := storages.SyncState.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, state.Status)

	saved, err := storages.Conflicts.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictEdit, saved.Type)
	assert.False(t, saved.DetectedAt.IsZero(), "detection time is stamped when missing")
}

// ── Resolve ──────────────────────────────────────────────────────────────────

func recordTestConflict(t *testing.T, resolver ConflictResolver, storages *store.Storages) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, storages.SyncState.Save(ctx, models.SyncState{
		NoteID:        "n1",
		LocalVersion:  3,
		ServerVersion: int64Ptr(2),
		Status:        models.StatusPending,
	}))
	require.NoError(t, resolver.Record(ctx, models.SyncConflict{
		NoteID:        "n1",
		LocalNote:     &models.Note{ID: "n1", Content: "local wins"},
		RemoteNote:    &models.Note{ID: "n1", Content: "remote wins"},
		LocalVersion:  3,
		RemoteVersion: 5,
		DetectedAt:    time.Now().UTC(),
		Type:          models.ConflictEdit,
	}))
}

func TestResolver_Resolve_KeepLocal(t *testing.T) {
	resolver, storages, docs := newTestResolver(t)
	ctx := context.Background()
	recordTestConflict(t, resolver, storages)

	err := resolver.Resolve(ctx, "n1", models.Resolution{Strategy: models.ResolutionKeepLocal})
	require.NoError(t, err)

	note, ok := docs.get("n1")
	require.True(t, ok)
	assert.Equal(t, "local wins", note.Content)

	state, err := storages.SyncState.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, state.Status)
	assert.Equal(t, int64(4), state.LocalVersion)
	require.NotNil(t, state.ServerVersion)
	assert.Equal(t, int64(5), *state.ServerVersion)
	assert.Equal(t, utils.HashContent("local wins"), state.ContentHash)

	// The chosen content is re-queued for the next push.
	pending, err := storages.Queue.ListForNote(ctx, "n1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.OperationUpdate, pending[0].Operation)
	assert.Equal(t, int64(4), pending[0].Version)

	_, err = storages.Conflicts.Get(ctx, "n1")
	assert.ErrorIs(t, err, store.ErrConflictNotFound)
}

func TestResolver_Resolve_KeepRemote(t *testing.T) {
	resolver, storages, docs := newTestResolver(t)
	ctx := context.Background()
	recordTestConflict(t, resolver, storages)

	err := resolver.Resolve(ctx, "n1", models.Resolution{Strategy: models.ResolutionKeepRemote})
	require.NoError(t, err)

	note, ok := docs.get("n1")
	require.True(t, ok)
	assert.Equal(t, "remote wins", note.Content)
}

func TestResolver_Resolve_KeepRemoteDeletion(t *testing.T) {
	// delete-edit conflict resolved in the remote's favour removes the note.
	resolver, storages, docs := newTestResolver(t)
	ctx := context.Background()

	docs.put(models.Note{ID: "n1", Content: "doomed"})
	require.NoError(t, storages.SyncState.Save(ctx, models.SyncState{
		NoteID: "n1", LocalVersion: 3, ServerVersion: int64Ptr(2), Status: models.StatusPending,
	}))
	require.NoError(t, resolver.Record(ctx, models.SyncConflict{
		NoteID:        "n1",
		LocalNote:     &models.Note{ID: "n1", Content: "doomed"},
		RemoteNote:    nil, // remote side is a deletion
		LocalVersion:  3,
		RemoteVersion: 5,
		Type:          models.ConflictDeleteEdit,
	}))

	err := resolver.Resolve(ctx, "n1", models.Resolution{Strategy: models.ResolutionKeepRemote})
	require.NoError(t, err)

	_, ok := docs.get("n1")
	assert.False(t, ok, "note must be deleted locally")

	pending, err := storages.Queue.ListForNote(ctx, "n1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.OperationDelete, pending[0].Operation)
}

func TestResolver_Resolve_MergeManual(t *testing.T) {
	resolver, storages, docs := newTestResolver(t)
	ctx := context.Background()
	recordTestConflict(t, resolver, storages)

	merged := &models.Note{Title: "merged", Content: "both sides"}
	err := resolver.Resolve(ctx, "n1", models.Resolution{
		Strategy: models.ResolutionMergeManual,
		Merged:   merged,
	})
	require.NoError(t, err)

	note, ok := docs.get("n1")
	require.True(t, ok)
	assert.Equal(t, "n1", note.ID, "merged note inherits the conflicted note id")
	assert.Equal(t, "both sides", note.Content)
}

func TestResolver_Resolve_MergeManualRequiresContent(t *testing.T) {
	resolver, storages, _ := newTestResolver(t)
	recordTestConflict(t, resolver, storages)

	err := resolver.Resolve(context.Background(), "n1", models.Resolution{
		Strategy: models.ResolutionMergeManual,
	})
	assert.ErrorIs(t, err, ErrNoMergedContent)
}

func TestResolver_Resolve_UnknownStrategy(t *testing.T) {
	resolver, storages, _ := newTestResolver(t)
	recordTestConflict(t, resolver, storages)

	err := resolver.Resolve(context.Background(), "n1", models.Resolution{Strategy: "coin-flip"})
	assert.ErrorIs(t, err, ErrUnknownResolution)
}

func TestResolver_Resolve_NoConflict(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	err := resolver.Resolve(context.Background(), "ghost", models.Resolution{
		Strategy: models.ResolutionKeepLocal,
	})
	assert.ErrorIs(t, err, store.ErrConflictNotFound)
}

func TestResolver_Conflicts(t *testing.T) {
	resolver, storages, _ := newTestResolver(t)
	recordTestConflict(t, resolver, storages)

	conflicts, err := resolver.Conflicts(context.Background())
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "n1", conflicts[0].NoteID)
}
