package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notablehq/notesync/internal/adapter"
	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/models"
)

func newTestServer(t *testing.T) (*httptest.Server, adapter.SyncTransport) {
	t.Helper()

	srv := httptest.NewServer(New("test-key", logger.Nop()).Handler())
	t.Cleanup(srv.Close)

	transport := adapter.NewHTTPTransport(adapter.HTTPTransportConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
	})
	return srv, transport
}

func notePayload(t *testing.T, note models.Note) []byte {
	t.Helper()
	data, err := json.Marshal(note)
	require.NoError(t, err)
	return data
}

func TestServer_HealthzIsOpen(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_PushRequiresAPIKey(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/sync/push", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_PushAndPullRoundTrip(t *testing.T) {
	_, transport := newTestServer(t)
	ctx := context.Background()

	note := models.Note{ID: "n1", Title: "shopping", Content: "milk"}
	pushResp, err := transport.Push(ctx, models.PushRequest{
		DeviceID: "device-a",
		Changes: []models.PushChange{
			{NoteID: "n1", Operation: models.OperationCreate, Version: 1, Payload: notePayload(t, note)},
		},
	})
	require.NoError(t, err)
	require.Len(t, pushResp.Results, 1)
	assert.Equal(t, models.PushAccepted, pushResp.Results[0].Outcome)
	assert.Equal(t, int64(1), pushResp.Results[0].ServerVersion)
	assert.NotEmpty(t, pushResp.Results[0].ContentHash)

	pullResp, err := transport.Pull(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pullResp.Changes, 1)
	assert.Equal(t, "n1", pullResp.Changes[0].NoteID)
	assert.Equal(t, "device-a", pullResp.Changes[0].DeviceID)
	require.NotNil(t, pullResp.Changes[0].Note)
	assert.Equal(t, "milk", pullResp.Changes[0].Note.Content)
	assert.Equal(t, int64(1), pullResp.NextSequence)
}

func TestServer_StaleVersionFromOtherDeviceConflicts(t *testing.T) {
	_, transport := newTestServer(t)
	ctx := context.Background()

	_, err := transport.Push(ctx, models.PushRequest{
		DeviceID: "device-a",
		Changes: []models.PushChange{
			{NoteID: "n1", Operation: models.OperationCreate, Version: 1,
				Payload: notePayload(t, models.Note{ID: "n1", Content: "from a"})},
		},
	})
	require.NoError(t, err)

	// Device B pushes the same note without having seen A's version.
	resp, err := transport.Push(ctx, models.PushRequest{
		DeviceID: "device-b",
		Changes: []models.PushChange{
			{NoteID: "n1", Operation: models.OperationUpdate, Version: 1,
				Payload: notePayload(t, models.Note{ID: "n1", Content: "from b"})},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	result := resp.Results[0]
	assert.Equal(t, models.PushConflict, result.Outcome)
	assert.Equal(t, int64(1), result.RemoteVersion)
	require.NotNil(t, result.RemoteNote)
	assert.Equal(t, "from a", result.RemoteNote.Content)
}

func TestServer_NewerVersionFromOtherDeviceAccepted(t *testing.T) {
	_, transport := newTestServer(t)
	ctx := context.Background()

	_, err := transport.Push(ctx, models.PushRequest{
		DeviceID: "device-a",
		Changes: []models.PushChange{
			{NoteID: "n1", Operation: models.OperationCreate, Version: 1,
				Payload: notePayload(t, models.Note{ID: "n1", Content: "v1"})},
		},
	})
	require.NoError(t, err)

	// Device B pulled A's version first, so its local version is ahead.
	resp, err := transport.Push(ctx, models.PushRequest{
		DeviceID: "device-b",
		Changes: []models.PushChange{
			{NoteID: "n1", Operation: models.OperationUpdate, Version: 2,
				Payload: notePayload(t, models.Note{ID: "n1", Content: "v2"})},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PushAccepted, resp.Results[0].Outcome)
	assert.Equal(t, int64(2), resp.Results[0].ServerVersion)
}

func TestServer_SameDeviceAlwaysAccepted(t *testing.T) {
	_, transport := newTestServer(t)
	ctx := context.Background()

	for v := int64(1); v <= 3; v++ {
		resp, err := transport.Push(ctx, models.PushRequest{
			DeviceID: "device-a",
			Changes: []models.PushChange{
				{NoteID: "n1", Operation: models.OperationUpdate, Version: v,
					Payload: notePayload(t, models.Note{ID: "n1", Content: "rev"})},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, models.PushAccepted, resp.Results[0].Outcome)
		assert.Equal(t, v, resp.Results[0].ServerVersion)
	}
}

func TestServer_DeleteAndPull(t *testing.T) {
	_, transport := newTestServer(t)
	ctx := context.Background()

	_, err := transport.Push(ctx, models.PushRequest{
		DeviceID: "device-a",
		Changes: []models.PushChange{
			{NoteID: "n1", Operation: models.OperationCreate, Version: 1,
				Payload: notePayload(t, models.Note{ID: "n1", Content: "soon gone"})},
			{NoteID: "n1", Operation: models.OperationDelete, Version: 2},
		},
	})
	require.NoError(t, err)

	pullResp, err := transport.Pull(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pullResp.Changes, 2)

	del := pullResp.Changes[1]
	assert.Equal(t, models.OperationDelete, del.Operation)
	assert.Nil(t, del.Note)
}

func TestServer_PullSinceFiltersOldChanges(t *testing.T) {
	_, transport := newTestServer(t)
	ctx := context.Background()

	for _, id := range []string{"n1", "n2", "n3"} {
		_, err := transport.Push(ctx, models.PushRequest{
			DeviceID: "device-a",
			Changes: []models.PushChange{
				{NoteID: id, Operation: models.OperationCreate, Version: 1,
					Payload: notePayload(t, models.Note{ID: id})},
			},
		})
		require.NoError(t, err)
	}

	pullResp, err := transport.Pull(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pullResp.Changes, 1)
	assert.Equal(t, "n3", pullResp.Changes[0].NoteID)
	assert.Equal(t, int64(3), pullResp.NextSequence)
}
