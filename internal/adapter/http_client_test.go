package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notablehq/notesync/models"
)

func newTransport(t *testing.T, handler http.HandlerFunc) SyncTransport {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewHTTPTransport(HTTPTransportConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestHTTPTransport_Push(t *testing.T) {
	transport := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sync/push", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get(APIKeyHeader))

		var req models.PushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "device-1", req.DeviceID)
		require.Len(t, req.Changes, 2)
		assert.Equal(t, 2, req.Length)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.PushResponse{
			Results: []models.PushResult{
				{NoteID: "n1", Outcome: models.PushAccepted, ServerVersion: 1},
				{NoteID: "n2", Outcome: models.PushConflict, RemoteVersion: 3},
			},
		})
	})

	resp, err := transport.Push(context.Background(), models.PushRequest{
		DeviceID: "device-1",
		Changes: []models.PushChange{
			{NoteID: "n1", Operation: models.OperationCreate, Version: 1},
			{NoteID: "n2", Operation: models.OperationUpdate, Version: 2},
		},
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, models.PushAccepted, resp.Results[0].Outcome)
	assert.Equal(t, models.PushConflict, resp.Results[1].Outcome)
}

func TestHTTPTransport_Pull(t *testing.T) {
	transport := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sync/pull", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("since"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.PullResponse{
			Changes: []models.RemoteChange{
				{Sequence: 43, NoteID: "n1", Operation: models.OperationUpdate, Version: 2, DeviceID: "other"},
			},
			NextSequence: 43,
		})
	})

	resp, err := transport.Pull(context.Background(), 42)

	require.NoError(t, err)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, int64(43), resp.NextSequence)
	assert.Equal(t, "n1", resp.Changes[0].NoteID)
}

func TestHTTPTransport_Unauthorized(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		transport := newTransport(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
		})

		_, err := transport.Push(context.Background(), models.PushRequest{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnauthorized, "status %d", code)
	}
}

func TestHTTPTransport_ServerUnavailable(t *testing.T) {
	transport := newTransport(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := transport.Pull(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerUnavailable)
}

func TestHTTPTransport_ClientErrorCarriesBody(t *testing.T) {
	transport := newTransport(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "malformed since cursor", http.StatusBadRequest)
	})

	_, err := transport.Pull(context.Background(), 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrServerUnavailable)
	assert.Contains(t, err.Error(), "malformed since cursor")
}

func TestHTTPTransport_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	transport := NewHTTPTransport(HTTPTransportConfig{BaseURL: srv.URL, Timeout: time.Second})
	srv.Close() // connection refused from here on

	_, err := transport.Push(context.Background(), models.PushRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}
