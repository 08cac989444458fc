// Package devserver is an in-process reference implementation of the sync
// server protocol. It backs the transport and engine tests and can be run
// standalone during development. State is in-memory only: it is a protocol
// fixture, not a production server.
package devserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/notablehq/notesync/internal/adapter"
	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/internal/utils"
	"github.com/notablehq/notesync/models"
)

type record struct {
	note        *models.Note
	version     int64
	contentHash string
	deviceID    string
	deleted     bool
}

// Server holds one versioned note table and a monotonically increasing
// change stream.
type Server struct {
	apiKey string
	logger *logger.Logger

	mu      sync.Mutex
	notes   map[string]*record
	changes []models.RemoteChange
	seq     int64
}

func New(apiKey string, log *logger.Logger) *Server {
	return &Server{
		apiKey: apiKey,
		logger: log,
		notes:  make(map[string]*record),
	}
}

// Handler returns the chi router implementing the sync protocol.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Head("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/sync/push", s.handlePush)
		r.Get("/sync/pull", s.handlePull)
	})

	return r
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get(adapter.APIKeyHeader) != s.apiKey {
			http.Error(w, "invalid api key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var req models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed push request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	resp := models.PushResponse{Results: make([]models.PushResult, 0, len(req.Changes))}
	for _, ch := range req.Changes {
		resp.Results = append(resp.Results, s.applyChange(req.DeviceID, ch))
	}
	s.mu.Unlock()

	writeJSON(w, resp)
}

// applyChange accepts a change unless the note was last written by another
// device at a version the pusher has not seen yet, the optimistic
// concurrency rule of the protocol.
func (s *Server) applyChange(deviceID string, ch models.PushChange) models.PushResult {
	rec, exists := s.notes[ch.NoteID]

	if exists && rec.deviceID != deviceID && rec.version >= ch.Version {
		return models.PushResult{
			NoteID:        ch.NoteID,
			Outcome:       models.PushConflict,
			RemoteVersion: rec.version,
			RemoteDeleted: rec.deleted,
			RemoteNote:    rec.note,
		}
	}

	if !exists {
		rec = &record{}
		s.notes[ch.NoteID] = rec
	}
	rec.version++
	rec.deviceID = deviceID

	if ch.Operation == models.OperationDelete {
		rec.deleted = true
		rec.note = nil
		rec.contentHash = ""
	} else {
		note := &models.Note{}
		if err := json.Unmarshal(ch.Payload, note); err != nil {
			// Reject unparseable payloads as a bad request for this change.
			return models.PushResult{
				NoteID:        ch.NoteID,
				Outcome:       models.PushConflict,
				RemoteVersion: rec.version,
				RemoteDeleted: rec.deleted,
				RemoteNote:    rec.note,
			}
		}
		rec.deleted = false
		rec.note = note
		rec.contentHash = utils.HashContent(note.Content)
	}

	s.seq++
	s.changes = append(s.changes, models.RemoteChange{
		Sequence:    s.seq,
		NoteID:      ch.NoteID,
		Operation:   ch.Operation,
		Version:     rec.version,
		ContentHash: rec.contentHash,
		DeviceID:    deviceID,
		Note:        rec.note,
	})

	return models.PushResult{
		NoteID:        ch.NoteID,
		Outcome:       models.PushAccepted,
		ServerVersion: rec.version,
		ContentHash:   rec.contentHash,
	}
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	since, err := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	if err != nil && r.URL.Query().Get("since") != "" {
		http.Error(w, "malformed since cursor", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	resp := models.PullResponse{NextSequence: s.seq}
	for _, rc := range s.changes {
		if rc.Sequence > since {
			resp.Changes = append(resp.Changes, rc)
		}
	}
	s.mu.Unlock()

	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
