package models

// Wire types for the server sync protocol.
//
// The transport is stateless: every request carries the device identity and
// the API credential is attached at the HTTP layer. All per-note progress
// lives in the local persistent state store.

// PushChange is one queued change as sent to the server.
type PushChange struct {
	NoteID    string    `json:"note_id"`
	Operation Operation `json:"operation"`
	Version   int64     `json:"version"`
	Payload   []byte    `json:"payload,omitempty"`
}

// PushRequest is the body of POST /sync/push.
type PushRequest struct {
	DeviceID string       `json:"device_id"`
	Changes  []PushChange `json:"changes"`
	Length   int          `json:"length"`
}

// PushOutcome discriminates the per-change result of a push.
type PushOutcome string

const (
	// PushAccepted: the server stored the change and assigned ServerVersion.
	PushAccepted PushOutcome = "accepted"

	// PushConflict: the server holds a newer incompatible version; the
	// current remote snapshot is returned for conflict recording.
	PushConflict PushOutcome = "conflict"
)

// PushResult is the server's verdict for a single pushed change.
type PushResult struct {
	NoteID        string      `json:"note_id"`
	Outcome       PushOutcome `json:"outcome"`
	ServerVersion int64       `json:"server_version,omitempty"`
	ContentHash   string      `json:"content_hash,omitempty"`
	RemoteVersion int64       `json:"remote_version,omitempty"`
	RemoteDeleted bool        `json:"remote_deleted,omitempty"`
	RemoteNote    *Note       `json:"remote_note,omitempty"`
}

// PushResponse is the body returned by POST /sync/push.
type PushResponse struct {
	Results []PushResult `json:"results"`
}

// RemoteChange is one server-side change streamed to clients by pull.
type RemoteChange struct {
	Sequence    int64     `json:"sequence"`
	NoteID      string    `json:"note_id"`
	Operation   Operation `json:"operation"`
	Version     int64     `json:"version"`
	ContentHash string    `json:"content_hash,omitempty"`
	DeviceID    string    `json:"device_id"`
	Note        *Note     `json:"note,omitempty"`
}

// PullResponse is the body returned by GET /sync/pull?since=N. NextSequence
// is the cursor the client persists and presents on the next pull.
type PullResponse struct {
	Changes      []RemoteChange `json:"changes"`
	NextSequence int64          `json:"next_sequence"`
}
