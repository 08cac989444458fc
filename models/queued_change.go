package models

import "time"

// QueuedChange is one durable record of the outbound change queue.
//
// The queue is append-only and FIFO-ordered: ID is assigned by the storage
// layer from an auto-increment sequence, and readers always see entries in
// insertion order. Payload holds the serialized note snapshot and is nil for
// delete operations. Attempts, Error and LastAttemptAt are bookkeeping
// updated by the coordinator on failed pushes.
type QueuedChange struct {
	ID            int64      `json:"id"`
	NoteID        string     `json:"note_id"`
	Operation     Operation  `json:"operation"`
	Version       int64      `json:"version"`
	Payload       []byte     `json:"payload,omitempty"`
	Attempts      int        `json:"attempts"`
	Error         *string    `json:"error,omitempty"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
