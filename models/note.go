package models

import "time"

// Note is the snapshot of a note as exchanged with the document store and
// the server. The sync engine never interprets Content beyond hashing it;
// the rich-text document model lives entirely outside this module.
type Note struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Operation identifies the kind of local mutation recorded for a note.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Valid reports whether op is one of the known operations.
func (op Operation) Valid() bool {
	switch op {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}
