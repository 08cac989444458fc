package adapter

import (
	"context"

	"github.com/notablehq/notesync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/transport_mock.go -package=mock

// SyncTransport defines stateless request/response communication with the
// one configured sync server. All per-note progress lives in the persistent
// state store; implementations hold nothing but the endpoint and credential.
type SyncTransport interface {
	// Push sends a batch of locally queued changes. The response carries one
	// result per change: either an acknowledged server version or a conflict
	// indicator with the current remote snapshot. Returns ErrNetwork,
	// ErrUnauthorized or ErrServerUnavailable (wrapped) on failure.
	Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error)

	// Pull fetches remote changes with sequence numbers greater than since,
	// plus the next cursor to persist. Error contract matches Push.
	Pull(ctx context.Context, since int64) (models.PullResponse, error)
}
