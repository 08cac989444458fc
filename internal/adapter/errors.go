package adapter

import "errors"

// Sentinel transport errors. The coordinator matches these with [errors.Is]
// to pick a retry policy. Version conflicts are never errors; they travel
// inside [models.PushResult].
var (
	// ErrUnauthorized is returned when the server rejects the API credential
	// (401/403). Not retried automatically with the same credential.
	ErrUnauthorized = errors.New("sync credential rejected")

	// ErrServerUnavailable is returned on 5xx responses. Safe to retry on a
	// later cycle.
	ErrServerUnavailable = errors.New("sync server unavailable")

	// ErrNetwork is returned when the request never produced an HTTP
	// response: timeout, connection refused, DNS failure. Safe to retry on a
	// later cycle.
	ErrNetwork = errors.New("network failure")
)
