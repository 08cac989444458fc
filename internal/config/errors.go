package config

import "errors"

// Validation errors returned (joined) by Config.validate. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrNoDBPath is returned when no local database path is configured.
	ErrNoDBPath = errors.New("storage db path is not set")

	// ErrNoServerURL is returned when sync is enabled but no server endpoint
	// is configured.
	ErrNoServerURL = errors.New("server url is not set")

	// ErrNoAPIKey is returned when sync is enabled but no API credential is
	// configured.
	ErrNoAPIKey = errors.New("server api key is not set")
)
