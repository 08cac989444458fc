// Package adapter provides the transport layer for talking to the notesync
// server.
//
// The primary abstraction is [SyncTransport], which decouples the sync
// coordinator from the wire protocol. The package ships an HTTP/REST
// implementation ([NewHTTPTransport]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes and
// request failures by mapHTTPError / classifyRequestError so that the
// coordinator can use [errors.Is] to decide whether a failure should be
// retried on the next cycle (ErrNetwork, ErrServerUnavailable) or surfaced
// to the user (ErrUnauthorized).
package adapter
