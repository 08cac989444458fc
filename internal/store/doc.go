// Package store implements the persistent state store of the sync engine: a
// single SQLite database (WAL mode) holding device identity, per-note sync
// state, the outbound change queue, detected conflicts, and scalar metadata.
//
// The durable tables are authoritative; no component keeps an independent
// in-memory cache of their contents. Each repository method is a single
// atomic storage operation from the caller's perspective. Interleaving of
// multi-step updates is prevented by the engine's single-in-flight-cycle
// rule, not by locking here.
package store
