// Package service contains the sync engine core: the change tracker that
// records local mutations into the durable queue, the conflict resolver, the
// push/pull sync coordinator, and the SyncEngine facade that owns lifecycle
// and scheduling.
//
// Scheduling is a single logical actor per device: the periodic ticker,
// online transitions and debounced local edits all funnel into the same
// single-in-flight cycle guard, so at most one sync cycle runs at a time and
// a request arriving mid-cycle joins the in-flight cycle instead of starting
// a second one.
package service
