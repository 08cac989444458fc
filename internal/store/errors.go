package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrSyncStateNotFound is returned when a query targets a note that has
	// no sync state record (never edited locally, or already retired).
	ErrSyncStateNotFound = errors.New("sync state was not found")

	// ErrQueuedChangeNotFound is returned when an update or delete targets a
	// queue entry that no longer exists.
	ErrQueuedChangeNotFound = errors.New("queued change was not found")

	// ErrConflictNotFound is returned when a conflict lookup or resolution
	// targets a note that has no recorded conflict.
	ErrConflictNotFound = errors.New("sync conflict was not found")

	// ErrMetadataNotFound is returned when a metadata key has never been set.
	ErrMetadataNotFound = errors.New("metadata key was not found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain
// logic can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a read-only query against
	// the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a result
	// row fails.
	ErrScanningRow = errors.New("failed to scan row")
)
