package store

import (
	"context"
	"fmt"

	"github.com/notablehq/notesync/internal/config"
	"github.com/notablehq/notesync/internal/logger"
)

// Storages groups all sync-state repositories into a single value passed
// around the service layer. All repositories share one SQLite handle, so
// there is exactly one source of truth for sync progress across restarts.
type Storages struct {
	SyncState SyncStateRepository
	Queue     ChangeQueueRepository
	Conflicts ConflictRepository
	Metadata  MetadataRepository

	db *DB
}

// NewStorages initialises the persistent state store:
//  1. Opens (creating if absent) the SQLite database at cfg.DBPath.
//  2. Runs pending schema migrations via [DB.Migrate]; re-running against an
//     initialized database is a no-op.
//  3. Wires one repository per logical table.
//
// Returns an error if the database cannot be opened or migrated; fatal to
// engine initialization.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("opening local sync database...")

	db, err := NewConnectSQLite(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		SyncState: NewSyncStateRepository(db, log),
		Queue:     NewChangeQueueRepository(db, log),
		Conflicts: NewConflictRepository(db, log),
		Metadata:  NewMetadataRepository(db, log),
		db:        db,
	}, nil
}

// Close releases the underlying database handle.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
