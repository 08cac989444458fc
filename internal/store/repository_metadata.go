package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/internal/utils"
)

// Well-known metadata keys.
const (
	// MetaKeyDeviceID holds the stable identity generated once per
	// installation.
	MetaKeyDeviceID = "device_id"

	// MetaKeyLastSyncSequence is the cursor into the server's change stream.
	MetaKeyLastSyncSequence = "last_sync_sequence"

	// MetaKeyLastSyncAt is the wall-clock timestamp of the last completed
	// sync cycle, RFC 3339.
	MetaKeyLastSyncAt = "last_sync_at"
)

type metadataRepository struct {
	*DB
	logger *logger.Logger
	ids    *utils.UUIDGenerator
}

func NewMetadataRepository(db *DB, logger *logger.Logger) MetadataRepository {
	return &metadataRepository{
		DB:     db,
		logger: logger,
		ids:    utils.NewUUIDGenerator(),
	}
}

func (r *metadataRepository) Get(ctx context.Context, key string) (string, error) {
	log := logger.FromContext(ctx)

	var value string
	err := r.DB.QueryRowContext(ctx, getMetadata, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("key %s: %w", key, ErrMetadataNotFound)
	}
	if err != nil {
		log.Err(err).
			Str("func", "metadataRepository.Get").
			Str("key", key).
			Msg("failed to query metadata")
		return "", fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return value, nil
}

func (r *metadataRepository) Set(ctx context.Context, key string, value string) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, setMetadata, key, value); err != nil {
		log.Err(err).
			Str("func", "metadataRepository.Set").
			Str("key", key).
			Msg("failed to upsert metadata")
		return fmt.Errorf("failed to set metadata (key=%s): %w", key, err)
	}

	return nil
}

// EnsureDeviceID returns the device identity, generating and persisting a
// fresh UUID the first time it is called on a given database.
func (r *metadataRepository) EnsureDeviceID(ctx context.Context) (string, error) {
	id, err := r.Get(ctx, MetaKeyDeviceID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrMetadataNotFound) {
		return "", err
	}

	id = r.ids.Generate()
	if err = r.Set(ctx, MetaKeyDeviceID, id); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}

	r.logger.Info().
		Str("func", "metadataRepository.EnsureDeviceID").
		Str("device_id", id).
		Msg("generated new device identity")

	return id, nil
}
