package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/models"
)

type syncStateRepository struct {
	*DB
	logger *logger.Logger
}

func NewSyncStateRepository(db *DB, logger *logger.Logger) SyncStateRepository {
	return &syncStateRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *syncStateRepository) Get(ctx context.Context, noteID string) (models.SyncState, error) {
	log := logger.FromContext(ctx)

	row := r.DB.QueryRowContext(ctx, getSyncState, noteID)

	state, err := scanSyncState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncState{}, fmt.Errorf("note %s: %w", noteID, ErrSyncStateNotFound)
	}
	if err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.Get").
			Str("note_id", noteID).
			Msg("failed to scan sync state row")
		return models.SyncState{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return state, nil
}

func (r *syncStateRepository) GetAll(ctx context.Context) ([]models.SyncState, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, getAllSyncStates)
	if err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.GetAll").
			Msg("failed to execute query for all sync states")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var states []models.SyncState
	for rows.Next() {
		state, scanErr := scanSyncState(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "syncStateRepository.GetAll").
				Msg("failed to scan sync state row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		states = append(states, state)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "syncStateRepository.GetAll").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating sync state rows: %w", rowsErr)
	}

	return states, nil
}

func (r *syncStateRepository) Save(ctx context.Context, state models.SyncState) error {
	log := logger.FromContext(ctx)

	var serverVersion sql.NullInt64
	if state.ServerVersion != nil {
		serverVersion = sql.NullInt64{Int64: *state.ServerVersion, Valid: true}
	}
	var lastSyncedAt sql.NullTime
	if state.LastSyncedAt != nil {
		lastSyncedAt = sql.NullTime{Time: *state.LastSyncedAt, Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, saveSyncState,
		state.NoteID,
		state.LocalVersion,
		serverVersion,
		state.ContentHash,
		lastSyncedAt,
		string(state.Status),
	)
	if err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.Save").
			Str("note_id", state.NoteID).
			Msg("failed to upsert sync state")
		return fmt.Errorf("failed to save sync state (note_id=%s): %w", state.NoteID, err)
	}

	return nil
}

func (r *syncStateRepository) Delete(ctx context.Context, noteID string) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, deleteSyncState, noteID); err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.Delete").
			Str("note_id", noteID).
			Msg("failed to delete sync state")
		return fmt.Errorf("failed to delete sync state (note_id=%s): %w", noteID, err)
	}

	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSyncState(row rowScanner) (models.SyncState, error) {
	var (
		state         models.SyncState
		serverVersion sql.NullInt64
		lastSyncedAt  sql.NullTime
		status        string
	)

	err := row.Scan(
		&state.NoteID,
		&state.LocalVersion,
		&serverVersion,
		&state.ContentHash,
		&lastSyncedAt,
		&status,
	)
	if err != nil {
		return models.SyncState{}, err
	}

	if serverVersion.Valid {
		v := serverVersion.Int64
		state.ServerVersion = &v
	}
	if lastSyncedAt.Valid {
		t := lastSyncedAt.Time
		state.LastSyncedAt = &t
	}
	state.Status = models.SyncStatus(status)

	return state, nil
}
