package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/models"
)

type conflictRepository struct {
	*DB
	logger *logger.Logger
}

func NewConflictRepository(db *DB, logger *logger.Logger) ConflictRepository {
	return &conflictRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *conflictRepository) Save(ctx context.Context, conflict models.SyncConflict) error {
	log := logger.FromContext(ctx)

	localNote, err := marshalNote(conflict.LocalNote)
	if err != nil {
		return fmt.Errorf("failed to encode local note (note_id=%s): %w", conflict.NoteID, err)
	}
	remoteNote, err := marshalNote(conflict.RemoteNote)
	if err != nil {
		return fmt.Errorf("failed to encode remote note (note_id=%s): %w", conflict.NoteID, err)
	}

	_, err = r.DB.ExecContext(ctx, saveConflict,
		conflict.NoteID,
		localNote,
		remoteNote,
		conflict.LocalVersion,
		conflict.RemoteVersion,
		conflict.DetectedAt,
		string(conflict.Type),
	)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Save").
			Str("note_id", conflict.NoteID).
			Str("type", string(conflict.Type)).
			Msg("failed to upsert conflict")
		return fmt.Errorf("failed to save conflict (note_id=%s): %w", conflict.NoteID, err)
	}

	return nil
}

func (r *conflictRepository) Get(ctx context.Context, noteID string) (models.SyncConflict, error) {
	log := logger.FromContext(ctx)

	row := r.DB.QueryRowContext(ctx, getConflict, noteID)

	conflict, err := scanConflict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncConflict{}, fmt.Errorf("note %s: %w", noteID, ErrConflictNotFound)
	}
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Get").
			Str("note_id", noteID).
			Msg("failed to scan conflict row")
		return models.SyncConflict{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return conflict, nil
}

func (r *conflictRepository) GetAll(ctx context.Context) ([]models.SyncConflict, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, getAllConflicts)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.GetAll").
			Msg("failed to execute query for all conflicts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var conflicts []models.SyncConflict
	for rows.Next() {
		conflict, scanErr := scanConflict(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "conflictRepository.GetAll").
				Msg("failed to scan conflict row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		conflicts = append(conflicts, conflict)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "conflictRepository.GetAll").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating conflict rows: %w", rowsErr)
	}

	return conflicts, nil
}

func (r *conflictRepository) Delete(ctx context.Context, noteID string) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, deleteConflict, noteID); err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Delete").
			Str("note_id", noteID).
			Msg("failed to delete conflict")
		return fmt.Errorf("failed to delete conflict (note_id=%s): %w", noteID, err)
	}

	return nil
}

func (r *conflictRepository) Count(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	var count int
	if err := r.DB.QueryRowContext(ctx, countConflicts).Scan(&count); err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Count").
			Msg("failed to count conflicts")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

func marshalNote(note *models.Note) ([]byte, error) {
	if note == nil {
		return nil, nil
	}
	return json.Marshal(note)
}

func unmarshalNote(data []byte) (*models.Note, error) {
	if len(data) == 0 {
		return nil, nil
	}
	note := &models.Note{}
	if err := json.Unmarshal(data, note); err != nil {
		return nil, err
	}
	return note, nil
}

func scanConflict(row rowScanner) (models.SyncConflict, error) {
	var (
		conflict     models.SyncConflict
		localNote    []byte
		remoteNote   []byte
		conflictType string
	)

	err := row.Scan(
		&conflict.NoteID,
		&localNote,
		&remoteNote,
		&conflict.LocalVersion,
		&conflict.RemoteVersion,
		&conflict.DetectedAt,
		&conflictType,
	)
	if err != nil {
		return models.SyncConflict{}, err
	}

	if conflict.LocalNote, err = unmarshalNote(localNote); err != nil {
		return models.SyncConflict{}, fmt.Errorf("decode local note: %w", err)
	}
	if conflict.RemoteNote, err = unmarshalNote(remoteNote); err != nil {
		return models.SyncConflict{}, fmt.Errorf("decode remote note: %w", err)
	}
	conflict.Type = models.ConflictType(conflictType)

	return conflict, nil
}
