package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/models"
)

var queueColumns = []string{
	"id", "note_id", "operation", "version", "payload",
	"attempts", "error", "last_attempt_at", "created_at",
}

type changeQueueRepository struct {
	*DB
	logger *logger.Logger
}

func NewChangeQueueRepository(db *DB, logger *logger.Logger) ChangeQueueRepository {
	return &changeQueueRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *changeQueueRepository) Append(ctx context.Context, change models.QueuedChange) (int64, error) {
	log := logger.FromContext(ctx)

	createdAt := change.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := r.DB.ExecContext(ctx, appendQueuedChange,
		change.NoteID,
		string(change.Operation),
		change.Version,
		change.Payload,
		createdAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "changeQueueRepository.Append").
			Str("note_id", change.NoteID).
			Str("operation", string(change.Operation)).
			Msg("failed to append queued change")
		return 0, fmt.Errorf("failed to append queued change (note_id=%s): %w", change.NoteID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read queued change id: %w", err)
	}

	return id, nil
}

func (r *changeQueueRepository) List(ctx context.Context, limit int) ([]models.QueuedChange, error) {
	builder := sq.Select(queueColumns...).
		From("change_queue").
		OrderBy("id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return r.query(ctx, "changeQueueRepository.List", builder)
}

func (r *changeQueueRepository) ListForNote(ctx context.Context, noteID string) ([]models.QueuedChange, error) {
	builder := sq.Select(queueColumns...).
		From("change_queue").
		Where(sq.Eq{"note_id": noteID}).
		OrderBy("id ASC")

	return r.query(ctx, "changeQueueRepository.ListForNote", builder)
}

func (r *changeQueueRepository) MarkAttempt(ctx context.Context, id int64, errMsg string) error {
	log := logger.FromContext(ctx)

	res, err := r.DB.ExecContext(ctx, markQueuedChangeAttempt, errMsg, time.Now().UTC(), id)
	if err != nil {
		log.Err(err).
			Str("func", "changeQueueRepository.MarkAttempt").
			Int64("id", id).
			Msg("failed to mark queued change attempt")
		return fmt.Errorf("failed to mark attempt (id=%d): %w", id, err)
	}

	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return fmt.Errorf("queued change id=%d: %w", id, ErrQueuedChangeNotFound)
	}

	return nil
}

func (r *changeQueueRepository) Remove(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)

	query, args, err := sq.Delete("change_queue").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "changeQueueRepository.Remove").
			Ints64("ids", ids).
			Msg("failed to remove queued changes")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *changeQueueRepository) RemoveForNote(ctx context.Context, noteID string) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, removeQueuedChangesForNote, noteID); err != nil {
		log.Err(err).
			Str("func", "changeQueueRepository.RemoveForNote").
			Str("note_id", noteID).
			Msg("failed to remove queued changes for note")
		return fmt.Errorf("failed to remove queued changes (note_id=%s): %w", noteID, err)
	}

	return nil
}

func (r *changeQueueRepository) Depth(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	var depth int
	if err := r.DB.QueryRowContext(ctx, countQueuedChanges).Scan(&depth); err != nil {
		log.Err(err).
			Str("func", "changeQueueRepository.Depth").
			Msg("failed to count queued changes")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return depth, nil
}

func (r *changeQueueRepository) query(ctx context.Context, caller string, builder sq.SelectBuilder) ([]models.QueuedChange, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", caller).
			Msg("failed to execute queue query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var changes []models.QueuedChange
	for rows.Next() {
		change, scanErr := scanQueuedChange(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", caller).
				Msg("failed to scan queued change row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		changes = append(changes, change)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", caller).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating queue rows: %w", rowsErr)
	}

	return changes, nil
}

func scanQueuedChange(row rowScanner) (models.QueuedChange, error) {
	var (
		change        models.QueuedChange
		payload       []byte
		lastError     sql.NullString
		lastAttemptAt sql.NullTime
		operation     string
	)

	err := row.Scan(
		&change.ID,
		&change.NoteID,
		&operation,
		&change.Version,
		&payload,
		&change.Attempts,
		&lastError,
		&lastAttemptAt,
		&change.CreatedAt,
	)
	if err != nil {
		return models.QueuedChange{}, err
	}

	change.Operation = models.Operation(operation)
	change.Payload = payload
	if lastError.Valid {
		msg := lastError.String
		change.Error = &msg
	}
	if lastAttemptAt.Valid {
		t := lastAttemptAt.Time
		change.LastAttemptAt = &t
	}

	return change, nil
}
