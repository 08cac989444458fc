// Package notes provides the daemon's file-backed document store: one JSON
// file per note under a configured directory. Embedded callers are expected
// to supply their own store; this one exists so the daemon is runnable on
// its own.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/models"
)

// ErrNoteNotFound is returned when the requested note file does not exist.
var ErrNoteNotFound = errors.New("note not found")

// FileStore keeps each note as <dir>/<id>.json.
type FileStore struct {
	dir    string
	logger *logger.Logger
}

// NewFileStore ensures dir exists and returns a store over it.
func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("notes directory is not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create notes directory: %w", err)
	}

	return &FileStore{dir: dir, logger: log}, nil
}

func (f *FileStore) ReadNote(_ context.Context, id string) (models.Note, error) {
	data, err := os.ReadFile(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return models.Note{}, fmt.Errorf("read note %s: %w", id, ErrNoteNotFound)
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("read note %s: %w", id, err)
	}

	var note models.Note
	if err = json.Unmarshal(data, &note); err != nil {
		return models.Note{}, fmt.Errorf("decode note %s: %w", id, err)
	}

	return note, nil
}

// SaveNote writes through a temp file and renames it into place so a crash
// mid-write never leaves a truncated note behind.
func (f *FileStore) SaveNote(_ context.Context, note models.Note) error {
	if note.ID == "" {
		return errors.New("note id is empty")
	}

	data, err := json.MarshalIndent(note, "", "  ")
	if err != nil {
		return fmt.Errorf("encode note %s: %w", note.ID, err)
	}

	tmp, err := os.CreateTemp(f.dir, ".note-*")
	if err != nil {
		return fmt.Errorf("save note %s: %w", note.ID, err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("save note %s: %w", note.ID, err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save note %s: %w", note.ID, err)
	}

	if err = os.Rename(tmpName, f.path(note.ID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save note %s: %w", note.ID, err)
	}

	return nil
}

// DeleteNote removes the note file. Deleting an absent note is a no-op.
func (f *FileStore) DeleteNote(_ context.Context, id string) error {
	err := os.Remove(f.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	return nil
}

// List returns every note in the directory. Order is not specified.
func (f *FileStore) List(_ context.Context) ([]models.Note, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	var out []models.Note
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(f.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("list notes: %w", err)
		}

		var note models.Note
		if err = json.Unmarshal(data, &note); err != nil {
			f.logger.Warn().
				Str("func", "FileStore.List").
				Str("file", e.Name()).
				Msg("skipping unparseable note file")
			continue
		}
		out = append(out, note)
	}

	return out, nil
}

func (f *FileStore) path(id string) string {
	// Note ids are uuids; Base guards against path traversal anyway.
	return filepath.Join(f.dir, filepath.Base(id)+".json")
}
