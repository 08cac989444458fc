package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notablehq/notesync/internal/config"
	"github.com/notablehq/notesync/internal/logger"
)

// newTestStorages opens a throwaway SQLite database in t.TempDir and runs the
// migrations. Repository tests run against the real driver so the SQL, the
// schema and the scan code are exercised together.
func newTestStorages(t *testing.T) *Storages {
	t.Helper()

	storages, err := NewStorages(context.Background(), config.Storage{
		DBPath: filepath.Join(t.TempDir(), "sync.db"),
	}, logger.Nop())
	require.NoError(t, err)

	t.Cleanup(func() { _ = storages.Close() })
	return storages
}

func int64Ptr(v int64) *int64 { return &v }
