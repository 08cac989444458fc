package store

import (
	"database/sql"

	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/migrations"
)

// DB wraps the raw sql.DB handle shared by all repositories.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}
