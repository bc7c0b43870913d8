// Package db owns the SQLite metadata store: connection setup, the
// essential PRAGMAs, and the embedded schema migrations. Clip rows,
// corpus state and model records live here; media files and model
// blobs live on the filesystem and are only referenced by path.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the metadata database connection.
type DB struct {
	*sql.DB
}

// essential PRAGMAs applied to every connection at open.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Open opens (creating if needed) the database at path, applies the
// essential PRAGMAs and brings the schema to the latest migration.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}
