package trackdb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the run database connection.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the run database at path and applies
// the connection pragmas. Callers normally follow with MigrateUp.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run db: %w", err)
	}

	// WAL keeps readers from blocking the writer; foreign keys enforce
	// the runs → run_tracks/run_items cascade.
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	return &DB{db}, nil
}
