package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite uses a file path DSN.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

func Migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,

		`CREATE TABLE IF NOT EXISTS closure_status (
			ts_utc TEXT NOT NULL,
			venue TEXT NOT NULL,
			local_time TEXT,
			weekday TEXT,
			halted INTEGER NOT NULL,
			in_hours INTEGER NOT NULL,
			in_holiday INTEGER NOT NULL,
			PRIMARY KEY (ts_utc, venue)
		);`,

		`CREATE TABLE IF NOT EXISTS imported_holiday (
			venue TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			day INTEGER NOT NULL,
			hours TEXT NOT NULL DEFAULT '', -- '' closes the whole day
			name TEXT,
			source TEXT NOT NULL, -- e.g. "alpaca"
			PRIMARY KEY (venue, year, month, day, hours)
		);`,
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
