// Package db provides a SQLite backed prediction history.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"delaycast/storage"
)

// HistoryFileName is the database file used inside the storage directory.
const HistoryFileName = "history.db"

// History implements storage.History on a single SQLite table ordered by rowid.
type History struct {
	db *sql.DB
}

var _ storage.History = (*History)(nil)

// OpenHistory opens (creating if needed) the database at path.
func OpenHistory(path string) (*History, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL,
        wind_origin REAL NOT NULL,
        output REAL NOT NULL
    );
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &History{db: database}, nil
}

// Append inserts one record.
func (h *History) Append(ctx context.Context, rec storage.Record) error {
	_, err := h.db.ExecContext(ctx, `
        INSERT INTO predictions (id, wind_origin, output)
        VALUES (?, ?, ?)`,
		rec.ID, rec.Input.WindOrigin, rec.Output)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ReadAll returns every record in insertion order.
func (h *History) ReadAll(ctx context.Context) ([]storage.Record, error) {
	rows, err := h.db.QueryContext(ctx, `
        SELECT id, wind_origin, output
        FROM predictions
        ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	defer rows.Close()

	records := make([]storage.Record, 0)
	for rows.Next() {
		var rec storage.Record
		if err := rows.Scan(&rec.ID, &rec.Input.WindOrigin, &rec.Output); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database handle.
func (h *History) Close() error {
	return h.db.Close()
}
