// sqlite.go
//
// SQLite sink: batches finalized records and inserts them inside one
// transaction per batch, which is the difference between ~100 and
// ~100k rows/s on sqlite.  WAL journaling keeps readers (log viewers,
// ad-hoc queries) from blocking the backend's writes.

package sink

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ItsBasi/quill/record"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS log_records (
	ts     INTEGER NOT NULL, -- unix nanoseconds
	origin TEXT    NOT NULL,
	level  TEXT    NOT NULL,
	body   TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS log_records_ts ON log_records(ts);
`

// SQLite persists entries to a sqlite database file.
type SQLite struct {
	db        *sql.DB
	batch     []record.Entry
	batchSize int
}

// NewSQLite opens (creating if needed) the database at path.  batchSize
// rows are accumulated before each transactional insert; <= 0 selects a
// default of 64.
func NewSQLite(path string, batchSize int) (*SQLite, error) {
	if batchSize <= 0 {
		batchSize = 64
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite sink: enable WAL: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite sink: create schema: %w", err)
	}
	return &SQLite{db: db, batch: make([]record.Entry, 0, batchSize), batchSize: batchSize}, nil
}

// Receive buffers the entry, flushing when the batch fills.
func (s *SQLite) Receive(e *record.Entry) error {
	s.batch = append(s.batch, *e)
	if len(s.batch) >= s.batchSize {
		return s.Flush()
	}
	return nil
}

// Flush inserts all buffered entries in one transaction.
func (s *SQLite) Flush() error {
	if len(s.batch) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite sink: begin: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO log_records(ts, origin, level, body) VALUES(?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite sink: prepare: %w", err)
	}
	for i := range s.batch {
		e := &s.batch[i]
		if _, err := stmt.Exec(e.Time.UnixNano(), e.Origin, e.Level.String(), e.Body); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("sqlite sink: insert: %w", err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite sink: commit: %w", err)
	}
	s.batch = s.batch[:0]
	return nil
}

// Close flushes the remaining batch and closes the database.
func (s *SQLite) Close() error {
	ferr := s.Flush()
	if err := s.db.Close(); err != nil {
		return err
	}
	return ferr
}
