// Package journal is the append-only daily activity log backing the review
// path. Entries are timestamped free text, queried by day.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrEmptyText indicates an entry with nothing to log.
var ErrEmptyText = errors.New("journal entry text must not be empty")

// created_at holds Unix nanoseconds. Integer comparison keeps day-window
// queries exact; an RFC3339 string column compares lexicographically and
// misorders fractional seconds around whole-second bounds.
const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    text TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);
`

// Entry is one logged record.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
}

// Store persists journal entries in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and if needed initializes) the journal database. Use
// ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// WithClock overrides the time source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append adds one entry stamped with the current time.
func (s *Store) Append(ctx context.Context, text string) (*Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Text:      text,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, created_at, text) VALUES (?, ?, ?)`,
		entry.ID, entry.CreatedAt.UnixNano(), entry.Text,
	)
	if err != nil {
		return nil, fmt.Errorf("append journal entry: %w", err)
	}
	return entry, nil
}

// ForDay returns the entries logged on the given day (UTC), oldest first.
func (s *Store) ForDay(ctx context.Context, day time.Time) ([]Entry, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, text FROM entries
		 WHERE created_at >= ? AND created_at < ?
		 ORDER BY created_at ASC`,
		dayStart.UnixNano(), dayEnd.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var createdAt int64
		if err := rows.Scan(&entry.ID, &createdAt, &entry.Text); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entry.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return entries, nil
}
