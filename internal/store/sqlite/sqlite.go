package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/relaychat/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	client_id  INTEGER NOT NULL,
	session_id TEXT NOT NULL,
	username   TEXT NOT NULL,
	channel    TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, id);
`

// SQLiteStore implements store.EventStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.EventStore = (*SQLiteStore)(nil)

// New opens the SQLite database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup opens a SQLite store and runs a setup function.
// Useful for tests to apply schema to an in-memory database.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate creates the audit tables if they do not exist.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordEvent inserts ev and sets its ID. A zero CreatedAt is set to now.
func (s *SQLiteStore) RecordEvent(ctx context.Context, ev *store.Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO events (kind, client_id, session_id, username, channel, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		ev.Kind, ev.ClientID, ev.SessionID, ev.Username, ev.Channel, ev.Detail, ev.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	ev.ID = id
	return nil
}

// ListEvents returns up to limit events, newest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, limit int) ([]store.Event, error) {
	query := `
		SELECT id, kind, client_id, session_id, username, channel, detail, created_at
		FROM events
		ORDER BY id DESC
		LIMIT ?
	`
	return s.queryEvents(ctx, query, limit)
}

// ListSessionEvents returns the events of one session, oldest first.
func (s *SQLiteStore) ListSessionEvents(ctx context.Context, sessionID string) ([]store.Event, error) {
	query := `
		SELECT id, kind, client_id, session_id, username, channel, detail, created_at
		FROM events
		WHERE session_id = ?
		ORDER BY id ASC
	`
	return s.queryEvents(ctx, query, sessionID)
}

func (s *SQLiteStore) queryEvents(ctx context.Context, query string, args ...any) ([]store.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]store.Event, 0)
	for rows.Next() {
		var ev store.Event
		if err := rows.Scan(
			&ev.ID,
			&ev.Kind,
			&ev.ClientID,
			&ev.SessionID,
			&ev.Username,
			&ev.Channel,
			&ev.Detail,
			&ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}
