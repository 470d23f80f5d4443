package store

import (
	"context"
	"time"
)

// Event is a persisted audit record of a session or moderation change.
type Event struct {
	ID        int64
	Kind      string
	ClientID  int64
	SessionID string
	Username  string
	Channel   string
	Detail    string
	CreatedAt time.Time
}

// EventStore persists audit events.
type EventStore interface {
	// RecordEvent stores ev and fills in its ID.
	RecordEvent(ctx context.Context, ev *Event) error
	// ListEvents returns up to limit events, newest first.
	ListEvents(ctx context.Context, limit int) ([]Event, error)
	// ListSessionEvents returns every event of one session in the order they happened.
	ListSessionEvents(ctx context.Context, sessionID string) ([]Event, error)
	// Close releases the underlying database.
	Close() error
}
