package core

import (
	"time"

	"github.com/rs/zerolog"
)

// EventKind classifies an audit event.
type EventKind int

const (
	// EventConnected records a completed handshake.
	EventConnected EventKind = iota
	// EventJoined records a client entering a channel.
	EventJoined
	// EventLeft records a client leaving a channel.
	EventLeft
	// EventRenamed records a username change.
	EventRenamed
	// EventMuted records an admin muting a member.
	EventMuted
	// EventUnmuted records an admin unmuting a member.
	EventUnmuted
	// EventKicked records an admin sending a member back to the lobby.
	EventKicked
	// EventDisconnected records the end of a session, by quit or by transport failure.
	EventDisconnected
	// EventEvicted records a client dropped after exhausting the retry budget.
	EventEvicted
)

var eventKindNames = [...]string{
	EventConnected:    "connected",
	EventJoined:       "joined",
	EventLeft:         "left",
	EventRenamed:      "renamed",
	EventMuted:        "muted",
	EventUnmuted:      "unmuted",
	EventKicked:       "kicked",
	EventDisconnected: "disconnected",
	EventEvicted:      "evicted",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

// Event describes a session or moderation change. Message text is never part of it.
type Event struct {
	Kind      EventKind
	ClientID  uint64
	SessionID string
	User      string
	Channel   string
	Detail    string
	At        time.Time
}

func clientEvent(kind EventKind, c *Client, channel, detail string) Event {
	return Event{
		Kind:      kind,
		ClientID:  c.ID,
		SessionID: c.SessionID,
		User:      c.Username(),
		Channel:   channel,
		Detail:    detail,
	}
}

// recorder is a bounded queue of audit events drained by Hub.Run.
type recorder struct {
	events chan Event
	log    *zerolog.Logger
}

func newRecorder(size int, logger *zerolog.Logger) *recorder {
	return &recorder{
		events: make(chan Event, size),
		log:    logger,
	}
}

// emit never blocks; a full queue drops the event.
func (r *recorder) emit(ev Event) {
	if r == nil {
		return
	}
	ev.At = time.Now()
	select {
	case r.events <- ev:
	default:
		r.log.Warn().Str("kind", ev.Kind.String()).Uint64("client_id", ev.ClientID).Msg("audit queue full, dropping event")
	}
}
