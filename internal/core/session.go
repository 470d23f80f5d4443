package core

import (
	"context"
	"errors"

	"github.com/vovakirdan/relaychat/internal/proto"
)

// SessionState is the lifecycle stage of one connection.
type SessionState int

const (
	// SessionHandshaking waits for the proposed username.
	SessionHandshaking SessionState = iota
	// SessionActive reads and dispatches frames.
	SessionActive
	// SessionTerminating releases everything the session holds.
	SessionTerminating
)

func (s SessionState) String() string {
	switch s {
	case SessionHandshaking:
		return "handshaking"
	case SessionActive:
		return "active"
	case SessionTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// Disconnect reasons recorded in the audit trail.
const (
	reasonQuit     = "quit"
	reasonLost     = "connection lost"
	reasonShutdown = "server shutdown"
)

type session struct {
	hub    *Hub
	client *Client
	state  SessionState
}

// Serve runs one session on conn until the client quits, the connection
// fails or ctx is cancelled. On cancellation the client is told the server is
// closing before its connection is dropped. Serve always releases conn.
func (h *Hub) Serve(ctx context.Context, conn Conn) {
	c := NewClient(h.nextID.Add(1), conn)
	s := &session{hub: h, client: c, state: SessionHandshaking}

	stop := context.AfterFunc(ctx, func() {
		_ = c.Send(proto.MsgServerClosing)
		_ = c.Send(proto.MsgQuit)
		_ = c.Close()
	})
	defer stop()

	log := h.log.With().Uint64("client_id", c.ID).Str("addr", c.Addr()).Logger()
	log.Debug().Str("session_id", c.SessionID).Msg("session started")

	if !s.handshake() {
		_ = c.Close()
		log.Debug().Msg("handshake failed")
		return
	}

	s.state = SessionActive
	reason := s.loop()
	if ctx.Err() != nil {
		reason = reasonShutdown
	}

	s.state = SessionTerminating
	s.terminate(reason)
	log.Debug().Str("reason", reason).Stringer("state", s.state).Msg("session ended")
}

// handshake reads the proposed username, registers the client and puts it
// in the lobby. It reports whether the session may go on.
func (s *session) handshake() bool {
	h, c := s.hub, s.client

	proposed, err := c.conn.Receive()
	if err != nil {
		h.log.Debug().Err(err).Uint64("client_id", c.ID).Msg("no username received")
		return false
	}

	if err := h.clients.Add(c); err != nil {
		if errors.Is(err, ErrServerFull) {
			_ = c.Send(proto.MsgServerFull)
		}
		return false
	}

	if proposed != "" && proposed[0] != proto.NoPreference && proposed != c.Username() {
		if _, err := h.clients.Rename(c, proposed); err != nil {
			if errors.Is(err, ErrUsernameTaken) {
				h.reply(c, proto.NameTaken(proposed, c.Username()))
			} else {
				h.reply(c, proto.NameInvalid(proposed, c.Username()))
			}
		}
	}

	if err := h.channels.Join(h.opts.Lobby, c); err != nil {
		h.log.Debug().Err(err).Uint64("client_id", c.ID).Msg("could not enter lobby")
		_ = h.clients.Remove(c)
		return false
	}

	user := c.Username()
	h.log.Info().Uint64("client_id", c.ID).Str("user", user).Str("addr", c.Addr()).Msg("user connected")
	h.rec.emit(clientEvent(EventConnected, c, h.opts.Lobby, c.Addr()))
	h.bc.Broadcast(c.ID, proto.Connected(user), nil)
	h.reply(c, proto.MsgHelpHint)
	return true
}

// loop dispatches inbound frames and returns why the session ended.
func (s *session) loop() string {
	h, c := s.hub, s.client
	for {
		line, err := c.conn.Receive()
		if err != nil {
			if c.Closed() {
				return reasonLost
			}
			h.log.Info().Err(err).Str("user", c.Username()).Msg("user disconnected abruptly")
			// Only the channel hears about it, same as a /quit.
			if ch := h.channels.ChannelOf(c); ch != nil {
				h.bc.Broadcast(c.ID, proto.Disconnected(c.Username()), ch)
			}
			return reasonLost
		}
		if line == "" {
			continue
		}

		if line[0] == proto.CommandPrefix {
			if h.Interpret(c, line) {
				return reasonQuit
			}
			continue
		}

		ch, muted := h.channels.Route(c)
		switch {
		case ch == nil:
			// Between channels; nobody to deliver to.
		case muted:
			h.reply(c, proto.MsgMuted)
		default:
			h.bc.Broadcast(c.ID, proto.Chat(c.Username(), ch.name, line), ch)
		}
	}
}

func (s *session) terminate(reason string) {
	h, c := s.hub, s.client

	if h.channels.ChannelOf(c) != nil {
		_ = h.channels.Leave(c)
	}
	// An evicted client is already gone and has its own audit record.
	if err := h.clients.Remove(c); err == nil {
		h.rec.emit(clientEvent(EventDisconnected, c, "", reason))
	}
	_ = c.Close()
}
