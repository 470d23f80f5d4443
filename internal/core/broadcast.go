package core

import (
	"github.com/rs/zerolog"
)

// Broadcaster delivers messages to a recipient set and evicts recipients that
// stay unreachable for the whole retry budget. It is the only liveness check
// the server has.
type Broadcaster struct {
	clients     *ClientRegistry
	channels    *ChannelRegistry
	maxAttempts int
	rec         *recorder
	log         *zerolog.Logger
}

// Broadcast sends msg to every member of scope, or to every live client when
// scope is nil, skipping senderID. Recipients are taken in registry order at
// the time of the call; no registry lock is held while sending.
func (b *Broadcaster) Broadcast(senderID uint64, msg string, scope *Channel) {
	var recipients []*Client
	if scope == nil {
		recipients = b.clients.All()
	} else {
		recipients = b.channels.Members(scope)
	}

	for _, c := range recipients {
		// A closed recipient is already being torn down by its own session.
		if c.ID == senderID || c.Closed() {
			continue
		}
		if b.Deliver(c, msg) {
			continue
		}
		b.Evict(c)
	}
}

// Deliver sends msg to c, retrying immediately on failure. It reports whether
// one of the maxAttempts attempts succeeded.
func (b *Broadcaster) Deliver(c *Client, msg string) bool {
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		err := c.Send(msg)
		if err == nil {
			return true
		}
		b.log.Warn().
			Err(err).
			Uint64("client_id", c.ID).
			Str("user", c.Username()).
			Int("attempt", attempt).
			Msg("error sending message to client")
	}
	return false
}

// Evict disconnects an unresponsive client: it leaves its channel, drops out
// of the client registry and loses its connection. Evicting twice is harmless.
func (b *Broadcaster) Evict(c *Client) {
	// Mark closed first so a concurrent Join cannot put it back in a channel.
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	b.log.Warn().Uint64("client_id", c.ID).Str("user", c.Username()).Msg("client unresponsive, disconnecting")

	ch := b.channels.ChannelOf(c)
	// The caller may hold another client's move lock; the closed flag keeps
	// joins from placing c again, so the unlocked leave is enough.
	_ = b.channels.leave(c)
	_ = b.clients.Remove(c)
	_ = c.Close()

	channel := ""
	if ch != nil {
		channel = ch.name
	}
	b.rec.emit(clientEvent(EventEvicted, c, channel, "retry budget exhausted"))
}
