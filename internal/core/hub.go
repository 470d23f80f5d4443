package core

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/store"
)

const auditQueueSize = 256

// Options are the limits the hub enforces.
type Options struct {
	Lobby         string
	MaxUsers      int
	MaxChannels   int
	MaxNameLen    int
	MaxChannelLen int
	// MaxAttempts is the number of send attempts before a recipient is
	// declared unresponsive.
	MaxAttempts int
}

// Auditor receives audit events drained from the hub.
type Auditor interface {
	RecordEvent(ctx context.Context, ev *store.Event) error
}

// Hub is the server context: it owns the client and channel registries, the
// broadcast engine and the command interpreter, and hosts one session per
// connection.
type Hub struct {
	opts     Options
	clients  *ClientRegistry
	channels *ChannelRegistry
	bc       *Broadcaster
	rec      *recorder
	auditor  Auditor
	log      *zerolog.Logger
	nextID   atomic.Uint64
}

// ClientInfo is a point-in-time view of a live client.
type ClientInfo struct {
	ID          uint64
	SessionID   string
	Username    string
	Channel     string
	Addr        string
	ConnectedAt time.Time
}

// ChannelInfo is a point-in-time view of a channel.
type ChannelInfo struct {
	Name      string
	Admin     uint64
	Permanent bool
	Members   []string
	Muted     []uint64
}

// NewHub creates a hub with an empty client registry and the lobby channel.
// auditor may be nil.
func NewHub(opts Options, auditor Auditor, logger *zerolog.Logger) *Hub {
	rec := newRecorder(auditQueueSize, logger)
	clients := NewClientRegistry(opts.MaxUsers, opts.MaxNameLen, logger)
	channels := NewChannelRegistry(opts.Lobby, opts.MaxChannels, opts.MaxUsers, opts.MaxChannelLen, logger)
	bc := &Broadcaster{
		clients:     clients,
		channels:    channels,
		maxAttempts: opts.MaxAttempts,
		rec:         rec,
		log:         logger,
	}
	channels.bc = bc
	channels.rec = rec

	return &Hub{
		opts:     opts,
		clients:  clients,
		channels: channels,
		bc:       bc,
		rec:      rec,
		auditor:  auditor,
		log:      logger,
	}
}

// Run drains audit events into the auditor until ctx is done, then flushes
// what is already queued.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case ev := <-h.rec.events:
			h.record(ctx, ev)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			for {
				select {
				case ev := <-h.rec.events:
					h.record(flushCtx, ev)
				default:
					return
				}
			}
		}
	}
}

func (h *Hub) record(ctx context.Context, ev Event) {
	if h.auditor == nil {
		return
	}
	rec := &store.Event{
		Kind:      ev.Kind.String(),
		ClientID:  int64(ev.ClientID),
		SessionID: ev.SessionID,
		Username:  ev.User,
		Channel:   ev.Channel,
		Detail:    ev.Detail,
		CreatedAt: ev.At,
	}
	if err := h.auditor.RecordEvent(ctx, rec); err != nil {
		h.log.Warn().Err(err).Str("kind", rec.Kind).Msg("failed to record audit event")
	}
}

// Broadcast sends msg to every live client except senderID.
func (h *Hub) Broadcast(senderID uint64, msg string) {
	h.bc.Broadcast(senderID, msg, nil)
}

// Clients describes every live client in registration order.
func (h *Hub) Clients() []ClientInfo {
	clients := h.clients.All()
	out := make([]ClientInfo, 0, len(clients))
	for _, c := range clients {
		info := ClientInfo{
			ID:          c.ID,
			SessionID:   c.SessionID,
			Username:    c.Username(),
			Addr:        c.Addr(),
			ConnectedAt: c.ConnectedAt,
		}
		if ch := h.channels.ChannelOf(c); ch != nil {
			info.Channel = ch.name
		}
		out = append(out, info)
	}
	return out
}

// Channels describes every channel, lobby first.
func (h *Hub) Channels() []ChannelInfo {
	return h.channels.Snapshot()
}

// Channel describes the channel called name.
func (h *Hub) Channel(name string) (ChannelInfo, bool) {
	return h.channels.Describe(name)
}
