package core

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Conn is the transport handle owned by one session. Receive blocks until a
// whole frame arrives. Send delivers a whole frame or fails; there is no
// partial success.
type Conn interface {
	Receive() (string, error)
	Send(msg string) error
	PeerAddress() string
	Close() error
}

// Client is a connected chat participant.
type Client struct {
	ID          uint64
	SessionID   string
	ConnectedAt time.Time

	conn Conn
	addr string

	// sendMu serializes frames from concurrent broadcasters.
	sendMu sync.Mutex

	mu       sync.RWMutex
	username string

	// moveMu serializes channel changes of this client across the unlocked
	// broadcast between leaving and entering. Taken before ChannelRegistry.mu.
	moveMu sync.Mutex
	// channel is guarded by ChannelRegistry.mu.
	channel *Channel

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewClient wraps an accepted connection. The client starts with the default
// username for its id and no channel.
func NewClient(id uint64, conn Conn) *Client {
	return &Client{
		ID:          id,
		SessionID:   uuid.NewString(),
		ConnectedAt: time.Now(),
		conn:        conn,
		addr:        conn.PeerAddress(),
		username:    DefaultUsername(id),
	}
}

// DefaultUsername is the name given to a client that has not picked one.
func DefaultUsername(id uint64) string {
	return "user_" + strconv.FormatUint(id, 10)
}

// Username returns the current name.
func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

func (c *Client) setUsername(name string) {
	c.mu.Lock()
	c.username = name
	c.mu.Unlock()
}

// Addr is the transport-level origin address.
func (c *Client) Addr() string {
	return c.addr
}

// Send writes one frame to the client. It is safe for concurrent use.
func (c *Client) Send(msg string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.conn.Send(msg)
}

// Closed reports whether the client's connection has been released.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Close marks the client closed and releases its connection. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
	})
	return err
}
