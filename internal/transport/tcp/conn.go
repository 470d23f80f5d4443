// Package tcp carries chat sessions over raw TCP using fixed-size frames.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/vovakirdan/relaychat/internal/proto"
)

// ErrBroken is returned by Send once a frame was only partly written. The
// stream is out of step with the peer from then on.
var ErrBroken = errors.New("connection broken by partial write")

// Conn is a framed TCP connection. Every Receive reads exactly one frame of
// readSize bytes; every Send writes exactly one frame of writeSize bytes.
type Conn struct {
	conn        net.Conn
	readBuf     []byte
	writeSize   int
	sendTimeout time.Duration
	broken      atomic.Bool
}

// NewConn wraps an accepted connection on the server side: it reads client
// frames and writes the wider server frames.
func NewConn(conn net.Conn, limits proto.Limits, sendTimeout time.Duration) *Conn {
	return newConn(conn, limits.InboundLen(), limits.OutboundLen(), sendTimeout)
}

// NewClientConn wraps a dialed connection on the client side.
func NewClientConn(conn net.Conn, limits proto.Limits, sendTimeout time.Duration) *Conn {
	return newConn(conn, limits.OutboundLen(), limits.InboundLen(), sendTimeout)
}

func newConn(conn net.Conn, readSize, writeSize int, sendTimeout time.Duration) *Conn {
	return &Conn{
		conn:        conn,
		readBuf:     make([]byte, readSize),
		writeSize:   writeSize,
		sendTimeout: sendTimeout,
	}
}

// Dial connects to a chat server and returns the client side of the connection.
func Dial(ctx context.Context, addr string, limits proto.Limits) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewClientConn(conn, limits, 0), nil
}

// Receive blocks until a whole frame has arrived and returns its text.
// Receive must not be called concurrently.
func (c *Conn) Receive() (string, error) {
	if _, err := io.ReadFull(c.conn, c.readBuf); err != nil {
		return "", err
	}
	return proto.Decode(c.readBuf), nil
}

// Send writes msg as one frame, truncated to the frame size.
func (c *Conn) Send(msg string) error {
	if c.broken.Load() {
		return ErrBroken
	}
	if c.sendTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout)); err != nil {
			return err
		}
	}

	n, err := c.conn.Write(proto.Encode(msg, c.writeSize))
	if err != nil {
		if n > 0 {
			c.broken.Store(true)
		}
		return err
	}
	return nil
}

// PeerAddress returns the remote IP, or the full remote address when it has no port.
func (c *Conn) PeerAddress() string {
	addr := c.conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// Close closes the underlying connection. Pending Receive calls return an error.
func (c *Conn) Close() error {
	return c.conn.Close()
}
