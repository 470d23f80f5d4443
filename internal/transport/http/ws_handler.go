package http

import (
	"context"
	"net"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/proto"
)

// WSHandler upgrades HTTP connections and hosts a chat session on each one.
// One text message carries one frame.
type WSHandler struct {
	hub         ChatHub
	limits      proto.Limits
	sendTimeout time.Duration
	log         *zerolog.Logger

	sessions sync.WaitGroup
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub ChatHub, limits proto.Limits, sendTimeout time.Duration, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:         hub,
		limits:      limits,
		sendTimeout: sendTimeout,
		log:         logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	conn.SetReadLimit(int64(h.limits.InboundLen()))

	h.sessions.Add(1)
	defer h.sessions.Done()

	ctx := r.Context()
	// Reads end when the session closes the socket. A cancelled read context
	// would close it before the shutdown notice is written.
	readCtx := context.WithoutCancel(ctx)
	wc := &wsConn{
		conn:        conn,
		ctx:         readCtx,
		addr:        remoteHost(r.RemoteAddr),
		writeSize:   h.limits.OutboundLen(),
		sendTimeout: h.sendTimeout,
	}
	h.log.Debug().Str("addr", wc.addr).Msg("ws session started")
	h.hub.Serve(ctx, wc)
}

// Wait blocks until every hosted session has ended or ctx expires.
func (h *WSHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wsConn adapts a WebSocket to the session's connection contract.
type wsConn struct {
	conn        *websocket.Conn
	ctx         context.Context
	addr        string
	writeSize   int
	sendTimeout time.Duration
}

func (c *wsConn) Receive() (string, error) {
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return "", err
	}
	return proto.Decode(data), nil
}

func (c *wsConn) Send(msg string) error {
	ctx := context.Background()
	if c.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.sendTimeout)
		defer cancel()
	}
	return c.conn.Write(ctx, websocket.MessageText, []byte(proto.Truncate(msg, c.writeSize)))
}

func (c *wsConn) PeerAddress() string {
	return c.addr
}

func (c *wsConn) Close() error {
	return c.conn.CloseNow()
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
