package core

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/relaychat/internal/log"
)

var errSendFailed = errors.New("send failed")

// fakeConn is an in-memory Conn. Frames written by the test to inbound are
// read by the session; frames the server sends are kept in sent.
type fakeConn struct {
	addr      string
	inbound   chan string
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	sent     []string
	attempts int
	failFor  int
	dead     bool

	// hold and held park the next Send until hold is closed.
	hold chan struct{}
	held chan struct{}
}

func newFakeConn(addr string) *fakeConn {
	return &fakeConn{
		addr:    addr,
		inbound: make(chan string, 16),
		done:    make(chan struct{}),
	}
}

func (f *fakeConn) Receive() (string, error) {
	select {
	case msg := <-f.inbound:
		return msg, nil
	case <-f.done:
		return "", io.EOF
	}
}

func (f *fakeConn) Send(msg string) error {
	f.mu.Lock()
	hold, held := f.hold, f.held
	f.hold, f.held = nil, nil
	f.mu.Unlock()
	if hold != nil {
		close(held)
		<-hold
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.dead {
		return errSendFailed
	}
	if f.failFor > 0 {
		f.failFor--
		return errSendFailed
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeConn) PeerAddress() string { return f.addr }

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *fakeConn) write(msg string) {
	f.inbound <- msg
}

func (f *fakeConn) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent)
}

func (f *fakeConn) count(msg string) int {
	n := 0
	for _, m := range f.messages() {
		if m == msg {
			n++
		}
	}
	return n
}

func (f *fakeConn) setDead(dead bool) {
	f.mu.Lock()
	f.dead = dead
	f.mu.Unlock()
}

// holdNextSend parks the next Send. The returned channel is closed once a
// Send is parked; release lets it continue.
func (f *fakeConn) holdNextSend() (held <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = make(chan struct{})
	f.held = make(chan struct{})
	hold := f.hold
	return f.held, func() { close(hold) }
}

func (f *fakeConn) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func testOptions() Options {
	return Options{
		Lobby:         "lobby",
		MaxUsers:      8,
		MaxChannels:   4,
		MaxNameLen:    16,
		MaxChannelLen: 32,
		MaxAttempts:   3,
	}
}

func newTestHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	return NewHub(opts, nil, log.Nop())
}

// connect starts a session for name and waits for the handshake to finish.
func connect(t *testing.T, ctx context.Context, h *Hub, name string) *fakeConn {
	t.Helper()

	conn := newFakeConn("127.0.0.1:" + name)
	go h.Serve(ctx, conn)
	conn.write(name)
	mustReceive(t, conn, "SERVER: Type /help to see available commands.")
	return conn
}

// mustReceive waits until conn has been sent msg.
func mustReceive(t *testing.T, conn *fakeConn, msg string) {
	t.Helper()
	eventually(t, func() bool { return conn.count(msg) > 0 }, "message %q not received; got %q", msg, conn.messages())
}

// eventually polls cond for up to two seconds.
func eventually(t *testing.T, cond func() bool, format string, args ...any) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf(format, args...)
}

// checkInvariants verifies the registry state the hub must keep at rest.
func checkInvariants(t *testing.T, h *Hub) {
	t.Helper()

	clients := h.clients.All()

	h.channels.mu.Lock()
	defer h.channels.mu.Unlock()

	if len(h.channels.channels) > h.opts.MaxChannels {
		t.Fatalf("channel count %d exceeds limit %d", len(h.channels.channels), h.opts.MaxChannels)
	}
	if h.channels.findByName(h.opts.Lobby) != h.channels.lobby {
		t.Fatalf("lobby missing from registry")
	}

	seen := make(map[uint64]string)
	names := make(map[string]bool)
	for _, ch := range h.channels.channels {
		if names[ch.name] {
			t.Fatalf("duplicate channel %q", ch.name)
		}
		names[ch.name] = true
		if len(ch.members) == 0 && ch != h.channels.lobby {
			t.Fatalf("empty channel %q still registered", ch.name)
		}
		for _, m := range ch.members {
			if prev, ok := seen[m.ID]; ok {
				t.Fatalf("client %d in both %q and %q", m.ID, prev, ch.name)
			}
			seen[m.ID] = ch.name
			if m.channel != ch {
				t.Fatalf("client %d back-reference does not match %q", m.ID, ch.name)
			}
		}
		for _, id := range ch.muted {
			if !hasMember(ch, id) {
				t.Fatalf("muted id %d is not a member of %q", id, ch.name)
			}
		}
	}

	users := make(map[string]bool)
	for _, c := range clients {
		if users[c.Username()] {
			t.Fatalf("duplicate username %q", c.Username())
		}
		users[c.Username()] = true
		if _, ok := seen[c.ID]; !ok {
			t.Fatalf("client %d (%s) is in no channel", c.ID, c.Username())
		}
	}
}
