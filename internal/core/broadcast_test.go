package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/relaychat/internal/log"
	"github.com/vovakirdan/relaychat/internal/store"
)

func TestDeliverRetriesUntilSuccess(t *testing.T) {
	h := newTestHub(t, testOptions())
	alice, conn := addClient(t, h, 1, "alice")

	conn.mu.Lock()
	conn.failFor = 2
	conn.attempts = 0
	conn.mu.Unlock()

	if !h.bc.Deliver(alice, "hello") {
		t.Fatalf("expected delivery on the third attempt")
	}
	if got := conn.attemptCount(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if got := conn.count("hello"); got != 1 {
		t.Fatalf("expected message once, got %d", got)
	}
}

func TestDeliverStopsAtRetryBudget(t *testing.T) {
	h := newTestHub(t, testOptions())
	alice, conn := addClient(t, h, 1, "alice")

	conn.mu.Lock()
	conn.dead = true
	conn.attempts = 0
	conn.mu.Unlock()

	if h.bc.Deliver(alice, "hello") {
		t.Fatalf("expected delivery to fail")
	}
	if got := conn.attemptCount(); got != testOptions().MaxAttempts {
		t.Fatalf("expected %d attempts, got %d", testOptions().MaxAttempts, got)
	}
}

func TestBroadcastEvictsUnresponsiveClient(t *testing.T) {
	h := newTestHub(t, testOptions())
	alice, aliceConn := addClient(t, h, 1, "alice")
	bob, bobConn := addClient(t, h, 2, "bob")
	_, carolConn := addClient(t, h, 3, "carol")

	bobConn.setDead(true)
	h.Broadcast(alice.ID, "hello")

	if aliceConn.count("hello") != 0 {
		t.Fatalf("sender received its own broadcast")
	}
	if carolConn.count("hello") != 1 {
		t.Fatalf("carol did not receive the broadcast")
	}
	if !bobConn.isClosed() || !bob.Closed() {
		t.Fatalf("unresponsive client was not closed")
	}
	if h.clients.FindByID(bob.ID) != nil {
		t.Fatalf("unresponsive client still registered")
	}
	if h.channels.IsMember(h.channels.Lobby(), bob.ID) {
		t.Fatalf("unresponsive client still in the lobby")
	}
	if carolConn.count("SERVER: bob left the channel.") != 1 {
		t.Fatalf("remaining members were not told about the eviction")
	}

	// A second eviction is a no-op.
	h.bc.Evict(bob)
	checkInvariants(t, h)
}

func TestBroadcastScopedToChannel(t *testing.T) {
	h := newTestHub(t, testOptions())
	alice, _ := addClient(t, h, 1, "alice")
	bob, bobConn := addClient(t, h, 2, "bob")
	_, carolConn := addClient(t, h, 3, "carol")
	_ = h.channels.Join("dev", alice)
	_ = h.channels.Join("dev", bob)

	h.bc.Broadcast(alice.ID, "dev only", h.channels.FindByName("dev"))

	if bobConn.count("dev only") != 1 {
		t.Fatalf("member did not receive channel broadcast")
	}
	if carolConn.count("dev only") != 0 {
		t.Fatalf("non-member received channel broadcast")
	}
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []*store.Event
}

func (a *recordingAuditor) RecordEvent(_ context.Context, ev *store.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return nil
}

func (a *recordingAuditor) kinds() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, ev := range a.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (a *recordingAuditor) has(kind string) bool {
	for _, k := range a.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func TestRunRecordsAuditEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	auditor := &recordingAuditor{}
	h := NewHub(testOptions(), auditor, log.Nop())
	go h.Run(ctx)

	bob, bobConn := addClient(t, h, 2, "bob")
	_, _ = addClient(t, h, 1, "alice")
	bobConn.setDead(true)
	h.Broadcast(1, "hello")

	eventually(t, func() bool { return auditor.has("joined") && auditor.has("evicted") }, "audit events missing: %v", auditor.kinds())

	auditor.mu.Lock()
	defer auditor.mu.Unlock()
	for _, ev := range auditor.events {
		if ev.Kind == "evicted" && (ev.Username != "bob" || ev.SessionID != bob.SessionID || ev.Channel != "lobby") {
			t.Fatalf("unexpected eviction record: %+v", ev)
		}
	}
}
