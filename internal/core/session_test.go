package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/relaychat/internal/proto"
)

func waitInChannel(t *testing.T, h *Hub, user, channel string) {
	t.Helper()
	eventually(t, func() bool {
		c := h.clients.FindByUsername(user)
		if c == nil {
			return false
		}
		ch := h.channels.ChannelOf(c)
		return ch != nil && ch.Name() == channel
	}, "%s never reached channel %s", user, channel)
}

func TestHandshakeNames(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	h := newTestHub(t, testOptions())

	anon := connect(t, ctx, h, ":")
	if h.clients.FindByUsername("user_1") == nil {
		t.Fatalf("expected default name user_1")
	}

	alice := connect(t, ctx, h, "alice")
	mustReceive(t, anon, proto.Connected("alice"))
	mustReceive(t, anon, proto.Joined("alice", "lobby"))
	if alice.count(proto.Connected("alice")) != 0 {
		t.Fatalf("new client received its own connect notice")
	}

	taken := connect(t, ctx, h, "alice")
	mustReceive(t, taken, proto.NameTaken("alice", "user_3"))

	invalid := connect(t, ctx, h, "bad name")
	mustReceive(t, invalid, proto.NameInvalid("bad name", "user_4"))

	own := connect(t, ctx, h, "user_5")
	if own.count(proto.NameTaken("user_5", "user_5")) != 0 {
		t.Fatalf("proposing the default name was reported as taken")
	}
	if h.clients.FindByUsername("user_5") == nil {
		t.Fatalf("expected user_5 to keep its default name")
	}

	checkInvariants(t, h)
}

func TestHandshakeServerFull(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	opts := testOptions()
	opts.MaxUsers = 1
	h := newTestHub(t, opts)

	connect(t, ctx, h, "alice")

	conn := newFakeConn("127.0.0.1:2")
	go h.Serve(ctx, conn)
	conn.write("bob")
	mustReceive(t, conn, proto.MsgServerFull)
	eventually(t, conn.isClosed, "rejected connection was not closed")
	if h.clients.Len() != 1 {
		t.Fatalf("expected 1 client, got %d", h.clients.Len())
	}
}

func TestChatStaysInChannel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	h := newTestHub(t, testOptions())

	alice := connect(t, ctx, h, "alice")
	bob := connect(t, ctx, h, "bob")
	carol := connect(t, ctx, h, "carol")

	alice.write("/join dev")
	waitInChannel(t, h, "alice", "dev")
	bob.write("/join dev")
	mustReceive(t, alice, proto.Joined("bob", "dev"))

	alice.write("hi")
	mustReceive(t, bob, proto.Chat("alice", "dev", "hi"))
	if alice.count(proto.Chat("alice", "dev", "hi")) != 0 {
		t.Fatalf("sender received its own message")
	}
	if carol.count(proto.Chat("alice", "dev", "hi")) != 0 {
		t.Fatalf("message leaked outside the channel")
	}
}

func TestModerationCommands(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	h := newTestHub(t, testOptions())

	alice := connect(t, ctx, h, "alice")
	bob := connect(t, ctx, h, "bob")
	connect(t, ctx, h, "carol")

	alice.write("/join dev")
	waitInChannel(t, h, "alice", "dev")
	bob.write("/join dev")
	mustReceive(t, alice, proto.Joined("bob", "dev"))

	bob.write("/mute alice")
	mustReceive(t, bob, proto.MsgNotAdmin)

	alice.write("/mute")
	mustReceive(t, alice, proto.Syntax("/mute", "user_name"))

	alice.write("/mute carol")
	mustReceive(t, alice, proto.MsgUserNotInChannel)

	alice.write("/mute bob")
	mustReceive(t, bob, proto.MsgYouWereMuted)
	mustReceive(t, alice, proto.Moderated("bob", "muted"))

	bob.write("can anyone hear me")
	mustReceive(t, bob, proto.MsgMuted)
	if alice.count(proto.Chat("bob", "dev", "can anyone hear me")) != 0 {
		t.Fatalf("muted member's message was delivered")
	}

	alice.write("/mute bob")
	mustReceive(t, alice, proto.MsgMuteFailed)

	alice.write("/unmute bob")
	mustReceive(t, bob, proto.MsgYouWereUnmuted)
	bob.write("back again")
	mustReceive(t, alice, proto.Chat("bob", "dev", "back again"))

	alice.write("/unmute bob")
	mustReceive(t, alice, proto.MsgUnmuteFailed)

	alice.write("/whois bob")
	mustReceive(t, alice, proto.Whois("bob", "127.0.0.1:bob"))

	alice.write("/kick alice")
	mustReceive(t, alice, proto.MsgSelfKick)

	alice.write("/kick nobody")
	mustReceive(t, alice, proto.MsgUserNotFound)

	alice.write("/kick bob")
	mustReceive(t, bob, proto.MsgKicked)
	mustReceive(t, alice, proto.Moderated("bob", "kicked"))
	waitInChannel(t, h, "bob", "lobby")
	dev, ok := h.channels.Describe("dev")
	if !ok || len(dev.Members) != 1 || dev.Members[0] != "alice" {
		t.Fatalf("dev after kick = %+v, %v; want alice alone", dev, ok)
	}

	alice.write("/kick bob")
	mustReceive(t, alice, proto.MsgUserNotInChannel)

	checkInvariants(t, h)
}

func TestRenameCommand(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	h := newTestHub(t, testOptions())

	alice := connect(t, ctx, h, "alice")
	bob := connect(t, ctx, h, "bob")

	alice.write("/nickname")
	mustReceive(t, alice, proto.MsgRenameSyntax)

	alice.write("/nickname bob")
	mustReceive(t, alice, proto.MsgRenameFailed)

	alice.write("/nickname has:colon")
	eventually(t, func() bool { return alice.count(proto.MsgRenameFailed) == 2 }, "invalid rename was not rejected")

	alice.write("/nickname carol")
	mustReceive(t, alice, proto.RenameConfirmed("carol"))
	mustReceive(t, bob, proto.Renamed("alice", "carol"))
	if h.clients.FindByUsername("alice") != nil || h.clients.FindByUsername("carol") == nil {
		t.Fatalf("registry does not reflect the rename")
	}
}

func TestJoinCommandErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	opts := testOptions()
	opts.MaxChannels = 2
	h := newTestHub(t, opts)

	alice := connect(t, ctx, h, "alice")
	bob := connect(t, ctx, h, "bob")

	alice.write("/join")
	mustReceive(t, alice, proto.Syntax("/join", "channel_name"))

	alice.write("/join a,b")
	mustReceive(t, alice, proto.MsgInvalidChannel)

	alice.write("/join lobby")
	mustReceive(t, alice, proto.AlreadyInChannel("lobby"))

	alice.write("/join dev")
	waitInChannel(t, h, "alice", "dev")

	bob.write("/join ops")
	mustReceive(t, bob, proto.MsgChannelLimit)
	waitInChannel(t, h, "bob", "lobby")
}

func TestPingAndUnknownCommand(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	h := newTestHub(t, testOptions())

	alice := connect(t, ctx, h, "alice")

	alice.write("/ping")
	mustReceive(t, alice, proto.MsgPong)

	alice.write("/help")
	mustReceive(t, alice, proto.MsgHelp)

	alice.write("/pingpong")
	eventually(t, func() bool { return alice.count(proto.MsgHelp) == 2 }, "unknown command did not get help")
}

func TestQuitCommand(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	h := newTestHub(t, testOptions())

	alice := connect(t, ctx, h, "alice")
	bob := connect(t, ctx, h, "bob")

	bob.write("/quit")
	mustReceive(t, bob, proto.MsgQuit)
	mustReceive(t, alice, proto.Disconnected("bob"))
	eventually(t, bob.isClosed, "connection not closed after quit")
	eventually(t, func() bool { return h.clients.Len() == 1 }, "client not removed after quit")
	checkInvariants(t, h)
}

func TestSoleMemberDisconnectDeletesChannel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	h := newTestHub(t, testOptions())

	alice := connect(t, ctx, h, "alice")
	bob := connect(t, ctx, h, "bob")

	alice.write("/join dev")
	waitInChannel(t, h, "alice", "dev")

	_ = alice.Close()
	eventually(t, func() bool { return h.channels.FindByName("dev") == nil }, "channel survived its last member")
	eventually(t, func() bool { return h.clients.Len() == 1 }, "client not removed after disconnect")
	if bob.count(proto.Disconnected("alice")) != 0 {
		t.Fatalf("disconnect notice leaked outside the channel")
	}
	checkInvariants(t, h)
}

func TestShutdownNotifiesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := newTestHub(t, testOptions())

	alice := connect(t, ctx, h, "alice")
	cancel()

	mustReceive(t, alice, proto.MsgServerClosing)
	mustReceive(t, alice, proto.MsgQuit)
	eventually(t, alice.isClosed, "connection not closed on shutdown")
	eventually(t, func() bool { return h.clients.Len() == 0 }, "client not released on shutdown")
}

func TestConcurrentSessionsKeepInvariants(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h := newTestHub(t, testOptions())

	channels := []string{"lobby", "a", "b", "c", "d", "e"}
	conns := make([]*fakeConn, 6)
	for i := range conns {
		conns[i] = connect(t, ctx, h, fmt.Sprintf("u%d", i))
	}

	var wg sync.WaitGroup
	for i, conn := range conns {
		wg.Add(1)
		go func(i int, conn *fakeConn) {
			defer wg.Done()
			for n := 0; n < 20; n++ {
				conn.write("/join " + channels[(i+n)%len(channels)])
				conn.write(fmt.Sprintf("message %d", n))
			}
			conn.write("/ping")
		}(i, conn)
	}
	wg.Wait()

	for _, conn := range conns {
		mustReceive(t, conn, proto.MsgPong)
	}
	checkInvariants(t, h)
}
