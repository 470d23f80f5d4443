package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/relaychat/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to propose")
	channel := flag.String("channel", "smoke", "channel to join")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	send := func(msg string) error {
		if err := conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
			return fmt.Errorf("send %q: %w", msg, err)
		}
		return nil
	}
	expect := func(want string) error {
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return fmt.Errorf("waiting for %q: %w", want, err)
			}
			fmt.Printf("< %s\n", data)
			if string(data) == want {
				return nil
			}
		}
	}

	steps := []struct {
		send   string
		expect string
	}{
		{*user, proto.MsgHelpHint},
		{"/ping", proto.MsgPong},
		{"/join " + *channel, ""},
		{*text, ""},
		{"/quit", proto.MsgQuit},
	}
	for _, step := range steps {
		fmt.Printf("> %s\n", step.send)
		if err := send(step.send); err != nil {
			return err
		}
		if step.expect == "" {
			continue
		}
		if err := expect(step.expect); err != nil {
			return err
		}
	}

	fmt.Println("smoke test passed")
	return nil
}
