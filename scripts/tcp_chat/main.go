package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/vovakirdan/relaychat/internal/proto"
	"github.com/vovakirdan/relaychat/internal/transport/tcp"
)

func main() {
	if err := run(); err != nil {
		log.Printf("tcp_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:8888", "chat server address")
	user := flag.String("user", ":", "username to propose (\":\" lets the server pick)")
	maxMsg := flag.Int("max-msg-len", 4096, "server max_msg_len")
	maxName := flag.Int("max-name-len", 50, "server max_name_len")
	maxChannel := flag.Int("max-channel-len", 200, "server max_channel_len")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limits := proto.Limits{MaxMsgLen: *maxMsg, MaxNameLen: *maxName, MaxChannelLen: *maxChannel}
	conn, err := tcp.Dial(ctx, *addr, limits)
	if err != nil {
		return err
	}
	defer conn.Close()
	context.AfterFunc(ctx, func() { _ = conn.Close() })

	if err := conn.Send(*user); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	fmt.Printf("Connected to %s\n", *addr)
	fmt.Println("Type messages and press Enter to send. /quit or Ctrl+C to exit.")

	done := make(chan struct{})
	go func() {
		defer close(done)
		readLoop(conn)
	}()

	writeLoop(conn, done)
	return nil
}

func readLoop(conn *tcp.Conn) {
	for {
		msg, err := conn.Receive()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Printf("read error: %v", err)
			}
			return
		}
		fmt.Println(msg)
		if msg == proto.MsgQuit {
			return
		}
	}
}

func writeLoop(conn *tcp.Conn, done <-chan struct{}) {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return
		case line, ok := <-lines:
			if !ok {
				_ = conn.Send("/quit")
				<-done
				return
			}
			if line == "" {
				continue
			}
			if err := conn.Send(line); err != nil {
				log.Printf("send: %v", err)
				return
			}
		}
	}
}
