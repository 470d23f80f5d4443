package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"

	"github.com/vovakirdan/relaychat/internal/config"
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/proto"
)

// SessionHandler runs one chat session on an accepted connection.
type SessionHandler interface {
	Serve(ctx context.Context, conn core.Conn)
}

// Server is the connection acceptor. It admits at most max_users + backlog
// open connections and hands each one to its own session goroutine.
type Server struct {
	addr        string
	limits      proto.Limits
	maxConns    int
	sendTimeout time.Duration
	handler     SessionHandler
	log         *zerolog.Logger

	wg sync.WaitGroup
}

// NewServer creates an acceptor for cfg.Addr.
func NewServer(cfg *config.Config, handler SessionHandler, logger *zerolog.Logger) *Server {
	limits := proto.Limits{
		MaxMsgLen:     cfg.MaxMsgLen,
		MaxNameLen:    cfg.MaxNameLen,
		MaxChannelLen: cfg.MaxChannelLen,
	}
	return &Server{
		addr:        cfg.Addr,
		limits:      limits,
		maxConns:    cfg.MaxUsers + cfg.Backlog,
		sendTimeout: cfg.SendTimeout,
		handler:     handler,
		log:         logger,
	}
}

// ListenAndServe listens on the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or ln fails. It closes ln
// and waits for every session it started before returning. A cancelled ctx is
// not an error.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ln = netutil.LimitListener(ln, s.maxConns)
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer func() {
		stop()
		_ = ln.Close()
		s.wg.Wait()
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Int("max_conns", s.maxConns).Msg("chat server listening")

	var delay time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			// Transient failures such as running out of file descriptors.
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay *= 2
			}
			if delay > time.Second {
				delay = time.Second
			}
			s.log.Warn().Err(err).Dur("retry_in", delay).Msg("accept failed")
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		delay = 0

		s.log.Debug().Str("addr", nc.RemoteAddr().String()).Msg("connection accepted")
		conn := NewConn(nc, s.limits, s.sendTimeout)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handler.Serve(ctx, conn)
		}()
	}
}
