package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/relaychat/internal/config"
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/store"
	"github.com/vovakirdan/relaychat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/relaychat/internal/transport/http"
	"github.com/vovakirdan/relaychat/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	chat            *tcp.Server
	http            *transporthttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.EventStore
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. An empty
// database path disables the audit trail; an empty HTTP address disables the
// admin API and the WebSocket gateway.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}

	var auditor core.Auditor
	if cfg.DatabasePath != "" {
		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")
		a.store = st
		auditor = st
	}

	a.hub = core.NewHub(core.Options{
		Lobby:         cfg.Lobby,
		MaxUsers:      cfg.MaxUsers,
		MaxChannels:   cfg.MaxChannels,
		MaxNameLen:    cfg.MaxNameLen,
		MaxChannelLen: cfg.MaxChannelLen,
		MaxAttempts:   cfg.MaxRetries,
	}, auditor, logger)

	a.chat = tcp.NewServer(cfg, a.hub, logger)
	if cfg.HTTPAddr != "" {
		a.http = transporthttp.NewServer(a.hub, a.store, cfg, logger)
	}

	return a, nil
}

// Run starts the chat and HTTP servers and blocks until context cancellation
// or fatal error. Live sessions are told the server is closing before their
// connections are dropped.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	// The audit drain outlives the sessions so their last events are recorded.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		a.hub.Run(auditCtx)
	}()
	defer func() {
		stopAudit()
		<-auditDone
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.chat.ListenAndServe(gctx)
	})

	if a.http != nil {
		g.Go(func() error {
			return a.http.ListenAndServe(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()

			a.log.Info().Msg("shutting down http server")
			if err := a.http.Shutdown(shutdownCtx); err != nil {
				a.log.Warn().Err(err).Msg("http shutdown incomplete")
			}
			return nil
		})
	}

	err := g.Wait()
	a.log.Info().Msg("all sessions closed")
	return err
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
