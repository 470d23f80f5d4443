package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/config"
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/proto"
	"github.com/vovakirdan/relaychat/internal/store"
)

// ChatHub is the part of the hub the HTTP layer needs.
type ChatHub interface {
	Serve(ctx context.Context, conn core.Conn)
	Clients() []core.ClientInfo
	Channels() []core.ChannelInfo
	Channel(name string) (core.ChannelInfo, bool)
}

// Server is the admin API and WebSocket gateway.
type Server struct {
	http *stdhttp.Server
	ws   *WSHandler
	log  *zerolog.Logger
}

// NewServer builds the HTTP server. events may be nil when the audit trail is disabled.
func NewServer(hub ChatHub, events store.EventStore, cfg *config.Config, logger *zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	limits := proto.Limits{
		MaxMsgLen:     cfg.MaxMsgLen,
		MaxNameLen:    cfg.MaxNameLen,
		MaxChannelLen: cfg.MaxChannelLen,
	}
	ws := NewWSHandler(hub, limits, cfg.SendTimeout, logger)
	admin := NewAdminHandlers(hub, events, logger)

	router.GET("/health", admin.Health)
	router.GET("/ws", gin.WrapH(ws))

	api := router.Group("/api")
	{
		api.GET("/clients", admin.ListClients)
		api.GET("/channels", admin.ListChannels)
		api.GET("/channels/:name", admin.GetChannel)
		api.GET("/events", admin.ListEvents)
		api.GET("/sessions/:id/events", admin.ListSessionEvents)
	}

	srv := &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return &Server{
		http: srv,
		ws:   ws,
		log:  logger,
	}
}

// Handler returns the root handler.
func (s *Server) Handler() stdhttp.Handler {
	return s.http.Handler
}

// ListenAndServe serves until Shutdown is called. Requests, and the sessions
// they host, run under ctx.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.http.BaseContext = func(net.Listener) context.Context { return ctx }
	s.log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight requests and
// WebSocket sessions until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if waitErr := s.ws.Wait(ctx); err == nil {
		err = waitErr
	}
	return err
}
