package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// AdminHandlers serves the read-only admin API.
type AdminHandlers struct {
	hub    ChatHub
	events store.EventStore
	log    *zerolog.Logger
}

// NewAdminHandlers creates the admin handlers. events may be nil.
func NewAdminHandlers(hub ChatHub, events store.EventStore, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{
		hub:    hub,
		events: events,
		log:    logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status   string `json:"status"`
	Clients  int    `json:"clients"`
	Channels int    `json:"channels"`
}

// Health reports liveness with current registry sizes.
// GET /health
func (h *AdminHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Clients:  len(h.hub.Clients()),
		Channels: len(h.hub.Channels()),
	})
}

// ListClients handles listing live clients.
// GET /api/clients
func (h *AdminHandlers) ListClients(c *gin.Context) {
	clients := h.hub.Clients()
	response := make([]ClientResponse, 0, len(clients))
	for _, info := range clients {
		response = append(response, clientResponse(info))
	}
	c.JSON(http.StatusOK, response)
}

// ListChannels handles listing channels, lobby first.
// GET /api/channels
func (h *AdminHandlers) ListChannels(c *gin.Context) {
	channels := h.hub.Channels()
	response := make([]ChannelResponse, 0, len(channels))
	for _, info := range channels {
		response = append(response, channelResponse(info))
	}
	c.JSON(http.StatusOK, response)
}

// GetChannel handles describing one channel.
// GET /api/channels/:name
func (h *AdminHandlers) GetChannel(c *gin.Context) {
	info, ok := h.hub.Channel(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "channel not found"})
		return
	}
	c.JSON(http.StatusOK, channelResponse(info))
}

// ListEvents handles listing recent audit events, newest first.
// GET /api/events?limit=N
func (h *AdminHandlers) ListEvents(c *gin.Context) {
	if h.events == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "audit trail disabled"})
		return
	}

	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.events.ListEvents(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Int("limit", limit).Msg("failed to list events")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, eventResponses(events))
}

// ListSessionEvents handles listing the audit trail of one session.
// GET /api/sessions/:id/events
func (h *AdminHandlers) ListSessionEvents(c *gin.Context) {
	if h.events == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "audit trail disabled"})
		return
	}

	sessionID := c.Param("id")
	events, err := h.events.ListSessionEvents(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to list session events")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if len(events) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
		return
	}
	c.JSON(http.StatusOK, eventResponses(events))
}
