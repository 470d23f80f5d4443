package http

import (
	"time"

	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/store"
)

// ClientResponse represents a live client in API responses.
type ClientResponse struct {
	ID          uint64 `json:"id"`
	SessionID   string `json:"session_id"`
	Username    string `json:"username"`
	Channel     string `json:"channel,omitempty"`
	Addr        string `json:"addr"`
	ConnectedAt string `json:"connected_at"`
}

// ChannelResponse represents a channel in API responses.
type ChannelResponse struct {
	Name      string   `json:"name"`
	Admin     *uint64  `json:"admin,omitempty"`
	Permanent bool     `json:"permanent"`
	Members   []string `json:"members"`
	Muted     []uint64 `json:"muted"`
}

// EventResponse represents an audit event in API responses.
type EventResponse struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	ClientID  int64  `json:"client_id"`
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
	Channel   string `json:"channel,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

func clientResponse(info core.ClientInfo) ClientResponse {
	return ClientResponse{
		ID:          info.ID,
		SessionID:   info.SessionID,
		Username:    info.Username,
		Channel:     info.Channel,
		Addr:        info.Addr,
		ConnectedAt: info.ConnectedAt.Format(time.RFC3339),
	}
}

func channelResponse(info core.ChannelInfo) ChannelResponse {
	resp := ChannelResponse{
		Name:      info.Name,
		Permanent: info.Permanent,
		Members:   info.Members,
		Muted:     info.Muted,
	}
	if info.Admin != core.LobbyAdmin {
		admin := info.Admin
		resp.Admin = &admin
	}
	if resp.Muted == nil {
		resp.Muted = []uint64{}
	}
	return resp
}

func eventResponses(events []store.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, EventResponse{
			ID:        ev.ID,
			Kind:      ev.Kind,
			ClientID:  ev.ClientID,
			SessionID: ev.SessionID,
			Username:  ev.Username,
			Channel:   ev.Channel,
			Detail:    ev.Detail,
			CreatedAt: ev.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return out
}
