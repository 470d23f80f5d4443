package core

import (
	"errors"

	"github.com/vovakirdan/relaychat/internal/proto"
)

// Interpret runs one command line issued by c and reports whether the
// session must end.
func (h *Hub) Interpret(c *Client, line string) bool {
	cmd := ParseCommand(line)
	switch cmd.Kind {
	case CommandQuit:
		return h.quit(c)
	case CommandPing:
		h.ping(c)
	case CommandRename:
		h.rename(c, cmd)
	case CommandJoin:
		h.join(c, cmd)
	case CommandMute:
		h.mute(c, cmd)
	case CommandUnmute:
		h.unmute(c, cmd)
	case CommandKick:
		h.kick(c, cmd)
	case CommandWhois:
		h.whois(c, cmd)
	default:
		h.reply(c, proto.MsgHelp)
	}
	return false
}

// reply is a single-attempt send to the issuer. A failure here surfaces on
// the issuer's next read.
func (h *Hub) reply(c *Client, msg string) {
	if err := c.Send(msg); err != nil {
		h.log.Debug().Err(err).Uint64("client_id", c.ID).Msg("reply failed")
	}
}

func (h *Hub) quit(c *Client) bool {
	if !h.bc.Deliver(c, proto.MsgQuit) {
		h.log.Info().Uint64("client_id", c.ID).Msg("quit acknowledgment not delivered")
		return true
	}
	h.log.Info().Uint64("client_id", c.ID).Str("user", c.Username()).Msg("user disconnected correctly")
	if ch := h.channels.ChannelOf(c); ch != nil {
		h.bc.Broadcast(c.ID, proto.Disconnected(c.Username()), ch)
	}
	_ = h.channels.Leave(c)
	return true
}

func (h *Hub) ping(c *Client) {
	if !h.bc.Deliver(c, proto.MsgPong) {
		h.log.Info().Str("user", c.Username()).Msg("could not ping back user")
		return
	}
	h.log.Debug().Str("user", c.Username()).Msg("pinged back user")
}

func (h *Hub) rename(c *Client, cmd Command) {
	if cmd.Arg == "" {
		h.reply(c, proto.MsgRenameSyntax)
		return
	}

	old, err := h.clients.Rename(c, cmd.Arg)
	if err != nil {
		// Invalid and taken names get the same answer.
		h.log.Debug().Err(err).Str("user", c.Username()).Str("wanted", cmd.Arg).Msg("rename rejected")
		h.reply(c, proto.MsgRenameFailed)
		return
	}

	h.log.Info().Str("from", old).Str("to", cmd.Arg).Msg("user renamed")
	h.rec.emit(clientEvent(EventRenamed, c, "", old))
	h.reply(c, proto.RenameConfirmed(cmd.Arg))
	h.bc.Broadcast(c.ID, proto.Renamed(old, cmd.Arg), nil)
}

func (h *Hub) join(c *Client, cmd Command) {
	if cmd.Arg == "" {
		h.reply(c, proto.Syntax(cmd.Name, "channel_name"))
		return
	}

	h.log.Debug().Str("user", c.Username()).Str("channel", cmd.Arg).Msg("attempting to join channel")
	switch err := h.channels.Join(cmd.Arg, c); {
	case err == nil:
	case errors.Is(err, ErrInvalidChannelName):
		h.reply(c, proto.MsgInvalidChannel)
	case errors.Is(err, ErrAlreadyInChannel):
		h.reply(c, proto.AlreadyInChannel(cmd.Arg))
	case errors.Is(err, ErrChannelLimit):
		h.reply(c, proto.MsgChannelLimit)
	case errors.Is(err, ErrChannelFull):
		h.reply(c, proto.MsgChannelFull)
	default:
		h.log.Debug().Err(err).Uint64("client_id", c.ID).Msg("join failed")
	}
}

// moderation resolves the channel an admin command applies to and its
// target. It answers the issuer itself when either cannot be resolved.
func (h *Hub) moderation(c *Client, cmd Command, notFound string) (*Channel, *Client, bool) {
	ch, err := h.channels.AdminChannel(c)
	if err != nil {
		h.reply(c, proto.MsgNotAdmin)
		return nil, nil, false
	}
	if cmd.Arg == "" {
		h.reply(c, proto.Syntax(cmd.Name, "user_name"))
		return nil, nil, false
	}
	target := h.clients.FindByUsername(cmd.Arg)
	if target == nil {
		h.reply(c, notFound)
		return nil, nil, false
	}
	return ch, target, true
}

func (h *Hub) mute(c *Client, cmd Command) {
	ch, target, ok := h.moderation(c, cmd, proto.MsgMuteFailed)
	if !ok {
		return
	}

	switch err := h.channels.Mute(target.ID, ch); {
	case errors.Is(err, ErrNotInChannel):
		h.reply(c, proto.MsgUserNotInChannel)
		return
	case err != nil:
		h.reply(c, proto.MsgMuteFailed)
		return
	}

	h.rec.emit(clientEvent(EventMuted, target, ch.name, "by "+c.Username()))
	h.reply(c, proto.Moderated(target.Username(), "muted"))
	h.reply(target, proto.MsgYouWereMuted)
}

func (h *Hub) unmute(c *Client, cmd Command) {
	ch, target, ok := h.moderation(c, cmd, proto.MsgUnmuteFailed)
	if !ok {
		return
	}

	if err := h.channels.Unmute(target.ID, ch); err != nil {
		h.reply(c, proto.MsgUnmuteFailed)
		return
	}

	h.rec.emit(clientEvent(EventUnmuted, target, ch.name, "by "+c.Username()))
	h.reply(c, proto.Moderated(target.Username(), "unmuted"))
	h.reply(target, proto.MsgYouWereUnmuted)
}

func (h *Hub) kick(c *Client, cmd Command) {
	_, target, ok := h.moderation(c, cmd, proto.MsgUserNotFound)
	if !ok {
		return
	}

	ch, err := h.channels.Kick(c, target)
	switch {
	case errors.Is(err, ErrSelfKick):
		h.reply(c, proto.MsgSelfKick)
		return
	case errors.Is(err, ErrNotAdmin):
		h.reply(c, proto.MsgNotAdmin)
		return
	case err != nil:
		h.log.Debug().Err(err).Uint64("client_id", target.ID).Msg("kick failed")
		h.reply(c, proto.MsgUserNotInChannel)
		return
	}

	h.log.Info().Str("channel", ch.name).Str("user", target.Username()).Str("by", c.Username()).Msg("user kicked")
	h.rec.emit(clientEvent(EventKicked, target, ch.name, "by "+c.Username()))
	h.reply(target, proto.MsgKicked)
	h.reply(c, proto.Moderated(target.Username(), "kicked"))
}

func (h *Hub) whois(c *Client, cmd Command) {
	_, target, ok := h.moderation(c, cmd, proto.MsgUserNotFound)
	if !ok {
		return
	}
	h.reply(c, proto.Whois(target.Username(), target.Addr()))
}
