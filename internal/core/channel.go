package core

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/proto"
)

// LobbyAdmin is the admin id of the lobby. Client ids start at 1, so nobody
// administers the lobby.
const LobbyAdmin uint64 = 0

// Channel is a named group of clients. Name and admin never change; members
// and muted are guarded by ChannelRegistry.mu.
type Channel struct {
	name    string
	admin   uint64
	members []*Client
	muted   []uint64
}

// Name returns the channel name.
func (ch *Channel) Name() string { return ch.name }

// Admin returns the id of the founding client.
func (ch *Channel) Admin() uint64 { return ch.admin }

// ChannelRegistry owns every channel and all membership changes.
//
// Its lock is never held across a network send. Join and Leave release it
// before broadcasting their notices and take it again afterwards when more
// mutation is needed.
type ChannelRegistry struct {
	mu          sync.Mutex
	channels    []*Channel
	lobby       *Channel
	maxChannels int
	maxMembers  int
	maxNameLen  int

	bc  *Broadcaster
	rec *recorder
	log *zerolog.Logger
}

// NewChannelRegistry creates the registry with its permanent lobby.
func NewChannelRegistry(lobby string, maxChannels, maxMembers, maxNameLen int, logger *zerolog.Logger) *ChannelRegistry {
	r := &ChannelRegistry{
		maxChannels: maxChannels,
		maxMembers:  maxMembers,
		maxNameLen:  maxNameLen,
		log:         logger,
	}
	r.lobby = r.create(lobby, nil)
	return r
}

// create appends a new channel. Callers hold r.mu (or own r exclusively) and
// have checked that name is absent. A nil founder makes a lobby-style channel.
func (r *ChannelRegistry) create(name string, founder *Client) *Channel {
	admin := LobbyAdmin
	if founder != nil {
		admin = founder.ID
	}
	ch := &Channel{
		name:    name,
		admin:   admin,
		members: make([]*Client, 0, 4),
	}
	r.channels = append(r.channels, ch)
	r.log.Debug().Str("channel", name).Uint64("admin", admin).Int("current_channels", len(r.channels)).Msg("channel created")
	return ch
}

func (r *ChannelRegistry) findByName(name string) *Channel {
	for _, ch := range r.channels {
		if ch.name == name {
			return ch
		}
	}
	return nil
}

// Lobby returns the permanent default channel.
func (r *ChannelRegistry) Lobby() *Channel {
	return r.lobby
}

// FindByName returns the channel with exactly this name, or nil.
func (r *ChannelRegistry) FindByName(name string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByName(name)
}

// Join moves c into the channel called name, creating it with c as admin when
// it does not exist. The previous channel is left first, with its own notice.
// The remaining members of the new channel are told about the arrival.
//
// If the channel cannot be created or entered after the previous one was
// left, c lands in the lobby and the capacity error is returned.
func (r *ChannelRegistry) Join(name string, c *Client) error {
	c.moveMu.Lock()
	defer c.moveMu.Unlock()
	return r.join(name, c)
}

// join does the work of Join. Caller holds c.moveMu.
func (r *ChannelRegistry) join(name string, c *Client) error {
	if !ValidChannelName(name, r.maxNameLen) {
		return ErrInvalidChannelName
	}
	if c.Closed() {
		return ErrClientClosed
	}

	r.mu.Lock()
	current := c.channel
	if current != nil && current.name == name {
		r.mu.Unlock()
		return ErrAlreadyInChannel
	}
	if err := r.admissible(name, current); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	if current != nil {
		_ = r.leave(c)
	}

	var err error
	r.mu.Lock()
	if c.Closed() {
		r.mu.Unlock()
		return ErrClientClosed
	}
	target := r.findByName(name)
	switch {
	case target == nil && len(r.channels) >= r.maxChannels:
		target, err = r.lobby, ErrChannelLimit
	case target == nil:
		target = r.create(name, c)
	case len(target.members) >= r.maxMembers:
		target, err = r.lobby, ErrChannelFull
	}
	target.members = append(target.members, c)
	c.channel = target
	members := len(target.members)
	r.mu.Unlock()

	user := c.Username()
	r.log.Debug().Str("channel", target.name).Str("user", user).Int("members", members).Msg("joined channel")
	r.rec.emit(clientEvent(EventJoined, c, target.name, ""))
	r.bc.Broadcast(c.ID, proto.Joined(user, target.name), target)
	return err
}

// admissible checks capacity for a join into name. Caller holds r.mu.
func (r *ChannelRegistry) admissible(name string, current *Channel) error {
	target := r.findByName(name)
	if target != nil {
		if len(target.members) >= r.maxMembers {
			return ErrChannelFull
		}
		return nil
	}
	// Leaving a channel we are the last member of frees its slot.
	freesSlot := current != nil && current != r.lobby && len(current.members) == 1
	if len(r.channels) >= r.maxChannels && !freesSlot {
		return ErrChannelLimit
	}
	return nil
}

// Leave removes c from its channel and from that channel's muted set,
// notifies the remaining members and deletes the channel if it emptied and
// is not the lobby.
func (r *ChannelRegistry) Leave(c *Client) error {
	c.moveMu.Lock()
	defer c.moveMu.Unlock()
	return r.leave(c)
}

// leave does the work of Leave. Callers hold c.moveMu, or have marked c
// closed so that no concurrent join can place it again.
func (r *ChannelRegistry) leave(c *Client) error {
	r.mu.Lock()
	ch := c.channel
	if ch == nil {
		r.mu.Unlock()
		return ErrNotInChannel
	}
	ch.members = slices.DeleteFunc(ch.members, func(m *Client) bool { return m.ID == c.ID })
	ch.muted = slices.DeleteFunc(ch.muted, func(id uint64) bool { return id == c.ID })
	c.channel = nil
	r.log.Debug().Str("channel", ch.name).Int("members", len(ch.members)).Msg("left channel")
	r.mu.Unlock()

	// The notice goes out without the lock: a slow recipient must not stall
	// every other registry operation.
	user := c.Username()
	r.bc.Broadcast(c.ID, proto.Left(user), ch)
	r.rec.emit(clientEvent(EventLeft, c, ch.name, ""))

	r.mu.Lock()
	if len(ch.members) == 0 && ch != r.lobby {
		r.delete(ch)
	}
	r.mu.Unlock()
	return nil
}

// delete drops ch from the registry if it is still there. Caller holds r.mu.
func (r *ChannelRegistry) delete(ch *Channel) {
	i := slices.Index(r.channels, ch)
	if i < 0 {
		return
	}
	r.channels = slices.Delete(r.channels, i, i+1)
	r.log.Debug().Str("channel", ch.name).Int("current_channels", len(r.channels)).Msg("channel removed")
}

// ChannelOf returns the channel c currently belongs to, or nil.
func (r *ChannelRegistry) ChannelOf(c *Client) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return c.channel
}

// Route returns c's channel together with c's mute state on it.
func (r *ChannelRegistry) Route(c *Client) (*Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := c.channel
	if ch == nil {
		return nil, false
	}
	return ch, slices.Contains(ch.muted, c.ID)
}

// IsAdmin reports whether c administers the channel it is in.
func (r *ChannelRegistry) IsAdmin(c *Client) bool {
	_, err := r.AdminChannel(c)
	return err == nil
}

// AdminChannel returns the channel c administers. A client outside any
// channel administers nothing.
func (r *ChannelRegistry) AdminChannel(c *Client) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.channel == nil || c.channel.admin != c.ID {
		return nil, ErrNotAdmin
	}
	return c.channel, nil
}

// Kick sends target from admin's channel back to the lobby and returns the
// channel it was removed from. The membership check and the move happen under
// target's move lock, so a concurrent join by target runs entirely before or
// after the kick.
func (r *ChannelRegistry) Kick(admin, target *Client) (*Channel, error) {
	target.moveMu.Lock()
	defer target.moveMu.Unlock()

	r.mu.Lock()
	ch := admin.channel
	var err error
	switch {
	case ch == nil || ch.admin != admin.ID:
		err = ErrNotAdmin
	case target.ID == admin.ID:
		err = ErrSelfKick
	case target.channel != ch:
		err = ErrNotInChannel
	}
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := r.join(r.lobby.name, target); err != nil {
		return nil, err
	}
	return ch, nil
}

// IsMember reports whether the client with id belongs to ch.
func (r *ChannelRegistry) IsMember(ch *Channel, id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return hasMember(ch, id)
}

// IsMuted reports whether id is muted on ch.
func (r *ChannelRegistry) IsMuted(id uint64, ch *Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(ch.muted, id)
}

// Mute adds a member of ch to its muted set.
func (r *ChannelRegistry) Mute(id uint64, ch *Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !hasMember(ch, id) {
		return ErrNotInChannel
	}
	if slices.Contains(ch.muted, id) {
		return ErrAlreadyMuted
	}
	if len(ch.muted) >= r.maxMembers {
		return ErrChannelFull
	}
	ch.muted = append(ch.muted, id)
	return nil
}

// Unmute removes id from ch's muted set.
func (r *ChannelRegistry) Unmute(id uint64, ch *Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(ch.muted, id)
	if i < 0 {
		return ErrNotMuted
	}
	ch.muted = slices.Delete(ch.muted, i, i+1)
	return nil
}

// Members returns ch's members in join order.
func (r *ChannelRegistry) Members(ch *Channel) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(ch.members)
}

// Len returns the number of registered channels, lobby included.
func (r *ChannelRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

// Snapshot describes every channel in creation order.
func (r *ChannelRegistry) Snapshot() []ChannelInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ChannelInfo, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, r.describe(ch))
	}
	return out
}

// Describe returns the state of the channel called name.
func (r *ChannelRegistry) Describe(name string) (ChannelInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := r.findByName(name)
	if ch == nil {
		return ChannelInfo{}, false
	}
	return r.describe(ch), true
}

func (r *ChannelRegistry) describe(ch *Channel) ChannelInfo {
	info := ChannelInfo{
		Name:      ch.name,
		Admin:     ch.admin,
		Permanent: ch == r.lobby,
		Members:   make([]string, 0, len(ch.members)),
		Muted:     slices.Clone(ch.muted),
	}
	for _, m := range ch.members {
		info.Members = append(info.Members, m.Username())
	}
	return info
}

func hasMember(ch *Channel, id uint64) bool {
	return slices.ContainsFunc(ch.members, func(m *Client) bool { return m.ID == id })
}
