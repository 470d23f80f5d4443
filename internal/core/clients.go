package core

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// ClientRegistry is the bounded set of live clients. Every operation
// serializes on one lock and none of them touches the network.
type ClientRegistry struct {
	mu         sync.RWMutex
	clients    []*Client
	max        int
	maxNameLen int
	log        *zerolog.Logger
}

// NewClientRegistry creates an empty registry holding at most max clients.
func NewClientRegistry(max, maxNameLen int, logger *zerolog.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients:    make([]*Client, 0, max),
		max:        max,
		maxNameLen: maxNameLen,
		log:        logger,
	}
}

// Add registers c. It fails with ErrServerFull when the registry is at
// capacity. If c's current name is already held by someone else, c gets a
// suffixed default so usernames stay unique.
func (r *ClientRegistry) Add(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.clients) >= r.max {
		r.log.Info().Uint64("client_id", c.ID).Int("max_users", r.max).Msg("did not add client, max users online")
		return ErrServerFull
	}
	if r.findByIDLocked(c.ID) != nil {
		return fmt.Errorf("client %d already registered", c.ID)
	}

	name := c.Username()
	for n := 1; !r.uniqueLocked(name); n++ {
		name = fmt.Sprintf("%s_%d", DefaultUsername(c.ID), n)
	}
	c.setUsername(name)

	r.clients = append(r.clients, c)
	r.log.Debug().Int("current_users", len(r.clients)).Msg("client added")
	return nil
}

// Remove unregisters c, keeping the relative order of the others.
func (r *ClientRegistry) Remove(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.clients, func(other *Client) bool { return other.ID == c.ID })
	if i < 0 {
		return ErrUserNotFound
	}
	r.clients = slices.Delete(r.clients, i, i+1)
	r.log.Debug().Int("current_users", len(r.clients)).Msg("client removed")
	return nil
}

// FindByID returns the live client with the given id, or nil.
func (r *ClientRegistry) FindByID(id uint64) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByIDLocked(id)
}

// FindByUsername returns the live client with exactly this name, or nil.
func (r *ClientRegistry) FindByUsername(name string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if c.Username() == name {
			return c
		}
	}
	return nil
}

// UsernameIsUnique reports whether no live client holds name.
func (r *ClientRegistry) UsernameIsUnique(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.uniqueLocked(name)
}

// Rename validates name and assigns it to c if no live client, c included,
// already holds it. The check and the assignment are atomic.
func (r *ClientRegistry) Rename(c *Client, name string) (string, error) {
	if !ValidUsername(name, r.maxNameLen) {
		return "", ErrInvalidUsername
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.uniqueLocked(name) {
		return "", ErrUsernameTaken
	}
	old := c.Username()
	c.setUsername(name)
	return old, nil
}

// All returns the live clients in registration order.
func (r *ClientRegistry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.clients)
}

// Len returns the number of live clients.
func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *ClientRegistry) findByIDLocked(id uint64) *Client {
	for _, c := range r.clients {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r *ClientRegistry) uniqueLocked(name string) bool {
	for _, c := range r.clients {
		if c.Username() == name {
			return false
		}
	}
	return true
}
