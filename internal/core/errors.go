package core

import "errors"

// Capacity failures.
var (
	ErrServerFull   = errors.New("server is full")
	ErrChannelLimit = errors.New("channel limit reached")
	ErrChannelFull  = errors.New("channel is full")
)

// Validation failures. They are reported to the issuing client only.
var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidChannelName = errors.New("invalid channel name")
	ErrAlreadyInChannel   = errors.New("already in channel")
	ErrNotInChannel       = errors.New("not in channel")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotAdmin           = errors.New("not a channel admin")
	ErrAlreadyMuted       = errors.New("already muted")
	ErrNotMuted           = errors.New("not muted")
	ErrSelfKick           = errors.New("cannot kick yourself")
)

// ErrClientClosed is returned for operations on a client whose session is over.
var ErrClientClosed = errors.New("client closed")
