// Package proto defines the wire format shared by the server and its clients:
// fixed-size, NUL-padded text frames and the server-originated message texts.
package proto

import "bytes"

const (
	// CommandPrefix marks a frame as a command.
	CommandPrefix = '/'
	// NoPreference as the first byte of a handshake frame asks for a generated username.
	NoPreference = ':'
	// ServerPrefix starts every server-originated informational message.
	ServerPrefix = "SERVER: "
	// FrameOverhead is the room reserved for the "<user>: (@<channel>) " prefix and
	// server message boilerplate on top of the longest user text.
	FrameOverhead = 64
)

// Limits are the lengths the frame sizes are derived from.
type Limits struct {
	MaxMsgLen     int
	MaxNameLen    int
	MaxChannelLen int
}

// InboundLen is the size of a frame sent by a client.
func (l Limits) InboundLen() int {
	return l.MaxMsgLen
}

// OutboundLen is the size of a frame sent by the server. It is wide enough to
// carry a full client message with its sender and channel prefix.
func (l Limits) OutboundLen() int {
	return l.MaxMsgLen + l.MaxNameLen + l.MaxChannelLen + FrameOverhead
}

// Encode places msg in a frame of exactly size bytes, truncating or NUL padding.
func Encode(msg string, size int) []byte {
	frame := make([]byte, size)
	copy(frame, msg)
	return frame
}

// Decode returns the text carried by a frame: everything before the first NUL,
// without trailing line terminators.
func Decode(frame []byte) string {
	if i := bytes.IndexByte(frame, 0); i >= 0 {
		frame = frame[:i]
	}
	return string(bytes.TrimRight(frame, "\r\n"))
}

// Truncate cuts msg to at most size bytes.
func Truncate(msg string, size int) string {
	if size >= 0 && len(msg) > size {
		return msg[:size]
	}
	return msg
}
