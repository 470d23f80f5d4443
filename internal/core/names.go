package core

import "strings"

const (
	usernameForbidden = "<>:@ \n\r\x00"
	channelForbidden  = " ,\a\x00"
)

// ValidUsername reports whether name is non-empty, at most maxLen bytes long and
// free of the characters the wire format reserves for prefixes.
func ValidUsername(name string, maxLen int) bool {
	if name == "" || len(name) > maxLen {
		return false
	}
	return !strings.ContainsAny(name, usernameForbidden)
}

// ValidChannelName reports whether name can identify a channel.
func ValidChannelName(name string, maxLen int) bool {
	if name == "" || len(name) > maxLen {
		return false
	}
	return !strings.ContainsAny(name, channelForbidden)
}
