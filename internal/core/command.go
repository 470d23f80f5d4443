package core

import "strings"

// CommandKind identifies an in-band command.
type CommandKind int

const (
	// CommandUnknown is any slash-prefixed line outside the command table.
	CommandUnknown CommandKind = iota
	// CommandQuit ends the session.
	CommandQuit
	// CommandPing asks for a pong.
	CommandPing
	// CommandRename changes the username.
	CommandRename
	// CommandJoin moves the client to another channel.
	CommandJoin
	// CommandMute silences a member of the admin's channel.
	CommandMute
	// CommandUnmute lifts a mute.
	CommandUnmute
	// CommandKick sends a member of the admin's channel back to the lobby.
	CommandKick
	// CommandWhois reveals a user's origin address to an admin.
	CommandWhois
)

var commandTable = map[string]CommandKind{
	"/quit":     CommandQuit,
	"/ping":     CommandPing,
	"/nickname": CommandRename,
	"/join":     CommandJoin,
	"/mute":     CommandMute,
	"/unmute":   CommandUnmute,
	"/kick":     CommandKick,
	"/whois":    CommandWhois,
}

// Command is a parsed command line.
type Command struct {
	Kind CommandKind
	// Name is the leading token as typed, e.g. "/join".
	Name string
	// Arg is the rest of the line with surrounding blanks removed.
	Arg string
}

// ParseCommand splits line into its leading token and argument. The token
// must match a table entry exactly.
func ParseCommand(line string) Command {
	line = strings.TrimRight(line, "\r\n")
	name, arg, _ := strings.Cut(line, " ")
	if i := strings.IndexByte(name, '\t'); i >= 0 {
		name, arg = line[:i], line[i+1:]
	}
	return Command{
		Kind: commandTable[name],
		Name: name,
		Arg:  strings.TrimSpace(arg),
	}
}
