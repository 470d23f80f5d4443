package proto

import "fmt"

// Fixed server replies.
const (
	MsgQuit             = ServerPrefix + "/quit"
	MsgPong             = ServerPrefix + "pong"
	MsgHelpHint         = ServerPrefix + "Type /help to see available commands."
	MsgMuted            = ServerPrefix + "You are currently muted on this channel."
	MsgNotAdmin         = ServerPrefix + "Only admins can use this command."
	MsgUserNotFound     = ServerPrefix + "Could not find user."
	MsgUserNotInChannel = ServerPrefix + "User is not in channel."
	MsgMuteFailed       = ServerPrefix + "Could not find user or user is already muted."
	MsgUnmuteFailed     = ServerPrefix + "Could not find user or user is already unmuted."
	MsgKicked           = ServerPrefix + "You have been kicked from the channel. Returning to lobby."
	MsgSelfKick         = ServerPrefix + "You cannot kick yourself."
	MsgRenameSyntax     = ServerPrefix + "Rename syntax is not correct. Usage is: /nickname <new name>"
	MsgRenameFailed     = ServerPrefix + "Failed to rename. Make sure your name does not exceed the maximum character limit, contain special symbols and is unique."
	MsgInvalidChannel   = ServerPrefix + "Invalid channel name."
	MsgChannelLimit     = ServerPrefix + "Maximum number of channels reached. Try again later."
	MsgChannelFull      = ServerPrefix + "Channel is full."
	MsgServerFull       = ServerPrefix + "Server is full. Try again later."
	MsgServerClosing    = ServerPrefix + "Closing server. Terminating connection."
	MsgYouWereMuted     = ServerPrefix + "You have been muted on this channel."
	MsgYouWereUnmuted   = ServerPrefix + "You are no longer muted on this channel."
	MsgHelp             = ServerPrefix + "Invalid command. Available commands are:\n\t> /ping\n\t> /nickname <new name>\n\t> /join <channel name>\n\t> /mute <user>\n\t> /unmute <user>\n\t> /kick <user>\n\t> /whois <user>\n\t> /quit\n"
)

// Syntax returns the usage hint for a command that takes one argument.
func Syntax(command, arg string) string {
	return fmt.Sprintf("%sIncorrect syntax. Try %s <%s>", ServerPrefix, command, arg)
}

// Connected announces a new session to everyone.
func Connected(user string) string {
	return fmt.Sprintf("%s%s connected to chat!", ServerPrefix, user)
}

// Disconnected announces the end of a session to the user's channel.
func Disconnected(user string) string {
	return fmt.Sprintf("%s%s disconnected.", ServerPrefix, user)
}

// Joined announces a member joining a channel.
func Joined(user, channel string) string {
	return fmt.Sprintf("%s%s joined channel %s.", ServerPrefix, user, channel)
}

// Left announces a member leaving a channel.
func Left(user string) string {
	return fmt.Sprintf("%s%s left the channel.", ServerPrefix, user)
}

// Renamed announces a username change to everyone.
func Renamed(from, to string) string {
	return fmt.Sprintf("%sUser %s renamed to %s", ServerPrefix, from, to)
}

// RenameConfirmed tells the issuer the new name was adopted.
func RenameConfirmed(name string) string {
	return fmt.Sprintf("%sYou are now known as %s.", ServerPrefix, name)
}

// NameTaken tells a connecting client its proposed name was refused.
func NameTaken(proposed, assigned string) string {
	return fmt.Sprintf("%sthe username %s is already taken. Assigning default nickname %s (try /nickname)", ServerPrefix, proposed, assigned)
}

// NameInvalid tells a connecting client its proposed name broke the naming rules.
func NameInvalid(proposed, assigned string) string {
	return fmt.Sprintf("%sthe username %s is not valid. Assigning default nickname %s (try /nickname)", ServerPrefix, proposed, assigned)
}

// AlreadyInChannel rejects a self-join.
func AlreadyInChannel(channel string) string {
	return fmt.Sprintf("%sYou are already in channel %s.", ServerPrefix, channel)
}

// Whois reports a user's origin address to a channel admin.
func Whois(user, addr string) string {
	return fmt.Sprintf("%s%s IP is %s", ServerPrefix, user, addr)
}

// Moderated confirms a mute, unmute or kick to the admin who issued it.
func Moderated(user, action string) string {
	return fmt.Sprintf("%s%s has been %s.", ServerPrefix, user, action)
}

// Chat formats a plain channel message.
func Chat(user, channel, text string) string {
	return fmt.Sprintf("%s: (@%s) %s", user, channel, text)
}
