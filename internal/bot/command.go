// Package bot implements the conversation layer: command dispatch, the
// per-user state machine, location search, visit counting, and activity
// logging.
package bot

import "strings"

// Command is a recognized slash command.
type Command int

// Recognized commands. CommandUnknown covers any other slash-prefixed input.
const (
	CommandUnknown Command = iota
	CommandStart
	CommandHelp
	CommandInvite
	CommandNumber
	CommandNumbers
	CommandCity
	CommandTown
	CommandVillage
	CommandPostcode
)

// CommandSpec describes one command. The table below is the single source for
// dispatch, reserved-word checks, and the published command list.
type CommandSpec struct {
	Command     Command
	Name        string
	Description string
}

var commandTable = []CommandSpec{
	{CommandStart, "start", "Welcome message and remaining quota"},
	{CommandHelp, "help", "How to use the bot"},
	{CommandInvite, "invite", "Get an invite link"},
	{CommandNumber, "number", "Look up a single location"},
	{CommandNumbers, "numbers", "Look up multiple locations"},
	{CommandCity, "city", "Search cities directly"},
	{CommandTown, "town", "Search towns directly"},
	{CommandVillage, "village", "Search villages directly"},
	{CommandPostcode, "postcode", "Search postcodes directly"},
}

var commandsByName = func() map[string]Command {
	m := make(map[string]Command, len(commandTable))
	for _, spec := range commandTable {
		m[spec.Name] = spec.Command
	}
	return m
}()

// ParseCommand splits a message into a command and its trailing argument.
// Returns CommandUnknown for unrecognized commands and ok=false when the text
// is not a command at all.
func ParseCommand(text string) (cmd Command, arg string, ok bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return CommandUnknown, "", false
	}

	name := trimmed[1:]
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		arg = strings.TrimSpace(name[i+1:])
		name = name[:i]
	}

	// Strip the @botname suffix Telegram appends in group chats.
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}

	cmd, known := commandsByName[strings.ToLower(name)]
	if !known {
		return CommandUnknown, arg, true
	}

	return cmd, arg, true
}

// IsReserved reports whether name (without the slash) is a recognized command.
func IsReserved(name string) bool {
	_, ok := commandsByName[strings.ToLower(name)]
	return ok
}

// CommandList returns the published command list, derived from the same table
// that drives dispatch.
func CommandList() []CommandSpec {
	out := make([]CommandSpec, len(commandTable))
	copy(out, commandTable)
	return out
}
