package domain

import "strings"

const anyToken = "any"

type StaticCommand struct {
	Contexts    []string
	Permissions []Role
	Message     string
}

func (c StaticCommand) AllowsContext(ctx MessageContext) bool {
	for _, raw := range c.Contexts {
		if strings.EqualFold(raw, anyToken) {
			return true
		}
		parsed, err := ParseMessageContext(strings.ToLower(raw))
		if err == nil && parsed == ctx {
			return true
		}
	}
	return false
}

func (c StaticCommand) Allows(users Users, author string) bool {
	return users.HasAnyRole(author, c.Permissions...)
}

// CommandTable holds the static replies keyed by lower-case message text.
type CommandTable map[string]StaticCommand

func (t CommandTable) Lookup(body string) (StaticCommand, bool) {
	command, ok := t[strings.ToLower(strings.TrimSpace(body))]
	return command, ok
}

func (t CommandTable) Normalize() CommandTable {
	out := make(CommandTable, len(t))
	for key, command := range t {
		out[strings.ToLower(strings.TrimSpace(key))] = command
	}
	return out
}
