// Package command parses inbound chat text into bot commands.
package command

import (
	"strings"
)

type Kind int

const (
	KindNone Kind = iota
	KindIdentity
	KindUpdate
	KindReminder
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindUpdate:
		return "update"
	case KindReminder:
		return "reminder"
	case KindInvalid:
		return "invalid"
	default:
		return "none"
	}
}

// Command is the parsed form of one chat message.
type Command struct {
	Kind Kind
	// Name and WhenText are set for KindUpdate.
	Name     string
	WhenText string
	// Usage is set for KindInvalid.
	Usage string
}

// Grammar is the trigger vocabulary the bot answers to.
type Grammar struct {
	IdentityWords   []string
	UpdatePrefix    string
	ReminderPhrases []string
}

func DefaultGrammar() Grammar {
	return Grammar{
		IdentityWords:   []string{"myid"},
		UpdatePrefix:    "!update",
		ReminderPhrases: []string{"เตือนบอส", "แจ้งเตือนบอส"},
	}
}

// Parse classifies text. Anything unrecognised is KindNone and should be
// ignored by the caller.
func Parse(g Grammar, text string) Command {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{Kind: KindNone}
	}

	for _, w := range g.IdentityWords {
		if strings.EqualFold(text, w) {
			return Command{Kind: KindIdentity}
		}
	}

	fields := strings.Fields(text)
	if g.UpdatePrefix != "" && strings.EqualFold(fields[0], g.UpdatePrefix) {
		// !update <name> <date-time with spaces>
		if len(fields) < 3 {
			return Command{Kind: KindInvalid, Usage: g.UpdatePrefix + " <name> <date-time>"}
		}
		return Command{
			Kind:     KindUpdate,
			Name:     fields[1],
			WhenText: strings.Join(fields[2:], " "),
		}
	}

	for _, p := range g.ReminderPhrases {
		if p != "" && strings.Contains(text, p) {
			return Command{Kind: KindReminder}
		}
	}
	return Command{Kind: KindNone}
}
