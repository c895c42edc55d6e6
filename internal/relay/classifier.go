// Package relay decides what happens to every observed message: which notes
// CLI invocation it becomes, and whether the original is deleted afterwards.
package relay

import (
	"strings"

	"gravbot/internal/config"
	"gravbot/internal/domain"
)

// AddVerb is the fixed CLI verb for notes-channel messages.
const AddVerb = "add"

// Classifier turns a message plus its channel role into an action. It is a
// pure decision: no I/O, no mutation.
type Classifier struct {
	botID string
	allow *config.Allowlist
}

func NewClassifier(botID string, allow *config.Allowlist) *Classifier {
	return &Classifier{botID: botID, allow: allow}
}

// Classify applies the routing rules in order:
//
//	bot's own message  -> ignore (no feedback loop)
//	blank content      -> ignore
//	notes channel      -> add note, verb "add", payload = content
//	command channel    -> run command, verb = full text, payload empty
//	anything else      -> ignore
//
// The command-channel rule is deliberately permissive: whatever the user
// typed goes to the CLI as its first argument, unless an allow-list is
// configured.
func (c *Classifier) Classify(msg domain.Message, role domain.ChannelRole) domain.Classification {
	if c.botID != "" && msg.AuthorID == c.botID {
		return domain.Classification{Action: domain.ActionIgnore}
	}

	if strings.TrimSpace(msg.Content) == "" {
		return domain.Classification{Action: domain.ActionIgnore}
	}

	switch role {
	case domain.RoleNotes:
		return domain.Classification{
			Action:  domain.ActionAddNote,
			Verb:    AddVerb,
			Payload: msg.Content,
		}
	case domain.RoleCommand:
		if !c.allow.Permits(msg.Content) {
			return domain.Classification{Action: domain.ActionIgnore}
		}
		return domain.Classification{
			Action: domain.ActionRunCommand,
			Verb:   msg.Content,
		}
	default:
		return domain.Classification{Action: domain.ActionIgnore}
	}
}
