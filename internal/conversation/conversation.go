package conversation

import (
	"github.com/leadloop/quill/internal/together"
)

// TypeInbound marks a message sent by the client. Everything else in a chain
// is treated as one of ours.
const TypeInbound = "inbound-email"

// Email is one message in a conversation, immutable once fetched.
type Email struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// Chain is a conversation's history ordered by timestamp ascending.
type Chain []Email

// First returns a one-element copy of the chain, or an empty chain. The
// receiver is never modified.
func (c Chain) First() Chain {
	if len(c) == 0 {
		return Chain{}
	}
	return Chain{c[0]}
}

// Format converts a chain into the message list sent to the completion API.
// The resolved system prompt always comes first. Inbound emails map to the
// "user" role, everything else to "assistant"; that is the only rule.
func Format(chain Chain, system string) []together.Message {
	messages := make([]together.Message, 0, len(chain)+1)
	messages = append(messages, together.Message{Role: "system", Content: system})

	for _, email := range chain {
		role := "assistant"
		if email.Type == TypeInbound {
			role = "user"
		}
		messages = append(messages, together.Message{
			Role:    role,
			Content: "Subject: " + email.Subject + "\n\nBody: " + email.Body,
		})
	}
	return messages
}
