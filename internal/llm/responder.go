package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leadloop/quill/internal/prompt"
	"github.com/leadloop/quill/internal/together"
)

// Invocation is one audit row written after a completed LLM call.
type Invocation struct {
	AccountID      string
	ConversationID string
	Scenario       prompt.Scenario
	Model          string
	InputTokens    int
	OutputTokens   int
}

// AuditSink records invocation audit rows.
type AuditSink interface {
	RecordInvocation(ctx context.Context, inv Invocation) error
}

// Responder runs completions against the model configured for quill and
// writes an audit row per call.
type Responder struct {
	api    *together.Client
	model  string
	audit  AuditSink
	logger *slog.Logger
}

func NewResponder(api *together.Client, model string, audit AuditSink, logger *slog.Logger) *Responder {
	return &Responder{api: api, model: model, audit: audit, logger: logger}
}

// Complete sends the message list and returns the generated text with
// literal \n sequences unescaped into real newlines. When accountID is
// non-empty, one audit record is appended; audit failures are logged and
// never fail the call.
func (r *Responder) Complete(ctx context.Context, messages []together.Message, hp together.Hyperparameters, accountID string, scenario prompt.Scenario, conversationID string) (string, error) {
	r.logger.Info("sending completion request",
		"scenario", string(scenario),
		"messages", len(messages),
		"conversation_id", conversationID,
	)

	comp, err := r.api.Complete(ctx, r.model, messages, hp)
	if err != nil {
		r.logger.Error("completion failed",
			"scenario", string(scenario),
			"conversation_id", conversationID,
			"error", err,
		)
		return "", err
	}

	if accountID != "" {
		inv := Invocation{
			AccountID:      accountID,
			ConversationID: conversationID,
			Scenario:       scenario,
			Model:          r.model,
			InputTokens:    comp.PromptTokens,
			OutputTokens:   comp.CompletionTokens,
		}
		if err := r.audit.RecordInvocation(ctx, inv); err != nil {
			r.logger.Error("audit write failed",
				"account_id", accountID,
				"scenario", string(scenario),
				"error", err,
			)
		}
	}

	return strings.ReplaceAll(comp.Text, `\n`, "\n"), nil
}
