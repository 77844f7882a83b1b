// Package scenario classifies a conversation into the reply scenario to
// draft with, when the caller did not force one.
package scenario

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leadloop/quill/internal/conversation"
	"github.com/leadloop/quill/internal/prompt"
	"github.com/leadloop/quill/internal/together"
)

// Completer runs one LLM call.
type Completer interface {
	Complete(ctx context.Context, messages []together.Message, hp together.Hyperparameters, accountID string, scenario prompt.Scenario, conversationID string) (string, error)
}

type Selector struct {
	llm    Completer
	logger *slog.Logger
}

func NewSelector(llm Completer, logger *slog.Logger) *Selector {
	return &Selector{llm: llm, logger: logger}
}

// validScenarios is the closed set the selector may answer with. The control
// scenarios are deliberately absent: a classifier answering "selector_llm"
// is as wrong as one answering "banana".
var validScenarios = map[prompt.Scenario]bool{
	prompt.ScenarioSummarizer:      true,
	prompt.ScenarioIntro:           true,
	prompt.ScenarioContinuation:    true,
	prompt.ScenarioClosingReferral: true,
}

// Select classifies the chain. Any failure, or any answer outside the valid
// set, falls back to continuation_email.
func (s *Selector) Select(ctx context.Context, chain conversation.Chain, conversationID, accountID string) prompt.Scenario {
	entry := prompt.Lookup(prompt.ScenarioSelector)
	messages := conversation.Format(chain, entry.System)

	raw, err := s.llm.Complete(ctx, messages, entry.Hyperparameters, accountID, prompt.ScenarioSelector, conversationID)
	if err != nil {
		s.logger.Error("selector call failed, defaulting to continuation_email",
			"conversation_id", conversationID,
			"error", err,
		)
		return prompt.ScenarioContinuation
	}

	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "intro" {
		normalized = string(prompt.ScenarioIntro)
	}

	selected := prompt.Scenario(normalized)
	if !validScenarios[selected] {
		s.logger.Warn("selector returned invalid scenario, defaulting to continuation_email",
			"conversation_id", conversationID,
			"scenario", normalized,
		)
		return prompt.ScenarioContinuation
	}

	s.logger.Info("scenario selected",
		"conversation_id", conversationID,
		"scenario", string(selected),
	)
	return selected
}
