// Package review holds the gate that decides whether a conversation needs a
// human before any reply is drafted.
package review

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

// ThreadState reads and writes the per-conversation review flags.
type ThreadState interface {
	FlagReviewOverride(ctx context.Context, conversationID string) (bool, error)
	MarkFlaggedForReview(ctx context.Context, conversationID string) error
}

type Gate struct {
	llm     Completer
	threads ThreadState
	logger  *slog.Logger
}

func NewGate(llm Completer, threads ThreadState, logger *slog.Logger) *Gate {
	return &Gate{llm: llm, threads: threads, logger: logger}
}

// ShouldFlag decides whether the conversation must go to a human. Every
// failure path degrades to flagging: unreadable thread state, an LLM error,
// or an answer that is neither FLAG nor CONTINUE all return true. A thread
// with the review override enabled skips the LLM entirely.
func (g *Gate) ShouldFlag(ctx context.Context, chain conversation.Chain, conversationID, accountID string) bool {
	override, err := g.threads.FlagReviewOverride(ctx, conversationID)
	if err != nil {
		g.logger.Error("could not read flag_review_override, defaulting to flag",
			"conversation_id", conversationID,
			"error", err,
		)
		return true
	}
	if override {
		g.logger.Info("review override enabled, skipping reviewer",
			"conversation_id", conversationID,
		)
		return false
	}

	entry := prompt.Lookup(prompt.ScenarioReviewer)
	messages := conversation.Format(chain, entry.System)

	raw, err := g.llm.Complete(ctx, messages, entry.Hyperparameters, accountID, prompt.ScenarioReviewer, conversationID)
	if err != nil {
		g.logger.Error("reviewer call failed, defaulting to flag",
			"conversation_id", conversationID,
			"error", err,
		)
		g.persistFlag(ctx, conversationID)
		return true
	}

	decision := strings.ToUpper(strings.TrimSpace(raw))
	switch decision {
	case "CONTINUE":
		return false
	case "FLAG":
		g.logger.Info("thread flagged for review", "conversation_id", conversationID)
		g.persistFlag(ctx, conversationID)
		return true
	default:
		g.logger.Warn("reviewer returned unknown decision, defaulting to flag",
			"conversation_id", conversationID,
			"decision", decision,
		)
		g.persistFlag(ctx, conversationID)
		return true
	}
}

// persistFlag records the flag decision on the thread. A write failure does
// not change the decision already made.
func (g *Gate) persistFlag(ctx context.Context, conversationID string) {
	if err := g.threads.MarkFlaggedForReview(ctx, conversationID); err != nil {
		g.logger.Error("failed to persist flag_for_review",
			"conversation_id", conversationID,
			"error", err,
		)
	}
}
