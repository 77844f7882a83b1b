// Package generator sequences the response pipeline: reviewer gate, scenario
// selection, prompt resolution, formatting, and the final draft.
package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/leadloop/quill/internal/conversation"
	"github.com/leadloop/quill/internal/prompt"
	"github.com/leadloop/quill/internal/together"
)

// ChainSource fetches a conversation's history.
type ChainSource interface {
	EmailChain(ctx context.Context, conversationID string) (conversation.Chain, error)
}

// Gate decides whether the conversation needs human review.
type Gate interface {
	ShouldFlag(ctx context.Context, chain conversation.Chain, conversationID, accountID string) bool
}

// Selector classifies the chain into a reply scenario.
type Selector interface {
	Select(ctx context.Context, chain conversation.Chain, conversationID, accountID string) prompt.Scenario
}

// PromptSource resolves the effective scenario and its prompt entry.
type PromptSource interface {
	Prompt(ctx context.Context, scenario prompt.Scenario, accountID string) (prompt.Scenario, prompt.Entry)
}

// Completer runs the final draft completion.
type Completer interface {
	Complete(ctx context.Context, messages []together.Message, hp together.Hyperparameters, accountID string, scenario prompt.Scenario, conversationID string) (string, error)
}

type Generator struct {
	chains   ChainSource
	gate     Gate
	selector Selector
	prompts  PromptSource
	llm      Completer
	logger   *slog.Logger
}

func New(chains ChainSource, gate Gate, selector Selector, prompts PromptSource, llm Completer, logger *slog.Logger) *Generator {
	return &Generator{
		chains:   chains,
		gate:     gate,
		selector: selector,
		prompts:  prompts,
		llm:      llm,
		logger:   logger,
	}
}

// Generate runs one orchestration and always returns a terminal Result.
// Reviewer and selector failures have already been degraded to safe defaults
// inside those components; only chain-fetch and draft-generation failures
// surface as error results.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	invocationID := uuid.New().String()
	logger := g.logger.With(
		"conversation_id", req.ConversationID,
		"invocation_id", invocationID,
	)

	chain, err := g.chains.EmailChain(ctx, req.ConversationID)
	if err != nil {
		logger.Error("email chain unavailable", "error", err)
		return Result{
			Kind:           KindError,
			ConversationID: req.ConversationID,
			InvocationID:   invocationID,
			Err:            &ChainUnavailableError{ConversationID: req.ConversationID, Err: err},
		}
	}

	if req.IsFirstEmail {
		chain = chain.First()
	}

	forced := prompt.Scenario(req.Scenario)

	// The gate sees the chain as fetched (post first-email truncation),
	// before any scenario decision. A forced scenario skips it.
	if req.ConversationID != "" && forced == "" {
		if g.gate.ShouldFlag(ctx, chain, req.ConversationID, req.AccountID) {
			logger.Info("conversation flagged for review, no draft produced")
			return Result{
				Kind:           KindFlagged,
				ConversationID: req.ConversationID,
				InvocationID:   invocationID,
			}
		}
	}

	var effective prompt.Scenario
	switch {
	case len(chain) == 0:
		effective = prompt.ScenarioIntro
	case forced != "":
		effective = forced
	default:
		effective = g.selector.Select(ctx, chain, req.ConversationID, req.AccountID)
	}

	effective, entry := g.prompts.Prompt(ctx, effective, req.AccountID)
	messages := conversation.Format(chain, entry.System)

	text, err := g.llm.Complete(ctx, messages, entry.Hyperparameters, req.AccountID, effective, req.ConversationID)
	if err != nil {
		logger.Error("draft generation failed", "scenario", string(effective), "error", err)
		return Result{
			Kind:           KindError,
			ConversationID: req.ConversationID,
			InvocationID:   invocationID,
			Err:            fmt.Errorf("draft generation: %w", err),
		}
	}

	logger.Info("response generated", "scenario", string(effective), "length", len(text))
	return Result{
		Kind:           KindSuccess,
		Response:       text,
		Scenario:       effective,
		ConversationID: req.ConversationID,
		InvocationID:   invocationID,
	}
}
