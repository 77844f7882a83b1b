package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/leadloop/quill/internal/llm"
)

// RecordInvocation appends one audit row for a completed LLM call. The table
// is append-only; nothing in quill reads it back.
func (s *Store) RecordInvocation(ctx context.Context, inv llm.Invocation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO llm_invocations (id, account_id, conversation_id, scenario, model_name, input_tokens, output_tokens, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		uuid.New(), inv.AccountID, inv.ConversationID, string(inv.Scenario), inv.Model, inv.InputTokens, inv.OutputTokens,
	)
	if err != nil {
		return fmt.Errorf("insert llm_invocation: %w", err)
	}
	return nil
}
