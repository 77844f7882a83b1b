package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrThreadNotFound is returned when a conversation has no thread row yet.
var ErrThreadNotFound = errors.New("thread not found")

// The external store represents thread flags as "true"/"false" strings.
// That convention stops here: callers see native bools and the conversion
// happens only in this adapter.

// FlagReviewOverride reads the per-thread override flag. A present row with
// no value defaults to false; a missing row is ErrThreadNotFound.
func (s *Store) FlagReviewOverride(ctx context.Context, conversationID string) (bool, error) {
	var value *string
	err := s.pool.QueryRow(ctx, `
		SELECT flag_review_override FROM threads WHERE conversation_id = $1`,
		conversationID,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("conversation %s: %w", conversationID, ErrThreadNotFound)
		}
		return false, fmt.Errorf("read flag_review_override: %w", err)
	}
	return value != nil && *value == "true", nil
}

// MarkFlaggedForReview sets flag_for_review and clears busy in one write.
// The thread row is created if it does not exist yet.
func (s *Store) MarkFlaggedForReview(ctx context.Context, conversationID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO threads (conversation_id, flag_for_review, busy)
		VALUES ($1, 'true', 'false')
		ON CONFLICT (conversation_id)
		DO UPDATE SET flag_for_review = 'true', busy = 'false'`,
		conversationID,
	)
	if err != nil {
		return fmt.Errorf("mark flagged for review: %w", err)
	}
	return nil
}

// SetBusy updates the advisory busy flag. Last writer wins.
func (s *Store) SetBusy(ctx context.Context, conversationID string, busy bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO threads (conversation_id, busy)
		VALUES ($1, $2)
		ON CONFLICT (conversation_id)
		DO UPDATE SET busy = $2`,
		conversationID, boolString(busy),
	)
	if err != nil {
		return fmt.Errorf("set busy: %w", err)
	}
	return nil
}

// SetFlagReviewOverride enables or disables the reviewer skip for a thread.
func (s *Store) SetFlagReviewOverride(ctx context.Context, conversationID string, enabled bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO threads (conversation_id, flag_review_override)
		VALUES ($1, $2)
		ON CONFLICT (conversation_id)
		DO UPDATE SET flag_review_override = $2`,
		conversationID, boolString(enabled),
	)
	if err != nil {
		return fmt.Errorf("set flag_review_override: %w", err)
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
