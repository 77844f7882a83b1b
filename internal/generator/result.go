package generator

import (
	"fmt"

	"github.com/leadloop/quill/internal/prompt"
)

// Request is one invocation's input.
type Request struct {
	ConversationID string `json:"conversation_id"`
	AccountID      string `json:"account_id"`
	IsFirstEmail   bool   `json:"is_first_email,omitempty"`
	Scenario       string `json:"scenario,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
}

// Validate checks the required trigger fields. It runs before any network
// call is made.
func (r Request) Validate() error {
	if r.ConversationID == "" {
		return &ValidationError{Field: "conversation_id"}
	}
	if r.AccountID == "" {
		return &ValidationError{Field: "account_id"}
	}
	return nil
}

// Kind is a terminal orchestration outcome.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFlagged Kind = "flagged_for_review"
	KindError   Kind = "error"
)

// Result is the caller-visible outcome of one orchestration run. Exactly one
// of Response (success) or Err (error) carries data; a flagged result has
// neither.
type Result struct {
	Kind           Kind
	Response       string
	Scenario       prompt.Scenario
	ConversationID string
	InvocationID   string
	Err            error
}

// ValidationError marks a missing required trigger field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + e.Field
}

// ChainUnavailableError marks a failed or unavailable chain fetch, fatal to
// the run.
type ChainUnavailableError struct {
	ConversationID string
	Err            error
}

func (e *ChainUnavailableError) Error() string {
	return fmt.Sprintf("email chain unavailable for conversation %s: %v", e.ConversationID, e.Err)
}

func (e *ChainUnavailableError) Unwrap() error {
	return e.Err
}
