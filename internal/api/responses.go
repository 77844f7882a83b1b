package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leadloop/quill/internal/generator"
	"github.com/leadloop/quill/internal/together"
)

// triggerResponse is the wire shape for every outcome of the generate
// endpoint.
type triggerResponse struct {
	Status         string `json:"status"`
	Response       string `json:"response,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	InvocationID   string `json:"invocation_id,omitempty"`
	LLMEmailType   string `json:"llm_email_type,omitempty"`
	Error          string `json:"error,omitempty"`
}

// generateResponse handles POST /api/v1/responses.
func (s *Server) generateResponse(w http.ResponseWriter, r *http.Request) {
	var req generator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, triggerResponse{
			Status: "error",
			Error:  "invalid JSON body",
		})
		return
	}

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, triggerResponse{
			Status: "error",
			Error:  err.Error(),
		})
		return
	}

	result := s.gen.Generate(r.Context(), req)

	switch result.Kind {
	case generator.KindSuccess:
		writeJSON(w, http.StatusOK, triggerResponse{
			Status:         "success",
			Response:       result.Response,
			ConversationID: result.ConversationID,
			InvocationID:   result.InvocationID,
			LLMEmailType:   string(result.Scenario),
		})
	case generator.KindFlagged:
		writeJSON(w, http.StatusOK, triggerResponse{
			Status:         "flagged_for_review",
			ConversationID: result.ConversationID,
			InvocationID:   result.InvocationID,
		})
	default:
		writeJSON(w, statusForError(result.Err), triggerResponse{
			Status:         "error",
			ConversationID: result.ConversationID,
			InvocationID:   result.InvocationID,
			Error:          result.Err.Error(),
		})
	}
}

// statusForError maps a failed run to a coarse status code. Upstream rate
// limiting is passed through so callers can back off.
func statusForError(err error) int {
	var apiErr *together.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}
