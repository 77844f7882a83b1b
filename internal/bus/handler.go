package bus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/leadloop/quill/internal/generator"
)

// EmailReceivedEvent is the inbound-email event from the ingestion side of
// the pipeline. Either the ids are present directly or they are resolved
// from the message id and sender address.
type EmailReceivedEvent struct {
	ConversationID string `json:"conversation_id"`
	AccountID      string `json:"account_id"`
	ResponseID     string `json:"response_id"`
	SenderEmail    string `json:"sender_email"`
	IsFirstEmail   bool   `json:"is_first_email"`
	Scenario       string `json:"scenario"`
	SessionID      string `json:"session_id"`
}

// Resolver looks up ids for events that carry only message-level fields.
type Resolver interface {
	ConversationIDForResponse(ctx context.Context, responseID string) (string, error)
	AccountIDForEmail(ctx context.Context, email string) (string, error)
}

// ThreadMarker maintains the advisory busy flag around a run.
type ThreadMarker interface {
	SetBusy(ctx context.Context, conversationID string, busy bool) error
}

// Generator runs one orchestration.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) generator.Result
}

// Publisher emits result events.
type Publisher interface {
	Publish(subject string, data any) error
}

// Handler turns email-received events into orchestration runs and publishes
// the terminal result.
type Handler struct {
	gen     Generator
	records Resolver
	threads ThreadMarker
	pub     Publisher
	logger  *slog.Logger
}

func NewHandler(gen Generator, records Resolver, threads ThreadMarker, pub Publisher, logger *slog.Logger) *Handler {
	return &Handler{gen: gen, records: records, threads: threads, pub: pub, logger: logger}
}

// resultEvent is the payload published for every terminal outcome.
type resultEvent struct {
	Status         string `json:"status"`
	ConversationID string `json:"conversation_id"`
	InvocationID   string `json:"invocation_id"`
	LLMEmailType   string `json:"llm_email_type,omitempty"`
	Response       string `json:"response,omitempty"`
	Error          string `json:"error,omitempty"`
}

// HandleEmailReceived is the NATS handler for leads.email.received.
func (h *Handler) HandleEmailReceived(subject string, data []byte) {
	ctx := context.Background()

	var evt EmailReceivedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		h.logger.Error("failed to parse email received event", "error", err)
		return
	}

	if evt.ConversationID == "" && evt.ResponseID != "" {
		id, err := h.records.ConversationIDForResponse(ctx, evt.ResponseID)
		if err != nil {
			h.logger.Error("could not resolve conversation id", "response_id", evt.ResponseID, "error", err)
			return
		}
		evt.ConversationID = id
	}
	if evt.AccountID == "" && evt.SenderEmail != "" {
		id, err := h.records.AccountIDForEmail(ctx, evt.SenderEmail)
		if err != nil {
			h.logger.Error("could not resolve account id", "sender_email", evt.SenderEmail, "error", err)
			return
		}
		evt.AccountID = id
	}

	req := generator.Request{
		ConversationID: evt.ConversationID,
		AccountID:      evt.AccountID,
		IsFirstEmail:   evt.IsFirstEmail,
		Scenario:       evt.Scenario,
		SessionID:      evt.SessionID,
	}
	if err := req.Validate(); err != nil {
		h.logger.Error("dropping event with missing fields", "error", err)
		return
	}

	// Advisory only: last writer wins, and a failed write never stops a run.
	if err := h.threads.SetBusy(ctx, req.ConversationID, true); err != nil {
		h.logger.Warn("failed to mark thread busy", "conversation_id", req.ConversationID, "error", err)
	}

	result := h.gen.Generate(ctx, req)

	switch result.Kind {
	case generator.KindSuccess:
		h.publish(SubjectResponseGenerated, resultEvent{
			Status:         string(result.Kind),
			ConversationID: result.ConversationID,
			InvocationID:   result.InvocationID,
			LLMEmailType:   string(result.Scenario),
			Response:       result.Response,
		})
	case generator.KindFlagged:
		// The gate already cleared busy when it persisted the flag.
		h.publish(SubjectResponseFlagged, resultEvent{
			Status:         string(result.Kind),
			ConversationID: result.ConversationID,
			InvocationID:   result.InvocationID,
		})
		return
	default:
		h.publish(SubjectResponseFailed, resultEvent{
			Status:         string(result.Kind),
			ConversationID: result.ConversationID,
			InvocationID:   result.InvocationID,
			Error:          result.Err.Error(),
		})
	}

	if err := h.threads.SetBusy(ctx, req.ConversationID, false); err != nil {
		h.logger.Warn("failed to clear thread busy", "conversation_id", req.ConversationID, "error", err)
	}
}

func (h *Handler) publish(subject string, evt resultEvent) {
	if err := h.pub.Publish(subject, evt); err != nil {
		h.logger.Error("failed to publish result event", "subject", subject, "error", err)
	}
}
