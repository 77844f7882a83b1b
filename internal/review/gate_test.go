package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/leadloop/quill/internal/conversation"
	"github.com/leadloop/quill/internal/prompt"
	"github.com/leadloop/quill/internal/together"
)

type fakeCompleter struct {
	response string
	err      error
	calls    int
	messages []together.Message
	scenario prompt.Scenario
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []together.Message, hp together.Hyperparameters, accountID string, scenario prompt.Scenario, conversationID string) (string, error) {
	f.calls++
	f.messages = messages
	f.scenario = scenario
	return f.response, f.err
}

type fakeThreads struct {
	override    bool
	overrideErr error
	flagged     []string
	markErr     error
}

func (f *fakeThreads) FlagReviewOverride(ctx context.Context, conversationID string) (bool, error) {
	return f.override, f.overrideErr
}

func (f *fakeThreads) MarkFlaggedForReview(ctx context.Context, conversationID string) error {
	f.flagged = append(f.flagged, conversationID)
	return f.markErr
}

func newGate(llm *fakeCompleter, threads *fakeThreads) *Gate {
	return NewGate(llm, threads, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var testChain = conversation.Chain{{Subject: "hi", Body: "there", Type: "inbound-email"}}

func TestShouldFlag_OverrideSkipsLLM(t *testing.T) {
	llm := &fakeCompleter{}
	threads := &fakeThreads{override: true}

	if newGate(llm, threads).ShouldFlag(context.Background(), testChain, "conv-1", "acct-1") {
		t.Error("expected no flag when override enabled")
	}
	if llm.calls != 0 {
		t.Errorf("expected zero completion calls with override, got %d", llm.calls)
	}
}

func TestShouldFlag_UnreadableStateFailsSafe(t *testing.T) {
	llm := &fakeCompleter{}
	threads := &fakeThreads{overrideErr: errors.New("no row")}

	if !newGate(llm, threads).ShouldFlag(context.Background(), testChain, "conv-1", "acct-1") {
		t.Error("expected flag when thread state is unreadable")
	}
	if llm.calls != 0 {
		t.Errorf("expected zero completion calls, got %d", llm.calls)
	}
}

func TestShouldFlag_Continue(t *testing.T) {
	llm := &fakeCompleter{response: " continue\n"}
	threads := &fakeThreads{}

	if newGate(llm, threads).ShouldFlag(context.Background(), testChain, "conv-1", "acct-1") {
		t.Error("expected no flag for CONTINUE decision")
	}
	if llm.scenario != prompt.ScenarioReviewer {
		t.Errorf("expected reviewer_llm scenario, got %s", llm.scenario)
	}
	if len(threads.flagged) != 0 {
		t.Errorf("expected no persistence on continue, got %v", threads.flagged)
	}
}

func TestShouldFlag_Flag(t *testing.T) {
	llm := &fakeCompleter{response: "FLAG"}
	threads := &fakeThreads{}

	if !newGate(llm, threads).ShouldFlag(context.Background(), testChain, "conv-1", "acct-1") {
		t.Error("expected flag for FLAG decision")
	}
	if len(threads.flagged) != 1 || threads.flagged[0] != "conv-1" {
		t.Errorf("expected flag persisted for conv-1, got %v", threads.flagged)
	}
}

func TestShouldFlag_UnknownDecisionFlags(t *testing.T) {
	llm := &fakeCompleter{response: "MAYBE?"}
	threads := &fakeThreads{}

	if !newGate(llm, threads).ShouldFlag(context.Background(), testChain, "conv-1", "acct-1") {
		t.Error("expected flag for unknown decision")
	}
	if len(threads.flagged) != 1 {
		t.Errorf("expected flag persisted, got %v", threads.flagged)
	}
}

func TestShouldFlag_LLMErrorFlags(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("api down")}
	threads := &fakeThreads{}

	if !newGate(llm, threads).ShouldFlag(context.Background(), testChain, "conv-1", "acct-1") {
		t.Error("expected flag when reviewer call fails")
	}
	if len(threads.flagged) != 1 {
		t.Errorf("expected flag persisted on LLM failure, got %v", threads.flagged)
	}
}

func TestShouldFlag_PersistenceFailureKeepsDecision(t *testing.T) {
	llm := &fakeCompleter{response: "FLAG"}
	threads := &fakeThreads{markErr: errors.New("db down")}

	if !newGate(llm, threads).ShouldFlag(context.Background(), testChain, "conv-1", "acct-1") {
		t.Error("persistence failure must not change the flag decision")
	}
}

func TestShouldFlag_FormatsChainWithReviewerPrompt(t *testing.T) {
	llm := &fakeCompleter{response: "CONTINUE"}
	threads := &fakeThreads{}

	newGate(llm, threads).ShouldFlag(context.Background(), testChain, "conv-1", "acct-1")

	if len(llm.messages) != 2 {
		t.Fatalf("expected system + 1 email, got %d messages", len(llm.messages))
	}
	if llm.messages[0].Content != prompt.Lookup(prompt.ScenarioReviewer).System {
		t.Errorf("expected reviewer system prompt first")
	}
}
