package bus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/leadloop/quill/internal/generator"
	"github.com/leadloop/quill/internal/prompt"
)

type fakeGen struct {
	result generator.Result
	req    generator.Request
	calls  int
}

func (f *fakeGen) Generate(ctx context.Context, req generator.Request) generator.Result {
	f.calls++
	f.req = req
	return f.result
}

type fakeResolver struct {
	conversationID string
	accountID      string
	err            error
}

func (f *fakeResolver) ConversationIDForResponse(ctx context.Context, responseID string) (string, error) {
	return f.conversationID, f.err
}

func (f *fakeResolver) AccountIDForEmail(ctx context.Context, email string) (string, error) {
	return f.accountID, f.err
}

type fakeThreads struct {
	busy []bool
	err  error
}

func (f *fakeThreads) SetBusy(ctx context.Context, conversationID string, busy bool) error {
	f.busy = append(f.busy, busy)
	return f.err
}

type fakePublisher struct {
	subjects []string
	payloads []any
	err      error
}

func (f *fakePublisher) Publish(subject string, data any) error {
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return f.err
}

func newHandler(gen *fakeGen, res *fakeResolver, threads *fakeThreads, pub *fakePublisher) *Handler {
	return NewHandler(gen, res, threads, pub, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleEmailReceived_Success(t *testing.T) {
	gen := &fakeGen{result: generator.Result{
		Kind:           generator.KindSuccess,
		Response:       "draft",
		Scenario:       prompt.ScenarioContinuation,
		ConversationID: "conv-1",
		InvocationID:   "inv-1",
	}}
	threads := &fakeThreads{}
	pub := &fakePublisher{}
	h := newHandler(gen, &fakeResolver{}, threads, pub)

	h.HandleEmailReceived(SubjectEmailReceived, []byte(`{"conversation_id":"conv-1","account_id":"acct-1"}`))

	if gen.calls != 1 {
		t.Fatalf("expected one generation, got %d", gen.calls)
	}
	if len(pub.subjects) != 1 || pub.subjects[0] != SubjectResponseGenerated {
		t.Errorf("expected generated event, got %v", pub.subjects)
	}
	// busy true before the run, false after.
	if len(threads.busy) != 2 || !threads.busy[0] || threads.busy[1] {
		t.Errorf("expected busy true then false, got %v", threads.busy)
	}
}

func TestHandleEmailReceived_ResolvesIDs(t *testing.T) {
	gen := &fakeGen{result: generator.Result{Kind: generator.KindSuccess}}
	res := &fakeResolver{conversationID: "conv-9", accountID: "acct-9"}
	h := newHandler(gen, res, &fakeThreads{}, &fakePublisher{})

	h.HandleEmailReceived(SubjectEmailReceived, []byte(`{"response_id":"msg-1","sender_email":"Agent@Example.com"}`))

	if gen.req.ConversationID != "conv-9" || gen.req.AccountID != "acct-9" {
		t.Errorf("expected resolved ids, got %+v", gen.req)
	}
}

func TestHandleEmailReceived_ResolutionFailureDrops(t *testing.T) {
	gen := &fakeGen{}
	res := &fakeResolver{err: errors.New("not found")}
	pub := &fakePublisher{}
	h := newHandler(gen, res, &fakeThreads{}, pub)

	h.HandleEmailReceived(SubjectEmailReceived, []byte(`{"response_id":"msg-1","sender_email":"a@b.c"}`))

	if gen.calls != 0 {
		t.Errorf("expected no generation after failed resolution, got %d", gen.calls)
	}
	if len(pub.subjects) != 0 {
		t.Errorf("expected no events published, got %v", pub.subjects)
	}
}

func TestHandleEmailReceived_MissingFieldsDrops(t *testing.T) {
	gen := &fakeGen{}
	h := newHandler(gen, &fakeResolver{}, &fakeThreads{}, &fakePublisher{})

	h.HandleEmailReceived(SubjectEmailReceived, []byte(`{"account_id":"acct-1"}`))

	if gen.calls != 0 {
		t.Errorf("expected no generation for invalid event, got %d", gen.calls)
	}
}

func TestHandleEmailReceived_Flagged(t *testing.T) {
	gen := &fakeGen{result: generator.Result{
		Kind:           generator.KindFlagged,
		ConversationID: "conv-1",
		InvocationID:   "inv-1",
	}}
	threads := &fakeThreads{}
	pub := &fakePublisher{}
	h := newHandler(gen, &fakeResolver{}, threads, pub)

	h.HandleEmailReceived(SubjectEmailReceived, []byte(`{"conversation_id":"conv-1","account_id":"acct-1"}`))

	if len(pub.subjects) != 1 || pub.subjects[0] != SubjectResponseFlagged {
		t.Errorf("expected flagged event, got %v", pub.subjects)
	}
	// The gate persisted busy=false with the flag; only the initial mark runs here.
	if len(threads.busy) != 1 || !threads.busy[0] {
		t.Errorf("expected single busy=true write, got %v", threads.busy)
	}
}

func TestHandleEmailReceived_Error(t *testing.T) {
	gen := &fakeGen{result: generator.Result{
		Kind:           generator.KindError,
		ConversationID: "conv-1",
		InvocationID:   "inv-1",
		Err:            errors.New("draft generation: boom"),
	}}
	pub := &fakePublisher{}
	h := newHandler(gen, &fakeResolver{}, &fakeThreads{}, pub)

	h.HandleEmailReceived(SubjectEmailReceived, []byte(`{"conversation_id":"conv-1","account_id":"acct-1"}`))

	if len(pub.subjects) != 1 || pub.subjects[0] != SubjectResponseFailed {
		t.Errorf("expected failed event, got %v", pub.subjects)
	}
}

func TestHandleEmailReceived_BusyWriteFailureDoesNotStopRun(t *testing.T) {
	gen := &fakeGen{result: generator.Result{Kind: generator.KindSuccess}}
	threads := &fakeThreads{err: errors.New("db down")}
	h := newHandler(gen, &fakeResolver{}, threads, &fakePublisher{})

	h.HandleEmailReceived(SubjectEmailReceived, []byte(`{"conversation_id":"conv-1","account_id":"acct-1"}`))

	if gen.calls != 1 {
		t.Errorf("busy write failure must not stop the run, got %d calls", gen.calls)
	}
}

func TestHandleEmailReceived_BadJSON(t *testing.T) {
	gen := &fakeGen{}
	h := newHandler(gen, &fakeResolver{}, &fakeThreads{}, &fakePublisher{})

	h.HandleEmailReceived(SubjectEmailReceived, []byte(`{broken`))

	if gen.calls != 0 {
		t.Errorf("expected no generation for unparseable event")
	}
}
