package conversation

import (
	"testing"
)

func TestFormat_RoleMapping(t *testing.T) {
	chain := Chain{
		{Subject: "Looking to buy", Body: "Hi, I saw your listing", Type: "inbound-email"},
		{Subject: "Re: Looking to buy", Body: "Thanks for reaching out", Type: "outbound-email"},
		{Subject: "Re: Looking to buy", Body: "What about Tuesday?", Type: "inbound-email"},
		{Subject: "odd", Body: "no type at all", Type: ""},
	}

	messages := Format(chain, "be helpful")

	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(messages))
	}
	if messages[0].Role != "system" || messages[0].Content != "be helpful" {
		t.Errorf("expected system message first, got %+v", messages[0])
	}
	wantRoles := []string{"user", "assistant", "user", "assistant"}
	for i, want := range wantRoles {
		if messages[i+1].Role != want {
			t.Errorf("message %d: expected role %s, got %s", i+1, want, messages[i+1].Role)
		}
	}
}

func TestFormat_Content(t *testing.T) {
	chain := Chain{{Subject: "Hello", Body: "World", Type: "inbound-email"}}

	messages := Format(chain, "sys")

	want := "Subject: Hello\n\nBody: World"
	if messages[1].Content != want {
		t.Errorf("expected %q, got %q", want, messages[1].Content)
	}
}

func TestFormat_MissingFieldsDefaultEmpty(t *testing.T) {
	chain := Chain{{Type: "inbound-email"}}

	messages := Format(chain, "sys")

	want := "Subject: \n\nBody: "
	if messages[1].Content != want {
		t.Errorf("expected %q, got %q", want, messages[1].Content)
	}
}

func TestFormat_EmptyChain(t *testing.T) {
	messages := Format(Chain{}, "sys")

	if len(messages) != 1 {
		t.Fatalf("expected only the system message, got %d messages", len(messages))
	}
	if messages[0].Role != "system" {
		t.Errorf("expected system role, got %s", messages[0].Role)
	}
}

func TestFirst_Truncates(t *testing.T) {
	chain := Chain{
		{Subject: "a", Type: "inbound-email"},
		{Subject: "b", Type: "outbound-email"},
	}

	first := chain.First()

	if len(first) != 1 {
		t.Fatalf("expected 1 email, got %d", len(first))
	}
	if first[0].Subject != "a" {
		t.Errorf("expected first email, got %q", first[0].Subject)
	}
	if len(chain) != 2 {
		t.Errorf("original chain must not be mutated")
	}
}

func TestFirst_Empty(t *testing.T) {
	if got := (Chain{}).First(); len(got) != 0 {
		t.Errorf("expected empty chain, got %d emails", len(got))
	}
}
