package conversation

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
)

type stubRetriever struct {
	result domain.RetrievalResult
}

func (s stubRetriever) Retrieve(_ context.Context, chatbotID, _ string) domain.RetrievalResult {
	r := s.result
	r.ChatbotID = chatbotID
	return r
}

type stubGenerator struct {
	reply      domain.Message
	err        error
	gotModel   string
	gotPrompt  []domain.Message
	callsCount int
}

func (s *stubGenerator) Complete(_ context.Context, model string, messages []domain.Message) (domain.Message, error) {
	s.gotModel = model
	s.gotPrompt = messages
	s.callsCount++
	return s.reply, s.err
}

var bot = domain.ChatbotConfig{
	ID:     "bot1",
	Prompt: "You are a support assistant.",
	Model:  "gpt-4",
}

func history(texts ...string) []domain.Message {
	role := domain.RoleUser
	out := make([]domain.Message, 0, len(texts))
	for _, text := range texts {
		out = append(out, domain.Message{Role: role, Content: text})
		if role == domain.RoleUser {
			role = domain.RoleAssistant
		} else {
			role = domain.RoleUser
		}
	}
	return out
}

func TestRespondPromptAssembly(t *testing.T) {
	gen := &stubGenerator{reply: domain.Message{Role: domain.RoleAssistant, Content: "5 days."}}
	o := New(stubRetriever{result: domain.RetrievalResult{
		Content: "Refunds are processed in 5 days.",
		Found:   true,
	}}, gen, "", zap.NewNop())

	h := history("hi", "hello!", "How long do refunds take?")
	reply, err := o.Respond(context.Background(), bot, h)
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	if reply.Role != domain.RoleAssistant || reply.Content != "5 days." {
		t.Errorf("unexpected reply: %+v", reply)
	}

	want := append([]domain.Message{
		{Role: domain.RoleSystem, Content: "You are a support assistant."},
		{Role: domain.RoleSystem, Content: "Relevant context: Refunds are processed in 5 days."},
	}, h...)
	if len(gen.gotPrompt) != len(want) {
		t.Fatalf("prompt has %d messages, want %d", len(gen.gotPrompt), len(want))
	}
	for i := range want {
		if gen.gotPrompt[i] != want[i] {
			t.Errorf("prompt[%d] = %+v, want %+v", i, gen.gotPrompt[i], want[i])
		}
	}
	if gen.gotModel != "gpt-4" {
		t.Errorf("expected configured model, got %q", gen.gotModel)
	}
}

func TestRespondEmptyContextSlot(t *testing.T) {
	gen := &stubGenerator{reply: domain.Message{Role: domain.RoleAssistant, Content: "Hello!"}}
	o := New(stubRetriever{}, gen, "", zap.NewNop())

	if _, err := o.Respond(context.Background(), bot, history("hi")); err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	// The model always sees a context slot, even when vacant.
	if gen.gotPrompt[1].Content != "Relevant context: " {
		t.Errorf("expected vacant context slot, got %q", gen.gotPrompt[1].Content)
	}
}

func TestRespondModelFallback(t *testing.T) {
	gen := &stubGenerator{reply: domain.Message{Role: domain.RoleAssistant, Content: "Hello!"}}
	o := New(stubRetriever{}, gen, "gpt-3.5-turbo", zap.NewNop())

	unconfigured := bot
	unconfigured.Model = ""
	if _, err := o.Respond(context.Background(), unconfigured, history("hi")); err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	if gen.gotModel != "gpt-3.5-turbo" {
		t.Errorf("expected default model, got %q", gen.gotModel)
	}
}

func TestRespondGenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	o := New(stubRetriever{}, gen, "", zap.NewNop())

	_, err := o.Respond(context.Background(), bot, history("hi"))
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestRespondMalformedCompletion(t *testing.T) {
	for name, reply := range map[string]domain.Message{
		"empty content": {Role: domain.RoleAssistant},
		"user role":     {Role: domain.RoleUser, Content: "hm"},
		"unknown role":  {Role: "robot", Content: "beep"},
	} {
		gen := &stubGenerator{reply: reply}
		o := New(stubRetriever{}, gen, "", zap.NewNop())
		if _, err := o.Respond(context.Background(), bot, history("hi")); !errors.Is(err, domain.ErrGenerationFailed) {
			t.Errorf("%s: expected ErrGenerationFailed, got %v", name, err)
		}
	}
}

func TestRespondMissingRoleDefaultsToAssistant(t *testing.T) {
	gen := &stubGenerator{reply: domain.Message{Content: "Hello!"}}
	o := New(stubRetriever{}, gen, "", zap.NewNop())

	reply, err := o.Respond(context.Background(), bot, history("hi"))
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	if reply.Role != domain.RoleAssistant {
		t.Errorf("expected assistant role, got %q", reply.Role)
	}
}

func TestRespondRejectsBadHistory(t *testing.T) {
	gen := &stubGenerator{reply: domain.Message{Role: domain.RoleAssistant, Content: "x"}}
	o := New(stubRetriever{}, gen, "", zap.NewNop())

	cases := map[string][]domain.Message{
		"empty":              nil,
		"ends with bot turn": history("hi", "hello!"),
		"unknown role":       {{Role: "robot", Content: "hi"}},
	}
	for name, h := range cases {
		if _, err := o.Respond(context.Background(), bot, h); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
	if gen.callsCount != 0 {
		t.Errorf("generator called %d times for invalid histories", gen.callsCount)
	}
}
