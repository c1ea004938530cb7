package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/chinpeerapat/assistant-builder/internal/chatbot"
	"github.com/chinpeerapat/assistant-builder/internal/chunker"
	"github.com/chinpeerapat/assistant-builder/internal/config"
	"github.com/chinpeerapat/assistant-builder/internal/conversation"
	"github.com/chinpeerapat/assistant-builder/internal/domain"
	"github.com/chinpeerapat/assistant-builder/internal/ingest"
	"github.com/chinpeerapat/assistant-builder/internal/inquiry"
	"github.com/chinpeerapat/assistant-builder/internal/retrieval"
	"github.com/chinpeerapat/assistant-builder/internal/vectorindex/memory"
)

// echoGenerator replies with whatever context slot it was handed, which
// lets tests observe the upload-then-chat path end to end.
type echoGenerator struct {
	err error
}

func (g *echoGenerator) Complete(_ context.Context, _ string, messages []domain.Message) (domain.Message, error) {
	if g.err != nil {
		return domain.Message{}, g.err
	}
	return domain.Message{Role: domain.RoleAssistant, Content: messages[1].Content}, nil
}

func newTestServer(t *testing.T, gen *echoGenerator, token string) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	registry, err := chatbot.NewRegistry([]domain.ChatbotConfig{
		{ID: "bot1", Prompt: "You are a support assistant."},
	})
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}

	idx := memory.NewIndex()
	pipeline := ingest.NewPipeline(idx, chunker.NewWholeDocument(), logger)
	engine := retrieval.NewEngine(idx, retrieval.Config{MaxDistance: 0.7}, logger)
	orchestrator := conversation.New(engine, gen, "gpt-3.5-turbo", logger)
	inquiries := inquiry.NewService(inquiry.NewMemoryStore(), logger)

	srv := NewServer(registry, pipeline, orchestrator, inquiries,
		&config.ServerConfig{TimeoutSecs: 30}, token, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp, decoded
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t, &echoGenerator{}, "secret")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/chatbots/bot1/", "", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", resp.StatusCode)
	}
	if string(body["error"]) != `"Unauthorized"` {
		t.Errorf("unexpected error body: %s", body["error"])
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/chatbots/bot1/", "wrong", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 with bad token, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/chatbots/bot1/", "secret", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", resp.StatusCode)
	}
}

func TestHealthIsUnauthenticated(t *testing.T) {
	ts := newTestServer(t, &echoGenerator{}, "secret")
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", resp.StatusCode)
	}
}

func TestUnknownChatbot(t *testing.T) {
	ts := newTestServer(t, &echoGenerator{}, "")
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/chatbots/ghost/", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if string(body["error"]) != `"Chatbot not found"` {
		t.Errorf("unexpected error body: %s", body["error"])
	}
}

func TestGetChatbotAppliesDefaults(t *testing.T) {
	ts := newTestServer(t, &echoGenerator{}, "")
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/chatbots/bot1/", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	// Re-fetch with full decoding to check defaulted fields survive the trip.
	httpResp, err := http.Get(ts.URL + "/api/chatbots/bot1/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer httpResp.Body.Close()
	var bot domain.ChatbotConfig
	if err := json.NewDecoder(httpResp.Body).Decode(&bot); err != nil {
		t.Fatalf("decoding chatbot: %v", err)
	}
	if bot.WelcomeMessage == "" || bot.ErrorMessage == "" {
		t.Errorf("expected defaulted messages, got %+v", bot)
	}
	if bot.InquiryAfterTurns != 3 {
		t.Errorf("expected defaulted inquiry threshold, got %d", bot.InquiryAfterTurns)
	}
}

func TestUploadThenChat(t *testing.T) {
	ts := newTestServer(t, &echoGenerator{}, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "faq.txt")
	if err != nil {
		t.Fatalf("building form: %v", err)
	}
	if _, err := fw.Write([]byte("Refunds are processed in 5 days.")); err != nil {
		t.Fatalf("writing form: %v", err)
	}
	mw.Close()

	resp, err := http.Post(ts.URL+"/api/chatbots/bot1/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from upload, got %d", resp.StatusCode)
	}
	var uploaded struct {
		PassageID string `json:"passageId"`
		Passages  int    `json:"passages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("decoding upload response: %v", err)
	}
	if uploaded.Passages != 1 || uploaded.PassageID == "" {
		t.Fatalf("unexpected upload receipt: %+v", uploaded)
	}

	chatResp, body := doJSON(t, http.MethodPost, ts.URL+"/api/chatbots/bot1/chat", "", map[string]any{
		"messages": []domain.Message{{Role: domain.RoleUser, Content: "How long do refunds take?"}},
	})
	if chatResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from chat, got %d", chatResp.StatusCode)
	}
	var reply domain.Message
	if err := json.Unmarshal(body["message"], &reply); err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	if !strings.Contains(reply.Content, "Refunds are processed in 5 days.") {
		t.Errorf("reply does not carry the uploaded context: %q", reply.Content)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	ts := newTestServer(t, &echoGenerator{}, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	resp, err := http.Post(ts.URL+"/api/chatbots/bot1/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without a file part, got %d", resp.StatusCode)
	}
}

func TestChatRejectsBadHistory(t *testing.T) {
	ts := newTestServer(t, &echoGenerator{}, "")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/chatbots/bot1/chat", "", map[string]any{
		"messages": []domain.Message{},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty history, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/chatbots/bot1/chat", "", map[string]any{
		"messages": []domain.Message{{Role: domain.RoleAssistant, Content: "hi"}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 when the last turn is not the user's, got %d", resp.StatusCode)
	}
}

func TestChatGenerationFailure(t *testing.T) {
	ts := newTestServer(t, &echoGenerator{err: errors.New("model overloaded")}, "")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/chatbots/bot1/chat", "", map[string]any{
		"messages": []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 on generation failure, got %d", resp.StatusCode)
	}
	if string(body["error"]) != `"Internal server error"` {
		t.Errorf("unexpected error body: %s", body["error"])
	}
}

func TestInquirySubmission(t *testing.T) {
	ts := newTestServer(t, &echoGenerator{}, "")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/chatbots/bot1/inquiries", "", map[string]string{
		"conversationId": "conv-1",
		"email":          "user@example.com",
		"message":        "I need a human.",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var inq domain.Inquiry
	if err := json.Unmarshal(body["inquiry"], &inq); err != nil {
		t.Fatalf("decoding inquiry: %v", err)
	}
	if inq.ID == "" || inq.ChatbotID != "bot1" {
		t.Errorf("unexpected inquiry record: %+v", inq)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/chatbots/bot1/inquiries", "", map[string]string{
		"email":   "not-an-email",
		"message": "help",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid email, got %d", resp.StatusCode)
	}
}
