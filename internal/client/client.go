// Package client is the typed HTTP client the chat program uses to talk
// to assistantd.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
)

// Client calls the assistant API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Config configures the API client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// New creates an API client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}
}

// UploadResult is the ingestion receipt returned by the upload endpoint.
type UploadResult struct {
	Message   string `json:"message"`
	PassageID string `json:"passageId"`
	Passages  int    `json:"passages"`
	Summary   string `json:"summary"`
}

// Chatbot fetches the configuration record for one chatbot.
func (c *Client) Chatbot(ctx context.Context, chatbotID string) (domain.ChatbotConfig, error) {
	var bot domain.ChatbotConfig
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/api/chatbots/%s/", c.baseURL, chatbotID), nil, &bot)
	return bot, err
}

// Chat submits the conversation history and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, chatbotID string, history []domain.Message) (domain.Message, error) {
	var resp struct {
		Message domain.Message `json:"message"`
	}
	body := map[string]any{"messages": history}
	url := fmt.Sprintf("%s/api/chatbots/%s/chat", c.baseURL, chatbotID)
	if err := c.doJSON(ctx, http.MethodPost, url, body, &resp); err != nil {
		return domain.Message{}, err
	}
	return resp.Message, nil
}

// Upload sends one document for ingestion into the chatbot's corpus.
func (c *Client) Upload(ctx context.Context, chatbotID, filename string, content []byte) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := fw.Write(content); err != nil {
		return UploadResult{}, err
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, err
	}

	url := fmt.Sprintf("%s/api/chatbots/%s/upload", c.baseURL, chatbotID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	var result UploadResult
	if err := c.do(req, &result); err != nil {
		return UploadResult{}, err
	}
	return result, nil
}

// SubmitInquiry records a human-escalation request.
func (c *Client) SubmitInquiry(ctx context.Context, chatbotID, conversationID, email, message string) error {
	body := map[string]string{
		"conversationId": conversationID,
		"email":          email,
		"message":        message,
	}
	url := fmt.Sprintf("%s/api/chatbots/%s/inquiries", c.baseURL, chatbotID)
	return c.doJSON(ctx, http.MethodPost, url, body, nil)
}

// Health probes the server.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		if resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
		}
		return fmt.Errorf("request failed: %s", msg)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
