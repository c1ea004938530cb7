// Package openai is an OpenAI-compatible chat-completions client
// implementing the Generator interface.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
)

// Client calls the /chat/completions endpoint of an OpenAI-compatible API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Config configures the completions client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Timeout   time.Duration
}

// NewClient creates a completions client using the provided configuration.
// The API key is read from the environment variable named in APIKeyEnv.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		client:  &http.Client{Timeout: t},
	}, nil
}

// Complete sends the message sequence and returns the first choice. The
// client does not retry; failed turns are re-submitted by the user.
func (c *Client) Complete(ctx context.Context, model string, messages []domain.Message) (domain.Message, error) {
	type reqBody struct {
		Model    string           `json:"model"`
		Messages []domain.Message `json:"messages"`
	}
	data, err := json.Marshal(reqBody{Model: model, Messages: messages})
	if err != nil {
		return domain.Message{}, err
	}
	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return domain.Message{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Message{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return domain.Message{}, fmt.Errorf("chat completion failed: %s", resp.Status)
	}
	var out struct {
		Choices []struct {
			Message domain.Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Message{}, err
	}
	if len(out.Choices) == 0 {
		return domain.Message{}, errors.New("no completion returned")
	}
	return out.Choices[0].Message, nil
}
