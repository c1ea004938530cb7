// Package weaviate is a minimal REST client to a Weaviate instance acting
// as the semantic index. Objects are embedded server-side by the instance's
// text2vec module; this client only moves text and filters by chatbot scope.
package weaviate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
	"github.com/chinpeerapat/assistant-builder/internal/vectorindex"
)

// Client talks to the Weaviate REST and GraphQL APIs.
type Client struct {
	url    string
	apiKey string
	class  string
	client *http.Client
}

// Config configures the Weaviate client.
type Config struct {
	URL     string
	APIKey  string
	Class   string
	Timeout time.Duration
}

// NewClient creates a Weaviate client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:8080"
	}
	if cfg.Class == "" {
		cfg.Class = "Document"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		class:  cfg.Class,
		client: &http.Client{Timeout: timeout},
	}
}

// Upsert stores one passage. Weaviate object ids must be UUIDs, so the
// object id is derived deterministically from the passage id; the passage
// id itself travels in the properties.
func (c *Client) Upsert(ctx context.Context, p domain.IndexedPassage) error {
	body := map[string]any{
		"class": c.class,
		"id":    uuid.NewSHA1(uuid.NameSpaceURL, []byte(p.ID)).String(),
		"properties": map[string]any{
			"passageId": p.ID,
			"chatbotId": p.ChatbotID,
			"content":   p.Content,
			"filename":  p.Filename,
		},
	}
	return c.postJSON(ctx, fmt.Sprintf("%s/v1/objects", c.url), body, nil)
}

// Query runs a nearText search scoped to one chatbot. Results beyond
// maxDistance are excluded by the instance itself.
func (c *Client) Query(ctx context.Context, chatbotID, text string, maxDistance float64, limit int) ([]vectorindex.Match, error) {
	if limit <= 0 {
		limit = 1
	}
	concepts, _ := json.Marshal([]string{text})
	scope, _ := json.Marshal(chatbotID)
	gql := fmt.Sprintf(
		`{ Get { %s(limit: %d, nearText: {concepts: %s, distance: %g}, where: {path: ["chatbotId"], operator: Equal, valueText: %s}) { content filename _additional { distance } } } }`,
		c.class, limit, concepts, maxDistance, scope,
	)
	var resp struct {
		Data struct {
			Get map[string][]struct {
				Content    string `json:"content"`
				Filename   string `json:"filename"`
				Additional struct {
					Distance float64 `json:"distance"`
				} `json:"_additional"`
			} `json:"Get"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := c.postJSON(ctx, fmt.Sprintf("%s/v1/graphql", c.url), map[string]any{"query": gql}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate query failed: %s", resp.Errors[0].Message)
	}
	rows := resp.Data.Get[c.class]
	matches := make([]vectorindex.Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, vectorindex.Match{
			Content:  r.Content,
			Filename: r.Filename,
			Distance: r.Additional.Distance,
		})
	}
	return matches, nil
}

func (c *Client) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("weaviate POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
