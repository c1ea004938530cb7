// Package chatbot holds the read-only registry of chatbot configuration
// records. Records are loaded once at startup; the conversation core never
// mutates them.
package chatbot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
)

// Registry resolves chatbot ids to their configuration records.
type Registry struct {
	bots map[string]domain.ChatbotConfig
}

// LoadRegistry reads chatbot records from a YAML file of the shape
// `chatbots: [...]` and applies per-bot defaults.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chatbots file: %w", err)
	}
	var doc struct {
		Chatbots []domain.ChatbotConfig `yaml:"chatbots"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing chatbots file: %w", err)
	}
	return NewRegistry(doc.Chatbots)
}

// NewRegistry builds a registry from in-memory records.
func NewRegistry(bots []domain.ChatbotConfig) (*Registry, error) {
	m := make(map[string]domain.ChatbotConfig, len(bots))
	for _, b := range bots {
		if b.ID == "" {
			return nil, fmt.Errorf("chatbot record without id")
		}
		if _, ok := m[b.ID]; ok {
			return nil, fmt.Errorf("duplicate chatbot id %q", b.ID)
		}
		applyBotDefaults(&b)
		m[b.ID] = b
	}
	return &Registry{bots: m}, nil
}

// Get returns the record for a chatbot id, or domain.ErrNotFound.
func (r *Registry) Get(id string) (domain.ChatbotConfig, error) {
	b, ok := r.bots[id]
	if !ok {
		return domain.ChatbotConfig{}, fmt.Errorf("%w: %q", domain.ErrNotFound, id)
	}
	return b, nil
}

func applyBotDefaults(b *domain.ChatbotConfig) {
	if b.Name == "" {
		b.Name = b.ID
	}
	if b.WelcomeMessage == "" {
		b.WelcomeMessage = "Hello! How can I help you today?"
	}
	if b.ErrorMessage == "" {
		b.ErrorMessage = "Something went wrong. Please try again."
	}
	if b.MessagePlaceholder == "" {
		b.MessagePlaceholder = "Type a message"
	}
	if b.InquiryAfterTurns == 0 {
		b.InquiryAfterTurns = 3
	}
	if b.InquiryLinkText == "" {
		b.InquiryLinkText = "Contact our team"
	}
	if b.InquiryTitle == "" {
		b.InquiryTitle = "Send us a message"
	}
	if b.InquiryEmailLabel == "" {
		b.InquiryEmailLabel = "Email"
	}
	if b.InquiryMessageLabel == "" {
		b.InquiryMessageLabel = "Message"
	}
	if b.InquiryAutoReplyText == "" {
		b.InquiryAutoReplyText = "Thanks for reaching out! We'll get back to you by email."
	}
}
