package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the closed set accepted at
// system boundaries.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is one turn of a conversation in either direction.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ValidateHistory checks an incoming conversation history: it must be
// non-empty, every role must belong to the closed set, and the latest
// message must come from the user so there is a retrieval query to run.
func ValidateHistory(history []Message) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: empty history", ErrInvalidInput)
	}
	for i, m := range history {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidInput, i, m.Role)
		}
	}
	if last := history[len(history)-1]; last.Role != RoleUser {
		return fmt.Errorf("%w: last message must be from the user, got %q", ErrInvalidInput, last.Role)
	}
	return nil
}

// ChatbotConfig is the flat per-chatbot configuration record. It is owned
// externally and read-only for the duration of a conversation.
type ChatbotConfig struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Prompt string `yaml:"prompt" json:"prompt"`
	Model  string `yaml:"model" json:"model"`

	WelcomeMessage     string `yaml:"welcome_message" json:"welcomeMessage"`
	ErrorMessage       string `yaml:"error_message" json:"errorMessage"`
	MessagePlaceholder string `yaml:"message_placeholder" json:"messagePlaceholder"`

	FileAttachmentEnabled bool `yaml:"file_attachment_enabled" json:"fileAttachmentEnabled"`

	InquiryEnabled       bool   `yaml:"inquiry_enabled" json:"inquiryEnabled"`
	InquiryAfterTurns    int    `yaml:"inquiry_after_turns" json:"inquiryAfterTurns"`
	InquiryLinkText      string `yaml:"inquiry_link_text" json:"inquiryLinkText"`
	InquiryTitle         string `yaml:"inquiry_title" json:"inquiryTitle"`
	InquiryEmailLabel    string `yaml:"inquiry_email_label" json:"inquiryEmailLabel"`
	InquiryMessageLabel  string `yaml:"inquiry_message_label" json:"inquiryMessageLabel"`
	InquiryAutoReplyText string `yaml:"inquiry_auto_reply_text" json:"inquiryAutoReplyText"`
}

// IndexedPassage is the unit stored in the vector index. One uploaded
// document maps to one or more passages depending on the chunking policy.
type IndexedPassage struct {
	ID        string `json:"id"`
	ChatbotID string `json:"chatbotId"`
	Content   string `json:"content"`
	Filename  string `json:"filename"`
}

// RetrievalResult is the per-turn outcome of context retrieval. Found is
// false both when nothing clears the distance cutoff and when the index
// was unreachable; callers cannot and must not distinguish the two.
type RetrievalResult struct {
	ChatbotID string
	Content   string
	Filename  string
	Found     bool
}

// Inquiry is a user-initiated handoff to a human, recorded out-of-band
// from the conversation. Terminal once submitted.
type Inquiry struct {
	ID             string    `json:"id"`
	ChatbotID      string    `json:"chatbotId"`
	ConversationID string    `json:"conversationId"`
	Email          string    `json:"email"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Validate checks the fields a submitter controls.
func (q Inquiry) Validate() error {
	if strings.TrimSpace(q.ChatbotID) == "" {
		return fmt.Errorf("%w: missing chatbot id", ErrInvalidInput)
	}
	email := strings.TrimSpace(q.Email)
	if at := strings.Index(email, "@"); at <= 0 || at == len(email)-1 {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if strings.TrimSpace(q.Message) == "" {
		return fmt.Errorf("%w: empty inquiry message", ErrInvalidInput)
	}
	return nil
}
