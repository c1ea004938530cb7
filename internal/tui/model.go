// Package tui implements the terminal chat client: the conversation state
// machine owning the turn list, the attachment flow and the escalation
// flow. It talks to the server only through the Service contract.
package tui

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/chinpeerapat/assistant-builder/internal/client"
	"github.com/chinpeerapat/assistant-builder/internal/domain"
)

// Service is the TUI-facing contract to the conversation backend.
type Service interface {
	Chatbot(ctx context.Context, chatbotID string) (domain.ChatbotConfig, error)
	Chat(ctx context.Context, chatbotID string, history []domain.Message) (domain.Message, error)
	Upload(ctx context.Context, chatbotID, filename string, content []byte) (client.UploadResult, error)
	SubmitInquiry(ctx context.Context, chatbotID, conversationID, email, message string) error
	Health(ctx context.Context) error
}

// Turn is one rendered conversation entry. A pending turn is the transient
// loading placeholder; while present it is always the last element.
type Turn struct {
	Role    domain.Role
	Content string
	Pending bool
}

type focusArea int

const (
	focusInput focusArea = iota
	focusAttach
	focusInquiryEmail
	focusInquiryMessage
)

// Messages produced by asynchronous commands.
type (
	configLoadedMsg struct {
		cfg domain.ChatbotConfig
		err error
	}
	healthCheckedMsg struct{ err error }
	replyMsg         struct {
		reply domain.Message
		err   error
	}
	uploadDoneMsg struct {
		file    string
		receipt client.UploadResult
		err     error
	}
	inquiryDoneMsg   struct{ err error }
	noticeExpiredMsg struct{ seq int }
)

// Model is the Bubble Tea model for the chat client.
type Model struct {
	svc            Service
	chatbotID      string
	conversationID string

	cfg       domain.ChatbotConfig
	cfgLoaded bool
	loadErr   error

	turns    []Turn
	awaiting bool

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	ready    bool
	width    int

	focus focusArea

	// attachment flow
	attachInput textinput.Model
	pendingFile string
	uploading   bool

	// escalation flow
	inquiryHidden  bool
	inquiryOpen    bool
	inquirySending bool
	emailInput     textinput.Model
	messageInput   textinput.Model

	notice    string
	noticeSeq int
}

// New creates a chat model bound to one chatbot. A fresh conversation
// correlation id is minted per program run.
func New(svc Service, chatbotID string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message"
	ti.Focus()
	ti.CharLimit = 0

	ai := textinput.New()
	ai.Prompt = "file: "
	ai.Placeholder = "path/to/document.txt"

	ei := textinput.New()
	ei.Prompt = ""
	ei.Placeholder = "you@example.com"

	mi := textinput.New()
	mi.Prompt = ""
	mi.Placeholder = "How can we help?"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		svc:            svc,
		chatbotID:      chatbotID,
		conversationID: uuid.NewString(),
		input:          ti,
		attachInput:    ai,
		emailInput:     ei,
		messageInput:   mi,
		spin:           sp,
		viewport:       viewport.New(0, 0),
	}
}

// Init fetches the chatbot configuration and probes the server as two
// independent commands: a failed health probe only posts a notice, it
// never aborts the config load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.fetchConfig(), m.checkHealth())
}

func (m Model) fetchConfig() tea.Cmd {
	svc, id := m.svc, m.chatbotID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		cfg, err := svc.Chatbot(ctx, id)
		return configLoadedMsg{cfg: cfg, err: err}
	}
}

func (m Model) checkHealth() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return healthCheckedMsg{err: svc.Health(ctx)}
	}
}

func (m Model) requestReply() tea.Cmd {
	svc, id := m.svc, m.chatbotID
	history := m.history()
	return func() tea.Msg {
		reply, err := svc.Chat(context.Background(), id, history)
		return replyMsg{reply: reply, err: err}
	}
}

func (m Model) uploadFile(path string) tea.Cmd {
	svc, id := m.svc, m.chatbotID
	return func() tea.Msg {
		name := filepath.Base(path)
		content, err := os.ReadFile(path)
		if err != nil {
			return uploadDoneMsg{file: name, err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		receipt, err := svc.Upload(ctx, id, name, content)
		return uploadDoneMsg{file: name, receipt: receipt, err: err}
	}
}

func (m Model) sendInquiry(email, message string) tea.Cmd {
	svc, id, conv := m.svc, m.chatbotID, m.conversationID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return inquiryDoneMsg{err: svc.SubmitInquiry(ctx, id, conv, email, message)}
	}
}

// history converts the visible turn list, minus any loading placeholder,
// into the wire message sequence.
func (m Model) history() []domain.Message {
	out := make([]domain.Message, 0, len(m.turns))
	for _, t := range m.turns {
		if t.Pending {
			continue
		}
		out = append(out, domain.Message{Role: t.Role, Content: t.Content})
	}
	return out
}

// realTurnCount counts committed turns; the escalation threshold ignores
// the loading placeholder.
func (m Model) realTurnCount() int {
	n := 0
	for _, t := range m.turns {
		if !t.Pending {
			n++
		}
	}
	return n
}

// inquiryOffered reports whether the escalation entry point is shown.
func (m Model) inquiryOffered() bool {
	return m.cfgLoaded &&
		m.cfg.InquiryEnabled &&
		!m.inquiryHidden &&
		m.realTurnCount() >= m.cfg.InquiryAfterTurns
}
