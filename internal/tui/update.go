package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
)

// Update handles key and command events and drives the three flows. The
// main turn flow, attachment flow and escalation flow never block each
// other; each is advanced by its own message types.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-10)
		m.syncViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.awaiting || m.uploading || m.inquirySending {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case configLoadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			return m.withNotice("Failed to load chatbot configuration: " + msg.err.Error())
		}
		m.cfg = msg.cfg
		m.cfgLoaded = true
		m.loadErr = nil
		if m.cfg.MessagePlaceholder != "" {
			m.input.Placeholder = m.cfg.MessagePlaceholder
		}
		m.syncViewport()
		return m, nil

	case healthCheckedMsg:
		if msg.err != nil {
			return m.withNotice("Server health check failed: " + msg.err.Error())
		}
		return m, nil

	case replyMsg:
		m.awaiting = false
		if msg.err != nil {
			m.dropPlaceholder()
			m.syncViewport()
			return m.withNotice(m.errorText())
		}
		m.replacePlaceholder(Turn{Role: domain.RoleAssistant, Content: msg.reply.Content})
		m.syncViewport()
		return m, nil

	case uploadDoneMsg:
		m.uploading = false
		if msg.err != nil {
			return m.withNotice("Failed to upload " + msg.file)
		}
		notice := "Uploaded " + msg.file
		if msg.receipt.Summary != "" {
			notice += ": " + msg.receipt.Summary
		}
		return m.withNotice(notice)

	case inquiryDoneMsg:
		m.inquirySending = false
		if msg.err != nil {
			// Form stays open for a manual retry.
			return m.withNotice("Failed to send inquiry")
		}
		m.closeInquiryForm()
		// Escalation accepted: the main flow appends the canned reply,
		// keeping the turn list single-owner.
		m.turns = append(m.turns, Turn{Role: domain.RoleAssistant, Content: m.cfg.InquiryAutoReplyText})
		m.syncViewport()
		return m, nil

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
		return m, tea.Quit
	}
	if m.inquiryOpen {
		return m.handleInquiryKey(msg)
	}
	if m.focus == focusAttach {
		return m.handleAttachKey(msg)
	}

	switch msg.String() {
	case "enter":
		return m.submitTurn()
	case "ctrl+o":
		if m.cfgLoaded && m.cfg.FileAttachmentEnabled && !m.uploading {
			m.focus = focusAttach
			m.input.Blur()
			m.attachInput.Reset()
			return m, m.attachInput.Focus()
		}
		return m, nil
	case "ctrl+x":
		// Clearing the pending attachment is UI-only.
		m.pendingFile = ""
		return m, nil
	case "ctrl+e":
		if m.inquiryOffered() {
			m.inquiryOpen = true
			m.focus = focusInquiryEmail
			m.input.Blur()
			return m, m.emailInput.Focus()
		}
		return m, nil
	case "ctrl+b":
		// Dismissing the offer is idempotent and lasts for this
		// conversation only.
		m.inquiryHidden = true
		return m, nil
	}

	return m.updateFocused(msg)
}

// submitTurn runs the main flow transition composing -> awaiting_reply.
// While a reply is in flight the input is inert: no overlapping requests.
func (m Model) submitTurn() (tea.Model, tea.Cmd) {
	if m.awaiting {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.turns = append(m.turns, Turn{Role: domain.RoleUser, Content: text})
	m.turns = append(m.turns, Turn{Role: domain.RoleAssistant, Pending: true})
	m.input.Reset()
	m.pendingFile = ""
	m.awaiting = true
	m.syncViewport()
	return m, tea.Batch(m.requestReply(), m.spin.Tick)
}

func (m Model) handleAttachKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusInput
		m.attachInput.Blur()
		return m, m.input.Focus()
	case "enter":
		path := strings.TrimSpace(m.attachInput.Value())
		if path == "" {
			return m, nil
		}
		m.pendingFile = path
		m.uploading = true
		m.focus = focusInput
		m.attachInput.Blur()
		return m, tea.Batch(m.input.Focus(), m.uploadFile(path), m.spin.Tick)
	}
	var cmd tea.Cmd
	m.attachInput, cmd = m.attachInput.Update(msg)
	return m, cmd
}

func (m Model) handleInquiryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInquiryForm()
		return m, nil
	case "tab", "shift+tab":
		if m.focus == focusInquiryEmail {
			m.focus = focusInquiryMessage
			m.emailInput.Blur()
			return m, m.messageInput.Focus()
		}
		m.focus = focusInquiryEmail
		m.messageInput.Blur()
		return m, m.emailInput.Focus()
	case "enter":
		if m.inquirySending {
			return m, nil
		}
		email := strings.TrimSpace(m.emailInput.Value())
		message := strings.TrimSpace(m.messageInput.Value())
		if !strings.Contains(email, "@") || message == "" {
			return m.withNotice("Enter an email address and a message first")
		}
		m.inquirySending = true
		return m, tea.Batch(m.sendInquiry(email, message), m.spin.Tick)
	}
	var cmd tea.Cmd
	if m.focus == focusInquiryMessage {
		m.messageInput, cmd = m.messageInput.Update(msg)
	} else {
		m.emailInput, cmd = m.emailInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) closeInquiryForm() {
	m.inquiryOpen = false
	m.focus = focusInput
	m.emailInput.Blur()
	m.messageInput.Blur()
	m.emailInput.Reset()
	m.messageInput.Reset()
	m.input.Focus()
}

// replacePlaceholder swaps the loading placeholder for the real reply; the
// two never coexist.
func (m *Model) replacePlaceholder(t Turn) {
	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].Pending {
			m.turns[i] = t
			return
		}
	}
	m.turns = append(m.turns, t)
}

func (m *Model) dropPlaceholder() {
	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].Pending {
			m.turns = append(m.turns[:i], m.turns[i+1:]...)
			return
		}
	}
}

func (m Model) errorText() string {
	if m.cfgLoaded && m.cfg.ErrorMessage != "" {
		return m.cfg.ErrorMessage
	}
	return "Something went wrong. Please try again."
}

func (m Model) withNotice(text string) (Model, tea.Cmd) {
	m.notice = text
	m.noticeSeq++
	seq := m.noticeSeq
	return m, tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusAttach:
		m.attachInput, cmd = m.attachInput.Update(msg)
	case focusInquiryEmail:
		m.emailInput, cmd = m.emailInput.Update(msg)
	case focusInquiryMessage:
		m.messageInput, cmd = m.messageInput.Update(msg)
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
