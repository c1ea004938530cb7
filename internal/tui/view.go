package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	botLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	userLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	faintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	formStyle      = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

// View renders the chat layout: header, conversation, side-flow lines,
// input box and notice footer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.loadErr != nil {
		return "Could not load chatbot: " + m.loadErr.Error() + "\n"
	}
	if !m.cfgLoaded {
		return "Connecting...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.cfg.Name))
	b.WriteString("\n")
	b.WriteString(chatBoxStyle.Render(m.viewport.View()))
	b.WriteString("\n")

	if m.inquiryOpen {
		b.WriteString(m.renderInquiryForm())
		b.WriteString("\n")
	} else if m.inquiryOffered() {
		b.WriteString(faintStyle.Render("[ctrl+e] " + m.cfg.InquiryLinkText + "   [ctrl+b] dismiss"))
		b.WriteString("\n")
	}

	if m.pendingFile != "" {
		chip := "attached: " + m.pendingFile
		if m.uploading {
			chip = m.spin.View() + " uploading " + m.pendingFile
		}
		b.WriteString(faintStyle.Render(chip + "   [ctrl+x] clear"))
		b.WriteString("\n")
	}

	if m.focus == focusAttach {
		b.WriteString(inputBoxStyle.Render(m.attachInput.View()))
	} else {
		b.WriteString(inputBoxStyle.Render(m.input.View()))
	}
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(faintStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) helpLine() string {
	parts := []string{"enter send"}
	if m.cfg.FileAttachmentEnabled {
		parts = append(parts, "ctrl+o attach")
	}
	parts = append(parts, "ctrl+c quit")
	return strings.Join(parts, " · ")
}

func (m Model) renderInquiryForm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.cfg.InquiryTitle))
	b.WriteString("\n")
	b.WriteString(m.cfg.InquiryEmailLabel + ": " + m.emailInput.View())
	b.WriteString("\n")
	b.WriteString(m.cfg.InquiryMessageLabel + ": " + m.messageInput.View())
	b.WriteString("\n")
	if m.inquirySending {
		b.WriteString(m.spin.View() + " sending...")
	} else {
		b.WriteString(faintStyle.Render("[enter] send · [tab] next field · [esc] close"))
	}
	return formStyle.Render(b.String())
}

// syncViewport re-renders the turn list and follows the tail. Scrolling is
// a side effect of list length changes only.
func (m *Model) syncViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m Model) renderConversation() string {
	var b strings.Builder
	if m.cfgLoaded && m.cfg.WelcomeMessage != "" {
		b.WriteString(botLabelStyle.Render(m.cfg.Name) + " " + m.cfg.WelcomeMessage)
		b.WriteString("\n\n")
	}
	for _, t := range m.turns {
		switch {
		case t.Pending:
			b.WriteString(botLabelStyle.Render(m.cfg.Name) + " " + m.spin.View() + " thinking...")
		case t.Role == domain.RoleUser:
			b.WriteString(userLabelStyle.Render("You") + " " + t.Content)
		default:
			b.WriteString(botLabelStyle.Render(m.cfg.Name) + " " + t.Content)
		}
		b.WriteString("\n\n")
	}
	if len(m.turns) == 0 && !m.cfgLoaded {
		return "..."
	}
	return strings.TrimRight(b.String(), "\n")
}
