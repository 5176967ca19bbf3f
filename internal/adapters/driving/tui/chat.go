// Package tui implements the interactive chat session using Bubble Tea.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sahay-labs/sahay-cli/internal/core/ports/driving"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	agentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// exchange is one question/answer pair in the transcript.
type exchange struct {
	question string
	answer   string
}

// answerMsg carries a completed answer back into the update loop.
type answerMsg struct {
	question string
	answer   string
}

// Chat is the Bubble Tea model for the interactive session.
type Chat struct {
	ctx      context.Context
	service  driving.AskService
	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	waiting  bool
	ready    bool
}

// NewChat creates the chat model. The context is passed through to the ask
// service on every question.
func NewChat(ctx context.Context, service driving.AskService) Chat {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about PM-KISAN and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	return Chat{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: viewport.New(0, 0),
	}
}

// Init starts the text input cursor blink.
func (m Chat) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and answer events.
func (m Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 2 // header, spacer, input frame, status
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width-4)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.waiting = true
			m.input.Reset()
			return m, m.ask(question)
		}

	case answerMsg:
		m.waiting = false
		m.history = append(m.history, exchange{question: msg.question, answer: msg.answer})
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the question off the update loop so typing stays responsive.
func (m Chat) ask(question string) tea.Cmd {
	ctx, service := m.ctx, m.service
	return func() tea.Msg {
		return answerMsg{
			question: question,
			answer:   service.Ask(ctx, question),
		}
	}
}

// View renders the transcript, input box, and status line.
func (m Chat) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render("Sahay AI - PM-KISAN Assistant")
	transcript := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())

	status := "Enter to ask, Esc to quit."
	if m.waiting {
		status = "Thinking..."
	}

	return header + "\n" + transcript + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m Chat) renderTranscript() string {
	if len(m.history) == 0 {
		return "Ask a question about the PM-KISAN scheme to get started."
	}

	var b strings.Builder
	for i, e := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(userStyle.Render("You: "))
		b.WriteString(e.question)
		b.WriteString("\n")
		b.WriteString(agentStyle.Render("Sahay: "))
		b.WriteString(e.answer)
	}
	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
