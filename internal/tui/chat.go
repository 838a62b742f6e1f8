// Package tui is the interactive chat interface for asking renewal
// questions from the terminal.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/llm"
)

// Answerer is the chat-facing subset of the router.
type Answerer interface {
	Answer(ctx context.Context, userQuery string, membershipNbr *int64) (*llm.Answer, error)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	inputStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type answerMsg struct {
	answer *llm.Answer
	err    error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	answerer Answerer

	input    textinput.Model
	viewport viewport.Model
	history  []string

	member  *int64
	waiting bool
	ready   bool
}

// New creates a chat model.
func New(answerer Answerer) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about renewals, or /member <nbr> to personalize"
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		answerer: answerer,
		input:    ti,
		viewport: viewport.New(0, 0),
	}
}

// Run starts the chat session and blocks until the user quits.
func Run(answerer Answerer) error {
	_, err := tea.NewProgram(New(answerer), tea.WithAltScreen()).Run()
	return err
}

// Init initializes the model.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ih := inputStyle.GetFrameSize()
		vh := msg.Height - ih - 4 // header, member line, status, spacer
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vh
		m.viewport.SetContent(strings.Join(m.history, "\n"))
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.String() == "esc" {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			return m.submit()
		}

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.append(errStyle.Render("error: " + msg.err.Error()))
		} else {
			m.append(metaStyle.Render(fmt.Sprintf("[intent: %s]", msg.answer.Intent)))
			m.append(botStyle.Render(msg.answer.Text))
			m.append("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles the Enter key: slash commands mutate session state,
// anything else is sent to the router.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.SetValue("")

	if strings.HasPrefix(text, "/member") {
		return m.setMember(strings.TrimSpace(strings.TrimPrefix(text, "/member"))), nil
	}

	m.append(userStyle.Render("you: ") + text)
	m.waiting = true

	member := m.member
	answerer := m.answerer
	return m, func() tea.Msg {
		ans, err := answerer.Answer(context.Background(), text, member)
		return answerMsg{answer: ans, err: err}
	}
}

// setMember updates or clears the member the session is personalized to.
func (m Model) setMember(arg string) Model {
	if arg == "" {
		m.member = nil
		m.append(metaStyle.Render("[member cleared]"))
		return m
	}
	nbr, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		m.append(errStyle.Render("usage: /member <membership number>"))
		return m
	}
	m.member = &nbr
	m.append(metaStyle.Render(fmt.Sprintf("[member set to %d]", nbr)))
	return m
}

func (m *Model) append(line string) {
	m.history = append(m.history, line)
	m.viewport.SetContent(strings.Join(m.history, "\n"))
	m.viewport.GotoBottom()
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render("Renewal Intelligence Chat")
	memberLine := metaStyle.Render("member: none")
	if m.member != nil {
		memberLine = metaStyle.Render(fmt.Sprintf("member: %d", *m.member))
	}
	status := metaStyle.Render("enter to send, /member <nbr> to personalize, esc to quit")
	if m.waiting {
		status = metaStyle.Render("thinking...")
	}

	return header + "  " + memberLine + "\n" +
		m.viewport.View() + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		status
}
