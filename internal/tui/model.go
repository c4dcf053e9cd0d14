package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	botly "github.com/trishiras/botly-v3-rag"
)

// ChatPort is the TUI-facing subset of the chat session.
type ChatPort interface {
	Send(ctx context.Context, query string) string
	AttachFile(ctx context.Context, path string) error
	History() []botly.Turn
	HasDocument() bool
}

type replyMsg struct {
	reply string
}

type attachMsg struct {
	path string
	err  error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	session  ChatPort
	input    textinput.Model
	viewport viewport.Model
	status   string
	ready    bool
	busy     bool
}

// New creates a new chat model instance.
func New(session ChatPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message, or /attach <path> to add a PDF"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{session: session, input: ti, viewport: vp, status: "Ready. Mention @pdf to ask about the attached document."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case replyMsg:
		m.busy = false
		m.status = "Ready."
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case attachMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Attach failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Attached %s. Mention @pdf to ask about it.", msg.path)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.busy {
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				break
			}
			m.input.SetValue("")
			if path, ok := strings.CutPrefix(line, "/attach "); ok {
				path = strings.TrimSpace(path)
				m.busy = true
				m.status = "Ingesting " + path + "..."
				return m, attachCmd(m.session, path)
			}
			m.busy = true
			m.status = "Thinking..."
			m.viewport.SetContent(m.renderTranscript() + "\n" + userStyle.Render("you: ") + line)
			m.viewport.GotoBottom()
			return m, sendCmd(m.session, line)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := "Botly"
	if m.session.HasDocument() {
		title += "  [pdf attached]"
	}
	header := lipgloss.NewStyle().Bold(true).Render(title)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	turns := m.session.History()
	if len(turns) == 0 {
		return "No messages yet."
	}
	var sb strings.Builder
	for i, turn := range turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch turn.Role {
		case botly.RoleUser:
			sb.WriteString(userStyle.Render("you: "))
		default:
			sb.WriteString(assistantStyle.Render("botly: "))
		}
		sb.WriteString(turn.Content)
	}
	return sb.String()
}

func sendCmd(session ChatPort, query string) tea.Cmd {
	return func() tea.Msg {
		return replyMsg{reply: session.Send(context.Background(), query)}
	}
}

func attachCmd(session ChatPort, path string) tea.Cmd {
	return func() tea.Msg {
		return attachMsg{path: path, err: session.AttachFile(context.Background(), path)}
	}
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
