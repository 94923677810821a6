package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
	"docqa/internal/ratelimit"
)

// Asker is the TUI-facing subset of the question answering service.
type Asker interface {
	Ask(ctx context.Context, query string, topK int) (*domain.Answer, error)
}

// Model is the Bubble Tea model for the interactive ask loop.
type Model struct {
	service  Asker
	limiter  *ratelimit.SessionLimiter
	topK     int
	input    textinput.Model
	viewport viewport.Model
	answer   *domain.Answer
	status   string
	asking   bool
	ready    bool
}

type answerMsg struct {
	answer *domain.Answer
	err    error
}

// New creates a new TUI model instance.
func New(service Asker, limiter *ratelimit.SessionLimiter, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		limiter:  limiter,
		topK:     topK,
		input:    ti,
		viewport: vp,
		status:   fmt.Sprintf("Ready. %d queries left this session.", limiter.Remaining()),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case answerMsg:
		m.asking = false
		if msg.err != nil {
			m.status = errorStyle.Render("Error: " + msg.err.Error())
		} else {
			m.answer = msg.answer
			m.limiter.Record()
			m.status = fmt.Sprintf("%d in / %d out tokens, $%.4f. %d queries left.",
				msg.answer.InputTokens, msg.answer.OutputTokens, msg.answer.CostUSD, m.limiter.Remaining())
		}
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.asking {
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				break
			}
			if pw, ok := strings.CutPrefix(q, "/admin "); ok {
				if m.limiter.Login(strings.TrimSpace(pw)) {
					m.status = "Admin session: query cap lifted."
				} else {
					m.status = errorStyle.Render("Admin login failed.")
				}
				m.input.SetValue("")
				return m, nil
			}
			if err := m.limiter.Check(q); err != nil {
				m.status = errorStyle.Render(err.Error())
				return m, nil
			}
			m.asking = true
			m.status = "Thinking..."
			m.input.SetValue("")
			return m, m.ask(q)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(query string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.service.Ask(context.Background(), query, m.topK)
		return answerMsg{answer: answer, err: err}
	}
}

// View renders the TUI layout and the current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docqa")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	return header + "\n" + answer + "\n" + input + "\n" + m.status
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "No answer yet. Ask something about the indexed documents."
	}
	var b strings.Builder
	b.WriteString(m.answer.Text)
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Sources"))
	b.WriteString("\n")
	for i, r := range m.answer.Results {
		fmt.Fprintf(&b, "%d. %s  %s\n", i+1, r.Chunk.Source, similarityBadge(r.Score))
	}
	return b.String()
}

// similarityBadge mirrors the relevance bands shown next to each source.
func similarityBadge(score float64) string {
	label := fmt.Sprintf("%.3f", score)
	switch {
	case score > 0.4:
		return highBadge.Render(label)
	case score > 0.3:
		return mediumBadge.Render(label)
	default:
		return lowBadge.Render(label)
	}
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	highBadge      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mediumBadge    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowBadge       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
