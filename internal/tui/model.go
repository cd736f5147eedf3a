package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tubesage/cli/internal/rag"
)

// Pipeline is the TUI-facing subset of the QA engine.
type Pipeline interface {
	Ingest(ctx context.Context, target string) (*rag.Source, error)
	Answer(ctx context.Context, sourceID, question string) (string, []rag.RetrievalResult, error)
	Summarize(ctx context.Context, sourceID string) (string, error)
	Sources(ctx context.Context) ([]rag.Source, error)
	Delete(ctx context.Context, sourceID string) error
}

type sourcesMsg struct {
	sources []rag.Source
	err     error
}

type ingestDoneMsg struct {
	source *rag.Source
	err    error
}

type answerDoneMsg struct {
	question string
	answer   string
	results  []rag.RetrievalResult
	err      error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	pipeline Pipeline

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	sources []rag.Source
	cursor  int
	busy    bool
	status  string
	content string
	ready   bool
	width   int
}

// New creates the chat model.
func New(pipeline Pipeline) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, /ingest <path|youtube-url>, or /summarize"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		pipeline: pipeline,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Select a source with tab/shift+tab, then ask away.",
		content:  "No conversation yet.",
	}
}

// Init loads the source list and starts the input cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadSources())
}

// Update handles key, window and completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, fh := contentStyle.GetFrameSize()
		reserved := 4 + fh // header, source bar, input, status
		m.viewport.Width = maxInt(20, msg.Width-2)
		m.viewport.Height = maxInt(3, msg.Height-reserved)
		m.viewport.SetContent(m.content)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			return m.submit()
		case "tab":
			if len(m.sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.sources)
			}
			return m, nil
		case "shift+tab":
			if len(m.sources) > 0 {
				m.cursor = (m.cursor - 1 + len(m.sources)) % len(m.sources)
			}
			return m, nil
		case "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case sourcesMsg:
		if msg.err != nil {
			m.status = "Error listing sources: " + msg.err.Error()
			return m, nil
		}
		m.sources = msg.sources
		if m.cursor >= len(m.sources) {
			m.cursor = 0
		}
		return m, nil

	case ingestDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Ingestion failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Ingested %s (%d chunks)", msg.source.ID, msg.source.ChunkCount)
		return m, m.loadSources()

	case answerDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.content = renderAnswer(msg.question, msg.answer, msg.results)
		m.viewport.SetContent(m.content)
		m.viewport.GotoTop()
		if len(msg.results) > 0 {
			m.status = fmt.Sprintf("Answered from %d excerpt(s).", len(msg.results))
		} else {
			m.status = "Done."
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	m.input.SetValue("")

	switch {
	case strings.HasPrefix(line, "/ingest "):
		target := strings.TrimSpace(strings.TrimPrefix(line, "/ingest"))
		m.busy = true
		m.status = "Ingesting " + target + " ..."
		return m, tea.Batch(m.spinner.Tick, m.ingest(target))

	case line == "/summarize":
		if len(m.sources) == 0 {
			m.status = "No source selected."
			return m, nil
		}
		id := m.sources[m.cursor].ID
		m.busy = true
		m.status = "Summarizing " + id + " ..."
		return m, tea.Batch(m.spinner.Tick, m.summarize(id))

	case line == "/delete":
		if len(m.sources) == 0 {
			m.status = "No source selected."
			return m, nil
		}
		id := m.sources[m.cursor].ID
		return m, m.deleteSource(id)

	case strings.HasPrefix(line, "/"):
		m.status = "Unknown command: " + line
		return m, nil

	default:
		if len(m.sources) == 0 {
			m.status = "Ingest a source first: /ingest <path|youtube-url>"
			return m, nil
		}
		sourceID := m.sources[m.cursor].ID
		m.busy = true
		m.status = "Thinking ..."
		return m, tea.Batch(m.spinner.Tick, m.ask(sourceID, line))
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render("tubesage")
	bar := m.sourceBar()
	body := contentStyle.Render(m.viewport.View())
	input := m.input.View()
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + bar + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) sourceBar() string {
	if len(m.sources) == 0 {
		return dimStyle.Render("no sources")
	}
	parts := make([]string, len(m.sources))
	for i, src := range m.sources {
		label := src.ID
		if src.Title != "" {
			label = src.Title
		}
		label = truncate(label, 24)
		if i == m.cursor {
			parts[i] = selectedSourceStyle.Render(label)
		} else {
			parts[i] = sourceStyle.Render(label)
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) loadSources() tea.Cmd {
	return func() tea.Msg {
		sources, err := m.pipeline.Sources(context.Background())
		return sourcesMsg{sources: sources, err: err}
	}
}

func (m Model) ingest(target string) tea.Cmd {
	return func() tea.Msg {
		src, err := m.pipeline.Ingest(context.Background(), target)
		return ingestDoneMsg{source: src, err: err}
	}
}

func (m Model) ask(sourceID, question string) tea.Cmd {
	return func() tea.Msg {
		answer, results, err := m.pipeline.Answer(context.Background(), sourceID, question)
		return answerDoneMsg{question: question, answer: answer, results: results, err: err}
	}
}

func (m Model) summarize(sourceID string) tea.Cmd {
	return func() tea.Msg {
		summary, err := m.pipeline.Summarize(context.Background(), sourceID)
		return answerDoneMsg{question: "Summary of " + sourceID, answer: summary, err: err}
	}
}

func (m Model) deleteSource(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.pipeline.Delete(context.Background(), id); err != nil {
			return sourcesMsg{err: err}
		}
		sources, err := m.pipeline.Sources(context.Background())
		return sourcesMsg{sources: sources, err: err}
	}
}

func renderAnswer(question, answer string, results []rag.RetrievalResult) string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("Q: " + question))
	b.WriteString("\n\n")
	b.WriteString(answer)
	if len(results) > 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Supporting excerpts:"))
		for _, r := range results {
			b.WriteString(fmt.Sprintf("\n\n[%d] (score %.3f) %s", r.Rank, r.Score, r.Text))
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var (
	headerStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	contentStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	questionStyle       = lipgloss.NewStyle().Bold(true)
	spinnerStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sourceStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	selectedSourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Padding(0, 1)
)
