package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"filelens/internal/cleanup"
)

// Model renders a live cleanup batch from its event stream.
type Model struct {
	events     <-chan cleanup.Progress
	started    time.Time
	width      int
	total      int
	processed  int
	successes  int
	failures   []cleanup.Failure
	removed    int
	bytesSaved int64
	current    string
	finished   bool
	quitting   bool
}

type doneMsg struct{}

type progressMsg struct {
	event cleanup.Progress
}

func NewModel(events <-chan cleanup.Progress) Model {
	return Model{events: events, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForEvents(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m = m.apply(msg.event)
		return m, listenForEvents(m.events)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) apply(event cleanup.Progress) Model {
	switch ev := event.(type) {
	case cleanup.Started:
		m.total = ev.Total
	case cleanup.Processing:
		m.total = ev.Total
		m.current = ev.Path
	case cleanup.Success:
		m.processed++
		m.successes++
		m.removed += ev.Removed
		m.bytesSaved += ev.BytesSaved
	case cleanup.Failure:
		m.processed++
		m.failures = append(m.failures, ev)
	case cleanup.Finished:
		m.finished = true
		m.current = ""
	}
	return m
}

// Failures returns the failures seen so far.
func (m Model) Failures() []cleanup.Failure {
	return m.failures
}

// Totals returns the metadata blocks removed and bytes saved so far.
func (m Model) Totals() (int, int64) {
	return m.removed, m.bytesSaved
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.processed) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	bar := renderBar(barWidth, ratio)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	current := "waiting"
	if m.finished {
		current = "done"
	} else if m.current != "" {
		current = filepath.Base(m.current)
	}

	lines := []string{
		titleStyle.Render("filelens cleanup"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.processed, m.total)) + dimStyle.Render(fmt.Sprintf("  failures:%d", len(m.failures))),
		labelStyle.Render(fmt.Sprintf("Metadata blocks removed: %d", m.removed)),
		labelStyle.Render(fmt.Sprintf("Bytes saved: %d", m.bytesSaved)),
		dimStyle.Render(fmt.Sprintf("Current: %s", current)),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(bar),
	}

	return strings.Join(lines, "\n")
}

func listenForEvents(events <-chan cleanup.Progress) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return progressMsg{event: event}
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
)
