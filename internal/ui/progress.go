package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"crossgen/internal/driver"
)

type progressModel struct {
	title   string
	events  <-chan driver.ProgressEvent
	spinner spinner.Model
	prog    progress.Model
	passes  []passItem
	index   map[string]int
	width   int
	done    bool
}

type passItem struct {
	name    string
	status  string
	done    int
	total   int
	aborted int
}

type eventMsg driver.ProgressEvent
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders per-pass unit
// progress until events is closed.
func NewProgressModel(title string, passes []string, events <-chan driver.ProgressEvent) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]passItem, 0, len(passes))
	index := make(map[string]int, len(passes))
	for i, name := range passes {
		items = append(items, passItem{name: name, status: "queued"})
		index[name] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		passes:  items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.ProgressEvent(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.passes) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := 0
	for _, item := range m.passes {
		nameWidth = max(nameWidth, runewidth.StringWidth(item.name))
	}
	for _, item := range m.passes {
		status := styleStatus(item.status).Render(fmt.Sprintf("%8s", item.status))
		line := fmt.Sprintf("  %s %s %s", status, runewidth.FillRight(item.name, nameWidth), countLabel(item))
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.ProgressEvent) tea.Cmd {
	idx, ok := m.index[ev.Pass]
	if !ok {
		return nil
	}
	item := &m.passes[idx]
	item.done, item.total, item.aborted = ev.Done, ev.Total, ev.Aborted
	switch {
	case ev.Status == driver.ProgressFinished && ev.Aborted > 0:
		item.status = "aborted"
	case ev.Status == driver.ProgressFinished:
		item.status = "done"
	default:
		item.status = "running"
	}
	return m.prog.SetPercent(m.percent())
}

// percent weighs every pass equally; a finished pass counts as complete
// even when it had no units.
func (m *progressModel) percent() float64 {
	if len(m.passes) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.passes {
		switch {
		case item.status == "done" || item.status == "aborted":
			total += 1.0
		case item.total > 0:
			total += float64(item.done) / float64(item.total)
		}
	}
	return total / float64(len(m.passes))
}

func countLabel(item passItem) string {
	if item.status == "queued" {
		return ""
	}
	label := fmt.Sprintf("%d/%d", item.done, item.total)
	if item.aborted > 0 {
		label += fmt.Sprintf(" (%d aborted)", item.aborted)
	}
	return label
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "aborted":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "running":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}
