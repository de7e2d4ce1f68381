// Package ui renders link progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"asglink/internal/driver"
)

// maxRows bounds the file list; a dependency closure can reach hundreds of
// graphs, so older rows scroll away behind a summary line.
const maxRows = 12

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	stage   driver.Stage // of the whole link, from File == "" events
	width   int
	done    bool
	failed  bool
}

type fileItem struct {
	path    string
	stage   driver.Stage
	status  driver.Status
	elapsed time.Duration
}

// finished files count as whole in the progress bar.
func (f fileItem) finished() bool {
	switch f.status {
	case driver.StatusDone, driver.StatusError, driver.StatusSkipped:
		return true
	}
	return false
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders link progress.
// Extra dependencies are appended as the driver queues them.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int, len(files)),
		width:   80,
	}
	for _, file := range files {
		m.add(file)
	}
	return m
}

func (m *progressModel) add(file string) int {
	if idx, ok := m.index[file]; ok {
		return idx
	}
	m.items = append(m.items, fileItem{path: file, stage: driver.StageLoad, status: driver.StatusQueued})
	m.index[file] = len(m.items) - 1
	return len(m.items) - 1
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.Event(msg))
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

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	if ev.File == "" {
		m.stage = ev.Stage
		if ev.Status == driver.StatusError {
			m.failed = true
		}
		return nil
	}
	it := &m.items[m.add(ev.File)]
	it.stage, it.status = ev.Stage, ev.Status
	if ev.Elapsed > 0 {
		it.elapsed = ev.Elapsed
	}
	return m.prog.SetPercent(m.percent())
}

// percent counts finished files as whole and running ones by stage.
func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, it := range m.items {
		if it.finished() {
			total++
			continue
		}
		if it.status == driver.StatusWorking {
			total += stageWeight[it.stage]
		}
	}
	return total / float64(len(m.items))
}

var stageWeight = map[driver.Stage]float64{
	driver.StageLoad:  0.2,
	driver.StageIndex: 0.4,
	driver.StageMerge: 0.6,
}

// counts returns linked and skipped files.
func (m *progressModel) counts() (linked, skipped int) {
	for _, it := range m.items {
		switch it.status {
		case driver.StatusDone:
			linked++
		case driver.StatusSkipped:
			skipped++
		}
	}
	return linked, skipped
}

func (m *progressModel) View() string {
	header := m.title
	if m.stage == driver.StageFinalize && !m.done {
		header += " (writing)"
	}
	switch {
	case m.done && m.failed:
		header = "failed: " + header
	case m.done:
		header = "done: " + header
	default:
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Render(header))
	linked, skipped := m.counts()
	fmt.Fprintf(&b, "\n%d/%d linked", linked, len(m.items))
	if skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", skipped)
	}
	b.WriteString("\n\n")

	rows := m.items
	if hidden := len(rows) - maxRows; hidden > 0 {
		fmt.Fprintf(&b, "  %12s %d earlier files\n", "…", hidden)
		rows = rows[hidden:]
	}
	nameWidth := max(m.width-26, 20)
	for _, it := range rows {
		label := statusLabel(it)
		line := fmt.Sprintf("  %s %s", statusStyle(label).Render(fmt.Sprintf("%12s", label)), truncate(it.path, nameWidth))
		if it.finished() && it.elapsed > 0 {
			line += "  " + it.elapsed.Round(time.Millisecond).String()
		}
		b.WriteString(line + "\n")
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

var workingLabels = map[driver.Stage]string{
	driver.StageLoad:     "loading",
	driver.StageIndex:    "indexing",
	driver.StageMerge:    "merging",
	driver.StageFinalize: "writing",
}

func statusLabel(it fileItem) string {
	if it.status == driver.StatusWorking {
		return workingLabels[it.stage]
	}
	return string(it.status)
}

func statusStyle(label string) lipgloss.Style {
	color := "7"
	switch label {
	case "done":
		color = "2"
	case "error":
		color = "1"
	case "skipped":
		color = "3"
	case "loading", "indexing", "merging", "writing":
		color = "6"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
