// Package watch implements `taskgraph next --watch`: a live view of the next
// task and the status breakdown that refreshes whenever the snapshot file
// changes.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/taskgraph/internal/task"
	"github.com/Iron-Ham/taskgraph/internal/tui/styles"
	"github.com/Iron-Ham/taskgraph/internal/util"
	"github.com/Iron-Ham/taskgraph/internal/workspace"
)

// ReloadFunc re-reads the graph and summarizes it. It runs off the UI
// goroutine.
type ReloadFunc func() (workspace.Summary, error)

type keyMap struct {
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh}, {k.Help, k.Quit}}
}

func defaultKeys() keyMap {
	return keyMap{
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more help")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// summaryMsg carries the result of a reload.
type summaryMsg struct {
	summary workspace.Summary
	err     error
	at      time.Time
}

// changedMsg is sent when the snapshot file changed on disk.
type changedMsg struct{}

// Model is the Bubbletea model for the watch view.
type Model struct {
	reload  ReloadFunc
	changes <-chan struct{}
	keys    keyMap
	help    help.Model
	now     func() time.Time

	summary  workspace.Summary
	loaded   bool
	err      error
	loadedAt time.Time
	reloads  int
	width    int
	quitting bool
}

// New creates a watch model. changes may be nil, in which case the view only
// reloads on request.
func New(reload ReloadFunc, changes <-chan struct{}) Model {
	return Model{
		reload:  reload,
		changes: changes,
		keys:    defaultKeys(),
		help:    help.New(),
		now:     time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), waitForChange(m.changes))
}

func (m Model) load() tea.Cmd {
	reload, now := m.reload, m.now
	return func() tea.Msg {
		sum, err := reload()
		return summaryMsg{summary: sum, err: err, at: now()}
	}
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case changedMsg:
		return m, tea.Batch(m.load(), waitForChange(m.changes))

	case summaryMsg:
		m.loadedAt = msg.at
		if msg.err != nil {
			// Keep showing the last good summary.
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.summary = msg.summary
		m.loaded = true
		m.reloads++
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	title := "taskgraph · next task"
	if m.width > 4 {
		b.WriteString(styles.Header.Width(m.width - 4).Render(title))
	} else {
		b.WriteString(styles.Header.Render(title))
	}
	b.WriteString("\n")

	if !m.loaded && m.err == nil {
		b.WriteString(styles.Muted.Render("Loading..."))
		b.WriteString("\n")
		return b.String()
	}

	if m.loaded {
		b.WriteString(renderNext(m.summary.Next, m.width))
		b.WriteString("\n")
		b.WriteString(renderCounts(m.summary))
		b.WriteString("\n")
	}

	status := fmt.Sprintf("revision %s · updated %s", shortRevision(m.summary.Revision), m.loadedAt.Format("15:04:05"))
	b.WriteString(styles.Muted.Render(status))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styles.ErrorMsg.Render("Reload failed: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpBar.Render(m.help.View(m.keys)))
	return b.String()
}

// renderNext draws the card for t. width is the terminal width, 0 if unknown.
func renderNext(t *task.Task, width int) string {
	if t == nil {
		return styles.ContentBox.Render(styles.Muted.Render("Nothing to work on: every remaining task is waiting on a dependency."))
	}

	var b strings.Builder
	title := fmt.Sprintf("%s  %s", t.ID, t.Name)
	if width > 8 {
		title = util.TruncateWidth(title, width-8)
	}
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.RenderStatus(t.Status))
	b.WriteString("  ")
	b.WriteString(styles.RenderPriority(t.Priority))
	if len(t.Tags) > 0 {
		b.WriteString("  ")
		b.WriteString(styles.Muted.Render("#" + strings.Join(t.Tags, " #")))
	}
	if t.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.Text.Render(t.Description))
	}
	if len(t.BlockedBy) > 0 {
		b.WriteString("\n\n")
		b.WriteString(styles.Muted.Render("unblocks: " + strings.Join(t.BlockedBy, ", ")))
	}
	return styles.ContentBox.Render(b.String())
}

func renderCounts(sum workspace.Summary) string {
	cells := make([]string, 0, len(task.Statuses())+1)
	for _, st := range task.Statuses() {
		cell := lipgloss.NewStyle().
			Foreground(styles.StatusColor(st)).
			Render(fmt.Sprintf("%s %s %d", styles.StatusIcon(st), st, sum.Counts[st]))
		cells = append(cells, styles.StatusBadge.Render(cell))
	}
	cells = append(cells, styles.Muted.Render(fmt.Sprintf("total %d", sum.Total)))
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func shortRevision(rev string) string {
	if rev == "" {
		return "none"
	}
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

// Run starts the watch view and blocks until the user quits or ctx ends.
func Run(ctx context.Context, reload ReloadFunc, changes <-chan struct{}) error {
	p := tea.NewProgram(New(reload, changes), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
