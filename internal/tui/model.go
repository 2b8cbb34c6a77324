package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
	"github.com/comitanigiacomo/syllabus-pulse/internal/ui"
)

type Tracker interface {
	Dashboard(ctx context.Context, now time.Time) (services.Dashboard, error)
	Schedule(ctx context.Context, date time.Time) (services.ScheduleView, error)
	ToggleDailyTask(ctx context.Context, date, taskID string) (bool, error)
}

type Syncer interface {
	Push(ctx context.Context) error
}

const refreshEvery = time.Minute

var now = time.Now

type keyMap struct {
	up      key.Binding
	down    key.Binding
	toggle  key.Binding
	sync    key.Binding
	refresh key.Binding
	quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.up, k.down, k.toggle, k.sync, k.refresh, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	toggle:  key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
	sync:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "push")),
	refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type boardModel struct {
	ctx     context.Context
	tracker Tracker
	syncer  Syncer

	help help.Model
	spin spinner.Model

	dash     services.Dashboard
	schedule services.ScheduleView
	selected int

	loaded  bool
	busy    bool
	lastLog string
}

type loadedMsg struct {
	dash     services.Dashboard
	schedule services.ScheduleView
	err      error
}

type toggledMsg struct {
	id   string
	done bool
	err  error
}

type pushedMsg struct{ err error }

type refreshMsg struct{}

type tickMsg time.Time

func newBoardModel(ctx context.Context, tracker Tracker, syncer Syncer) boardModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return boardModel{
		ctx:     ctx,
		tracker: tracker,
		syncer:  syncer,
		help:    help.New(),
		spin:    sp,
		busy:    true,
		lastLog: "Loading…",
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m boardModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spin.Tick, tick())
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		t := now()
		d, err := m.tracker.Dashboard(m.ctx, t)
		if err != nil {
			return loadedMsg{err: err}
		}
		s, err := m.tracker.Schedule(m.ctx, t)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{dash: d, schedule: s}
	}
}

func (m boardModel) toggleCmd(task services.TaskView) tea.Cmd {
	return func() tea.Msg {
		done, err := m.tracker.ToggleDailyTask(m.ctx, task.Date, task.ID)
		return toggledMsg{id: task.ID, done: done, err: err}
	}
}

func (m boardModel) pushCmd() tea.Cmd {
	return func() tea.Msg {
		return pushedMsg{err: m.syncer.Push(m.ctx)}
	}
}

// tasks lists the rows the cursor can land on.
func (m boardModel) tasks() []services.TaskView {
	var out []services.TaskView
	for _, group := range [][]services.TaskView{m.schedule.Morning, m.schedule.SelfStudy} {
		for _, t := range group {
			if t.Toggleable() {
				out = append(out, t)
			}
		}
	}
	return out
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tickMsg:
		return m, tea.Batch(m.loadCmd(), tick())
	case refreshMsg:
		return m, m.loadCmd()
	case loadedMsg:
		m.busy = false
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.loaded = true
		m.dash = msg.dash
		m.schedule = msg.schedule
		if n := len(m.tasks()); m.selected >= n {
			m.selected = max(0, n-1)
		}
		m.lastLog = "Refreshed at " + now().Format("15:04:05") + "."
		return m, nil
	case toggledMsg:
		if msg.err != nil {
			m.lastLog = "Toggle failed: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = fmt.Sprintf("%s %s", ui.Check(msg.done), msg.id)
		return m, m.loadCmd()
	case pushedMsg:
		m.busy = false
		if msg.err != nil {
			m.lastLog = "Push failed: " + msg.err.Error()
		} else {
			m.lastLog = "Pushed."
		}
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.quit):
			return m, tea.Quit
		case key.Matches(msg, keys.refresh):
			m.busy = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd()
		case key.Matches(msg, keys.up):
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case key.Matches(msg, keys.down):
			if m.selected < len(m.tasks())-1 {
				m.selected++
			}
			return m, nil
		case key.Matches(msg, keys.toggle):
			tasks := m.tasks()
			if m.selected < 0 || m.selected >= len(tasks) {
				return m, nil
			}
			return m, m.toggleCmd(tasks[m.selected])
		case key.Matches(msg, keys.sync):
			if m.syncer == nil || !m.dash.Sync.Ready {
				m.lastLog = "Sync is not configured."
				return m, nil
			}
			m.busy = true
			m.lastLog = "Pushing…"
			return m, m.pushCmd()
		}
	}
	return m, nil
}

func (m boardModel) View() string {
	var b strings.Builder
	b.WriteString(ui.Heading(ui.IconBook, "Syllabus Pulse"))
	if m.busy {
		b.WriteString(" " + m.spin.View())
	}
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString(ui.Muted.Render(m.lastLog) + "\n")
		return b.String()
	}

	b.WriteString(m.heroView() + "\n")
	b.WriteString(m.progressView() + "\n")
	if m.dash.ShowTasks {
		b.WriteString(m.tasksView())
	}
	b.WriteString("\n" + ui.LabelValue("Sync", ui.SyncText(m.dash.Sync)) + "\n")
	b.WriteString(ui.Muted.Render(m.lastLog) + "\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m boardModel) heroView() string {
	h := m.dash.Hero
	var lines []string
	if h.Previous != nil {
		lines = append(lines, ui.Muted.Render("prev  "+h.Previous.Name+" "+ui.Check(h.Previous.Done)))
	}
	current := h.Current.Name
	if !h.FreeTime {
		current += "  " + ui.Muted.Render(h.Current.Time)
	}
	lines = append(lines, ui.Title.Render(ui.IconClock+" "+current))
	if h.Next != nil {
		lines = append(lines, ui.Muted.Render("next  "+h.Next.Name+" ("+h.Next.Time+")"))
	}
	lines = append(lines, ui.LabelValue("Rotation", m.dash.RotationSubject))
	return ui.Panel.Render(strings.Join(lines, "\n"))
}

func (m boardModel) progressView() string {
	tp, sp := m.dash.TimeProgress, m.dash.SyllabusProgress
	return fmt.Sprintf("%s %s %3d%%\n%s %s %3d%% %s",
		ui.Key.Render("Time    "), ui.Bar(tp.Percentage, 30), tp.Percentage,
		ui.Key.Render("Syllabus"), ui.Bar(sp.Percentage, 30), sp.Percentage,
		ui.Muted.Render(fmt.Sprintf("%d/%d", sp.Completed, sp.Total)))
}

func (m boardModel) tasksView() string {
	var b strings.Builder
	b.WriteString("\n" + ui.H2.Render(m.schedule.Date) + "\n")
	row := 0
	for _, t := range append(append([]services.TaskView{}, m.schedule.Morning...), m.schedule.SelfStudy...) {
		if !t.Toggleable() {
			b.WriteString(ui.Muted.Render(fmt.Sprintf("     %-12s %s", t.Time, t.Name)) + "\n")
			continue
		}
		line := fmt.Sprintf("  %s %-12s %s", ui.Check(t.Done), t.Time, t.Name)
		if row == m.selected {
			line = ui.SelectedRow.Render(line)
		}
		b.WriteString(line + "\n")
		row++
	}
	return b.String()
}
