// Package tui provides an interactive terminal view of the owner's task list.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskledger/internal/output"
	"taskledger/internal/service"
	"taskledger/internal/taskerr"
	"taskledger/internal/tasklist"
)

// RequestTimeout bounds each service call made by the view.
const RequestTimeout = 10 * time.Second

var (
	primaryColor   = lipgloss.Color("#5FAFAF")
	secondaryColor = lipgloss.Color("#666666")
	successColor   = lipgloss.Color("#87AF87")
	errorColor     = lipgloss.Color("#AF5F5F")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(secondaryColor)
	successStyle  = lipgloss.NewStyle().Foreground(successColor)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor)
)

// Mode is the current input mode.
type Mode int

const (
	// ModeBrowse moves the cursor and acts on the selected task.
	ModeBrowse Mode = iota
	// ModeAdd edits the description of a new task.
	ModeAdd
)

// loadedMsg carries a fresh copy of the task list.
type loadedMsg struct {
	list tasklist.TaskList
	err  error
}

// appliedMsg reports the result of a mutation.
type appliedMsg struct {
	status string
	err    error
}

// Model is the bubbletea model for the task list view.
type Model struct {
	ctx context.Context
	svc service.Service

	list    tasklist.TaskList
	loaded  bool
	missing bool
	cursor  int
	mode    Mode
	input   textinput.Model

	status string
	err    error

	width int
}

// New creates a Model acting through svc.
func New(ctx context.Context, svc service.Service) Model {
	ti := textinput.New()
	ti.Placeholder = "Describe the task..."
	ti.CharLimit = tasklist.MaxDescriptionLen * 4
	ti.Width = 60

	return Model{ctx: ctx, svc: svc, input: ti}
}

// Run starts the view on the alternate screen and blocks until it exits.
func Run(ctx context.Context, svc service.Service) error {
	p := tea.NewProgram(New(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Tasks returns the tasks currently shown.
func (m Model) Tasks() []tasklist.Task { return m.list.Tasks }

// Cursor returns the index of the selected task.
func (m Model) Cursor() int { return m.cursor }

// Mode returns the current input mode.
func (m Model) Mode() Mode { return m.mode }

// Status returns the last status line.
func (m Model) Status() string { return m.status }

// Err returns the last failure, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) call(fn func(ctx context.Context) error, status string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, RequestTimeout)
		defer cancel()
		return appliedMsg{status: status, err: fn(ctx)}
	}
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, RequestTimeout)
		defer cancel()
		l, err := m.svc.TaskList(ctx)
		return loadedMsg{list: l, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case loadedMsg:
		m.loaded = true
		m.missing = false
		if msg.err != nil {
			if kind, ok := taskerr.KindOf(msg.err); ok && kind == taskerr.NotFound {
				m.missing = true
				m.list = tasklist.TaskList{}
			} else {
				m.err = msg.err
			}
			return m, nil
		}
		m.list = msg.list
		m.clampCursor()
		return m, nil

	case appliedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
		} else {
			m.err = nil
			m.status = msg.status
		}
		return m, m.load()

	case tea.KeyMsg:
		if m.mode == ModeAdd {
			return m.updateAdd(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.list.Tasks)-1 {
			m.cursor++
		}

	case "i":
		if m.missing {
			return m, m.call(m.svc.Initialize, "task list created")
		}

	case "a":
		m.mode = ModeAdd
		m.input.SetValue("")
		return m, m.input.Focus()

	case " ", "space", "enter", "x":
		if t, ok := m.selected(); ok {
			id := t.ID
			return m, m.call(func(ctx context.Context) error {
				return m.svc.CompleteTask(ctx, id)
			}, fmt.Sprintf("completed #%d", id))
		}

	case "d":
		if t, ok := m.selected(); ok {
			id := t.ID
			return m, m.call(func(ctx context.Context) error {
				return m.svc.DeleteTask(ctx, id)
			}, fmt.Sprintf("removed #%d", id))
		}

	case "r":
		return m, m.load()
	}
	return m, nil
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeBrowse
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		desc := strings.TrimSpace(m.input.Value())
		m.mode = ModeBrowse
		m.input.Blur()
		if desc == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(m.ctx, RequestTimeout)
			defer cancel()
			id, err := m.svc.AddTask(ctx, desc)
			return appliedMsg{status: fmt.Sprintf("added #%d", id), err: err}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) selected() (tasklist.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.list.Tasks) {
		return tasklist.Task{}, false
	}
	return m.list.Tasks[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.list.Tasks) {
		m.cursor = len(m.list.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Tasks for %s", m.svc.Owner())))
	b.WriteString("\n")

	switch {
	case !m.loaded:
		b.WriteString(subtleStyle.Render("loading..."))
		b.WriteString("\n")
	case m.missing:
		b.WriteString("task list not initialized (press i to create it)\n")
	case len(m.list.Tasks) == 0:
		b.WriteString(subtleStyle.Render("no tasks found"))
		b.WriteString("\n")
	default:
		for i, t := range m.list.Tasks {
			b.WriteString(m.renderTask(i, t))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.mode == ModeAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(failureLine(m.err)))
	case m.status != "":
		b.WriteString(successStyle.Render(m.status))
	default:
		b.WriteString(subtleStyle.Render(fmt.Sprintf("%d/%d slots used", len(m.list.Tasks), tasklist.MaxTasks)))
	}
	b.WriteString("\n")

	if m.mode == ModeAdd {
		b.WriteString(subtleStyle.Render("enter save • esc cancel"))
	} else {
		b.WriteString(subtleStyle.Render("a add • space complete • d delete • r refresh • q quit"))
	}
	return b.String()
}

func (m Model) renderTask(i int, t tasklist.Task) string {
	mark := "[ ]"
	desc := output.Description(t.Description)
	if t.Completed {
		mark = "[x]"
		desc = doneStyle.Render(desc)
	}
	line := fmt.Sprintf("#%-4d %s %s", t.ID, mark, desc)
	if i == m.cursor {
		return selectedStyle.Render("> ") + line
	}
	return "  " + line
}

// failureLine renders err for the status line, naming the failure kind.
func failureLine(err error) string {
	if kind, ok := taskerr.KindOf(err); ok {
		return fmt.Sprintf("%s (%d): %v", kind, kind.Code(), err)
	}
	return fmt.Sprintf("backend error: %v", err)
}
