// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskledger/internal/tasklist"
)

// Formatter writes task output to w, styling it when w is a terminal.
type Formatter struct {
	w    io.Writer
	done lipgloss.Style
	id   lipgloss.Style
}

// New creates a Formatter. Styles are dropped when w is not a terminal.
func New(w io.Writer) *Formatter {
	r := lipgloss.NewRenderer(w)
	return &Formatter{
		w:    w,
		done: r.NewStyle().Faint(true).Strikethrough(true),
		id:   r.NewStyle().Bold(true),
	}
}

// Task formats one task line.
// Format: "#{ID:<4} [x] {DESCRIPTION}\n" ("[ ]" when open).
func (f *Formatter) Task(t tasklist.Task) {
	mark := " "
	desc := Description(t.Description)
	if t.Completed {
		mark = "x"
		desc = f.done.Render(desc)
	}
	fmt.Fprintf(f.w, "%s [%s] %s\n", f.id.Render(fmt.Sprintf("#%-4d", t.ID)), mark, desc)
}

// Tasks formats tasks in list order.
func (f *Formatter) Tasks(tasks []tasklist.Task) {
	for _, t := range tasks {
		f.Task(t)
	}
}

// Summary formats the counts line printed after a listing.
func (f *Formatter) Summary(l tasklist.TaskList) {
	open := len(l.Open())
	fmt.Fprintf(f.w, "%d open, %d done, %d/%d slots used\n",
		open, len(l.Tasks)-open, len(l.Tasks), tasklist.MaxTasks)
}

// Description normalizes a task description for display.
// - Empty or whitespace-only descriptions become "(untitled)"
// - Newlines are replaced with spaces
func Description(d string) string {
	d = strings.ReplaceAll(d, "\r", " ")
	d = strings.ReplaceAll(d, "\n", " ")

	if strings.TrimSpace(d) == "" {
		return "(untitled)"
	}
	return d
}
