package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskledger/internal/config"
	"taskledger/internal/exitcode"
	"taskledger/internal/output"
	"taskledger/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskledger` (no args) and `taskledger list`.
type ListCmd struct {
	open bool
}

// SetOpen restricts the listing to open tasks (for testing).
func (c *ListCmd) SetOpen(open bool) {
	c.open = open
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "taskledger list [--open]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.open, "open", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	l, err := svc.TaskList(ctx)
	if err != nil {
		return report(errOut, err)
	}

	tasks := l.Tasks
	if c.open {
		tasks = l.Open()
	}

	if len(tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	f := output.New(out)
	f.Tasks(tasks)
	if !cfg.Quiet {
		f.Summary(l)
	}
	return exitcode.Success
}
