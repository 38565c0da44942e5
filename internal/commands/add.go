package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskledger/internal/config"
	"taskledger/internal/exitcode"
	"taskledger/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct{}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Add a task" }
func (c *AddCmd) Usage() string     { return "taskledger add <description...>" }
func (c *AddCmd) NeedsAuth() bool   { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	// Join args to form description
	description := strings.Join(args, " ")
	if strings.TrimSpace(description) == "" {
		fmt.Fprintln(errOut, "error: description required")
		return exitcode.UserError
	}

	id, err := svc.AddTask(ctx, description)
	if err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "added #%d\n", id)
	}
	return exitcode.Success
}
