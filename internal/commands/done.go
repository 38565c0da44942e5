package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskledger/internal/config"
	"taskledger/internal/exitcode"
	"taskledger/internal/service"
	"taskledger/internal/taskerr"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "taskledger done <id>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runMutation(cfg, args, out, errOut, func(id uint64) error {
		return svc.CompleteTask(ctx, id)
	})
}

// runMutation is the shared implementation for done and rm.
func runMutation(cfg *config.Config, args []string, out, errOut io.Writer, mutate func(id uint64) error) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := mutate(id); err != nil {
		switch {
		case errors.Is(err, taskerr.ErrTaskNotFound):
			fmt.Fprintf(errOut, "error: task not found: #%d\n", id)
			return exitcode.UserError
		case errors.Is(err, taskerr.ErrTaskAlreadyCompleted):
			fmt.Fprintf(errOut, "error: task already completed: #%d\n", id)
			return exitcode.UserError
		}
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
