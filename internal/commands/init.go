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
	Register(&InitCmd{})
}

// InitCmd implements the init command.
type InitCmd struct{}

func (c *InitCmd) Name() string      { return "init" }
func (c *InitCmd) Aliases() []string { return nil }
func (c *InitCmd) Synopsis() string  { return "Create your task list" }
func (c *InitCmd) Usage() string     { return "taskledger init" }
func (c *InitCmd) NeedsAuth() bool   { return true }

func (c *InitCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *InitCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	if err := svc.Initialize(ctx); err != nil {
		if errors.Is(err, taskerr.ErrAlreadyExists) {
			fmt.Fprintf(errOut, "error: task list already exists at %s\n", svc.Address())
			return exitcode.UserError
		}
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
