package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskledger/internal/config"
	"taskledger/internal/exitcode"
	"taskledger/internal/service"
	"taskledger/internal/tui"
)

func init() {
	Register(&TuiCmd{})
}

// TuiCmd implements the interactive task view.
type TuiCmd struct {
	run func(ctx context.Context, svc service.Service) error
}

// SetRunner replaces the view runner (for testing).
func (c *TuiCmd) SetRunner(run func(ctx context.Context, svc service.Service) error) {
	c.run = run
}

func (c *TuiCmd) Name() string      { return "tui" }
func (c *TuiCmd) Aliases() []string { return []string{"ui"} }
func (c *TuiCmd) Synopsis() string  { return "Browse and edit tasks interactively" }
func (c *TuiCmd) Usage() string     { return "taskledger tui [common flags]" }
func (c *TuiCmd) NeedsAuth() bool   { return true }

func (c *TuiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TuiCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	run := c.run
	if run == nil {
		run = tui.Run
	}
	if err := run(ctx, svc); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
