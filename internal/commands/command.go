// Package commands implements the taskledger subcommands.
package commands

import (
	"context"
	"flag"
	"io"

	"taskledger/internal/config"
	"taskledger/internal/service"
)

// Command is one subcommand. Commands register themselves from init and
// are looked up by the dispatcher through a Registry.
type Command interface {
	// Name is the primary command name.
	Name() string

	// Aliases are alternative names, e.g. "ls" for list.
	Aliases() []string

	// Synopsis is the one-line description shown by help.
	Synopsis() string

	// Usage is the usage line shown by help <command>.
	Usage() string

	// NeedsAuth reports whether the command acts as the owner. Only those
	// commands receive a Service, which signs with the owner keypair.
	NeedsAuth() bool

	// RegisterFlags adds command-specific flags to fs.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command with positional args and returns the exit
	// code. svc is nil unless NeedsAuth returns true.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}
