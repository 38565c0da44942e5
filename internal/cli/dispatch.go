// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskledger/internal/commands"
	"taskledger/internal/config"
	"taskledger/internal/exitcode"
	"taskledger/internal/service"
)

// ErrAuth marks factory errors caused by a missing or unusable keypair.
var ErrAuth = errors.New("auth error")

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch. If the returned service
// implements io.Closer it is closed after the command runs.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> list
	name := "list"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	// Flags require a command
	if strings.HasPrefix(name, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(name)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet, debug bool
	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&quiet, "q", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// A leading dash that survived parsing is a flag after "--" or a lone "-"
	positional := fs.Args()
	if len(positional) > 0 && len(positional[0]) > 1 && strings.HasPrefix(positional[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positional[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	var svc service.Service
	if cmd.NeedsAuth() {
		if d.factory == nil {
			// Pre-flight checks only
			if !cfg.HasKeypair() {
				fmt.Fprintln(errOut, "error: no keypair (run: taskledger keygen)")
				return exitcode.AuthError
			}
			fmt.Fprintln(errOut, "error: backend error: no backend configured")
			return exitcode.BackendError
		}

		svc, err = d.factory(ctx, cfg)
		if err != nil {
			if errors.Is(err, ErrAuth) {
				fmt.Fprintf(errOut, "error: %s\n", err)
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
		if c, ok := svc.(io.Closer); ok {
			defer func() {
				if err := c.Close(); err != nil {
					fmt.Fprintf(errOut, "error: closing backend: %v\n", err)
				}
			}()
		}
	}

	return cmd.Run(ctx, cfg, svc, positional, out, errOut)
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "flag needs an argument: "):
		return msg
	case strings.HasPrefix(msg, "flag provided but not defined: "):
		return "unknown flag: " + strings.TrimPrefix(msg, "flag provided but not defined: ")
	}
	return msg
}
