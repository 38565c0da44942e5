package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskledger/internal/backend/googletasks"
	"taskledger/internal/config"
	"taskledger/internal/exitcode"
	"taskledger/internal/service"
	"taskledger/internal/tasklist"
)

func init() {
	Register(&ExportCmd{})
}

// Mirror is the export target. *googletasks.Client implements it.
type Mirror interface {
	Sync(ctx context.Context, title string, l tasklist.TaskList) (googletasks.Report, error)
}

// MirrorFactory creates the export target from config.
type MirrorFactory func(ctx context.Context, cfg *config.Config) (Mirror, error)

func defaultMirror(ctx context.Context, cfg *config.Config) (Mirror, error) {
	return googletasks.New(ctx, cfg)
}

// ExportCmd implements the export command.
type ExportCmd struct {
	listName string
	factory  MirrorFactory
}

// SetListName sets the list name (for testing).
func (c *ExportCmd) SetListName(name string) {
	c.listName = name
}

// SetMirrorFactory replaces the Google Tasks client (for testing).
func (c *ExportCmd) SetMirrorFactory(f MirrorFactory) {
	c.factory = f
}

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return nil }
func (c *ExportCmd) Synopsis() string  { return "Mirror tasks into Google Tasks" }
func (c *ExportCmd) Usage() string     { return "taskledger export [--list <title>]" }
func (c *ExportCmd) NeedsAuth() bool   { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *ExportCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	title := strings.TrimSpace(c.listName)
	if title == "" {
		title = cfg.Settings.Export.List
	}
	if title == "" {
		fmt.Fprintln(errOut, "error: list name required")
		return exitcode.UserError
	}

	factory := c.factory
	if factory == nil {
		if !cfg.HasOAuthClient() {
			fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n", cfg.Dir)
			return exitcode.AuthError
		}
		if !cfg.HasToken() {
			fmt.Fprintln(errOut, "error: not logged in (run: taskledger login)")
			return exitcode.AuthError
		}
		factory = defaultMirror
	}

	l, err := svc.TaskList(ctx)
	if err != nil {
		return report(errOut, err)
	}

	mirror, err := factory(ctx, cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}

	r, err := mirror.Sync(ctx, title, l)
	if err != nil {
		if errors.Is(err, googletasks.ErrAuth) {
			fmt.Fprintf(errOut, "error: auth error: %v\n", err)
			return exitcode.AuthError
		}
		if errors.Is(err, googletasks.ErrAmbiguousList) {
			fmt.Fprintf(errOut, "error: ambiguous list name: %s\n", title)
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		if r.Created {
			fmt.Fprintf(out, "created list %s\n", title)
		}
		fmt.Fprintf(out, "ok (%d inserted, %d updated, %d deleted)\n", r.Inserted, r.Patched, r.Deleted)
	}
	return exitcode.Success
}
