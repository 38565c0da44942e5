package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"

	"taskledger/internal/backend/googletasks"
	"taskledger/internal/config"
	"taskledger/internal/exitcode"
	"taskledger/internal/service"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
// It only touches the Google token; the owner keypair is never removed.
type LogoutCmd struct {
	revoke bool
	client *http.Client
}

// SetRevoke sets the revoke flag (for testing).
func (c *LogoutCmd) SetRevoke(revoke bool) {
	c.revoke = revoke
}

// SetHTTPClient replaces the client used for revocation (for testing).
func (c *LogoutCmd) SetHTTPClient(hc *http.Client) {
	c.client = hc
}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove the stored Google token" }
func (c *LogoutCmd) Usage() string     { return "taskledger logout [--revoke]" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.revoke, "revoke", false, "")
}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if !cfg.HasToken() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if c.revoke {
		hc := c.client
		if hc == nil {
			hc = http.DefaultClient
		}
		// A token that cannot be read or revoked is still removed locally.
		token, err := googletasks.LoadToken(cfg.TokenPath())
		if err == nil {
			err = googletasks.RevokeToken(ctx, hc, token)
		}
		if err != nil {
			fmt.Fprintf(errOut, "warning: %v\n", err)
		}
	}

	if err := cfg.RemoveToken(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
