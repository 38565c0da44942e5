package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskledger/internal/backend/googletasks"
	"taskledger/internal/config"
	"taskledger/internal/exitcode"
	"taskledger/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
// The Google token is only used by export; task list requests are
// authorized by the owner keypair.
type LoginCmd struct{}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Authorize export to Google Tasks" }
func (c *LoginCmd) Usage() string     { return "taskledger login [common flags]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if !cfg.HasOAuthClient() {
		fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n\n", cfg.Dir)
		fmt.Fprint(errOut, oauthSetupText)
		fmt.Fprintf(errOut, "   %s/oauth_client.json\n\n", cfg.Dir)
		fmt.Fprintln(errOut, "Then run 'taskledger login' again.")
		return exitcode.AuthError
	}

	oauthConfig, err := googletasks.LoadOAuthConfig(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	// A stored token that still refreshes is kept.
	if cfg.HasToken() {
		if token, err := googletasks.LoadToken(cfg.TokenPath()); err == nil && googletasks.TokenUsable(ctx, oauthConfig, token) {
			if !cfg.Quiet {
				fmt.Fprintln(out, "already logged in")
			}
			return exitcode.Success
		}
	}

	a := &googletasks.Authorizer{
		Config: oauthConfig,
		OnURL: func(url string) {
			fmt.Fprintln(errOut, "Open this URL in your browser:")
			fmt.Fprintln(errOut, url)
		},
	}
	token, err := a.Authorize(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := googletasks.SaveToken(cfg.TokenPath(), token); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

const oauthSetupText = `To export to Google Tasks, you need OAuth credentials:

1. Go to https://console.cloud.google.com/apis/credentials
2. Create a project (or select an existing one)
3. Enable the Google Tasks API:
   https://console.cloud.google.com/apis/library/tasks.googleapis.com
4. Create OAuth 2.0 credentials:
   - Click 'Create Credentials' > 'OAuth client ID'
   - Choose 'Desktop app' as application type
   - Download the JSON file
5. Save it as:
`
