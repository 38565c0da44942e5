package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskledger/internal/config"
	"taskledger/internal/exitcode"
	"taskledger/internal/identity"
	"taskledger/internal/service"
)

func init() {
	Register(&KeygenCmd{})
}

// KeygenCmd implements the keygen command.
type KeygenCmd struct {
	force bool
}

// SetForce sets the force flag (for testing).
func (c *KeygenCmd) SetForce(force bool) {
	c.force = force
}

func (c *KeygenCmd) Name() string      { return "keygen" }
func (c *KeygenCmd) Aliases() []string { return nil }
func (c *KeygenCmd) Synopsis() string  { return "Generate the owner keypair" }
func (c *KeygenCmd) Usage() string     { return "taskledger keygen [--force]" }
func (c *KeygenCmd) NeedsAuth() bool   { return false }

func (c *KeygenCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
	fs.BoolVar(&c.force, "f", false, "")
}

func (c *KeygenCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	path := cfg.KeypairPath()
	if cfg.HasKeypair() && !c.force {
		fmt.Fprintf(errOut, "error: keypair already exists: %s (use --force to replace it)\n", path)
		return exitcode.UserError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.UserError
	}

	kp, err := identity.Generate()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err := identity.SaveKeypair(path, kp); err != nil {
		fmt.Fprintf(errOut, "error: failed to save keypair: %v\n", err)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, kp.ID())
	}
	return exitcode.Success
}
