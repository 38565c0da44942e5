package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskledger/internal/address"
	"taskledger/internal/config"
	"taskledger/internal/exitcode"
	"taskledger/internal/identity"
	"taskledger/internal/service"
)

func init() {
	Register(&AddressCmd{})
}

// AddressCmd implements the address command.
// It derives addresses locally and never contacts the store.
type AddressCmd struct{}

func (c *AddressCmd) Name() string      { return "address" }
func (c *AddressCmd) Aliases() []string { return nil }
func (c *AddressCmd) Synopsis() string  { return "Show the task list address of an owner" }
func (c *AddressCmd) Usage() string     { return "taskledger address [owner]" }
func (c *AddressCmd) NeedsAuth() bool   { return false }

func (c *AddressCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddressCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	var owner identity.ID
	switch len(args) {
	case 0:
		kp, err := identity.LoadKeypair(cfg.KeypairPath())
		if err != nil {
			fmt.Fprintf(errOut, "error: no usable keypair (run: taskledger keygen): %v\n", err)
			return exitcode.AuthError
		}
		owner = kp.ID()
	case 1:
		var err error
		owner, err = identity.Parse(args[0])
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	default:
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}

	addr, bump := address.NewDeriver(cfg.ProgramID()).Derive(owner)
	if cfg.Quiet {
		fmt.Fprintln(out, addr)
		return exitcode.Success
	}
	fmt.Fprintf(out, "owner:   %s\n", owner)
	fmt.Fprintf(out, "address: %s\n", addr)
	fmt.Fprintf(out, "bump:    %d\n", bump)
	return exitcode.Success
}
