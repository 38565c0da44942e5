// Package main is the entry point for the taskledger CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"taskledger/internal/address"
	"taskledger/internal/backend/ledgerclient"
	"taskledger/internal/cli"
	"taskledger/internal/commands"
	"taskledger/internal/config"
	"taskledger/internal/identity"
	"taskledger/internal/ledger"
	"taskledger/internal/logging"
	"taskledger/internal/program"
	"taskledger/internal/service"
	"taskledger/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newService)
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// localService is the ledger client plus the resources it runs on.
type localService struct {
	*ledgerclient.Client
	closers []io.Closer
}

// Close releases resources in reverse order of acquisition.
func (s *localService) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newService wires the owner keypair to a local ledger over the configured store.
func newService(ctx context.Context, cfg *config.Config) (service.Service, error) {
	kp, err := identity.LoadKeypair(cfg.KeypairPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no keypair (run: taskledger keygen)", cli.ErrAuth)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cli.ErrAuth, err)
	}

	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	opts := logging.Options{
		Level: cfg.Settings.Log.Level,
		Debug: cfg.Debug,
		File:  cfg.LogFilePath(),
	}
	if cfg.Debug {
		opts.Terminal = os.Stderr
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, err
	}
	s := &localService{closers: []io.Closer{logger}}

	backend, err := openBackend(ctx, cfg, s)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, backend)

	logger.Debug("backend opened",
		"store", cfg.Settings.Store.Backend,
		"program", cfg.ProgramID().String(),
		"owner", kp.ID().String())

	p := program.New(address.NewDeriver(cfg.ProgramID()))
	l := ledger.New(p, backend, ledger.WithLogger(logger.Logger))
	s.Client = ledgerclient.New(l, kp)
	return s, nil
}

// openBackend opens the configured store. Extra resources are registered on s.
func openBackend(ctx context.Context, cfg *config.Config, s *localService) (store.Backend, error) {
	switch cfg.Settings.Store.Backend {
	case config.StoreMemory:
		return store.NewMemory(), nil

	case config.StoreNATS:
		nc, err := nats.Connect(cfg.Settings.Store.NATSURL, nats.Name(config.AppName))
		if err != nil {
			return nil, fmt.Errorf("connect to nats: %w", err)
		}
		s.closers = append(s.closers, closerFunc(func() error {
			nc.Close()
			return nil
		}))
		kvCfg := store.DefaultNATSConfig()
		kvCfg.Conn = nc
		kvCfg.Bucket = cfg.Settings.Store.Bucket
		return store.NewNATS(ctx, kvCfg)

	default:
		return store.OpenBolt(cfg.StorePath())
	}
}
