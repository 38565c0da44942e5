package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"taskledger/internal/address"
)

// NATSConfig configures a JetStream KV backend.
type NATSConfig struct {
	// Conn is the NATS connection to use.
	Conn *nats.Conn

	// Bucket is the KV bucket name.
	Bucket string

	// MaxRetries bounds how often an Update is re-run after losing a
	// revision race. Default: 16.
	MaxRetries int
}

// DefaultNATSConfig returns configuration with defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Bucket:     "taskledger",
		MaxRetries: 16,
	}
}

// NATS is a Backend on a JetStream KV bucket, shared between processes.
//
// Updates are optimistic: the callback runs against the revision it read and
// the write is a compare-and-set on that revision. A lost race re-runs the
// whole callback against the new state, so concurrent writers to one address
// are serialized without a lock.
type NATS struct {
	kv  jetstream.KeyValue
	cfg NATSConfig
}

// NewNATS opens (or creates) the KV bucket.
func NewNATS(ctx context.Context, cfg NATSConfig) (*NATS, error) {
	if cfg.Conn == nil {
		return nil, fmt.Errorf("nats connection required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultNATSConfig().Bucket
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultNATSConfig().MaxRetries
	}

	js, err := jetstream.New(cfg.Conn)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:       cfg.Bucket,
		History:      1,
		MaxValueSize: 64 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("create kv bucket: %w", err)
	}
	return &NATS{kv: kv, cfg: cfg}, nil
}

// ErrConflict is returned when an Update keeps losing revision races.
var ErrConflict = errors.New("concurrent update conflict")

func natsKey(addr address.Address) string {
	return addr.String()
}

// Update implements Backend.
func (n *NATS) Update(ctx context.Context, addr address.Address, fn func(Tx) error) error {
	key := natsKey(addr)
	for attempt := 0; attempt < n.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		snapshot, revision, err := n.load(ctx, key)
		if err != nil {
			return err
		}

		tx := newStaged(addr, snapshot)
		if err := fn(tx); err != nil {
			return err
		}
		if !tx.dirty {
			return nil
		}

		value := marshalAccount(*tx.account)
		if snapshot == nil {
			_, err = n.kv.Create(ctx, key, value)
		} else {
			_, err = n.kv.Update(ctx, key, value, revision)
		}
		if err == nil {
			return nil
		}
		if !isRevisionConflict(err) {
			return fmt.Errorf("kv write: %w", err)
		}
	}
	return fmt.Errorf("%w: %s", ErrConflict, addr)
}

func (n *NATS) load(ctx context.Context, key string) (*Account, uint64, error) {
	entry, err := n.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("kv get: %w", err)
	}
	a, err := unmarshalAccount(entry.Value())
	if err != nil {
		return nil, 0, fmt.Errorf("account %s: %w", key, err)
	}
	return &a, entry.Revision(), nil
}

func isRevisionConflict(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

// Get implements Backend.
func (n *NATS) Get(ctx context.Context, addr address.Address) (Account, error) {
	a, _, err := n.load(ctx, natsKey(addr))
	if err != nil {
		return Account{}, err
	}
	if a == nil {
		return Account{}, ErrNotFound
	}
	return *a, nil
}

// Close implements Backend. The connection belongs to the caller.
func (n *NATS) Close() error {
	return nil
}
