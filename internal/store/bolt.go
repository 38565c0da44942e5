package store

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"taskledger/internal/address"
)

var accountsBucket = []byte("accounts")

// Bolt is a Backend on a local bbolt file. bbolt allows one writable
// transaction at a time, so every Update is serialized.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(accountsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Update implements Backend.
func (b *Bolt) Update(ctx context.Context, addr address.Address, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(btx *bolt.Tx) error {
		bucket := btx.Bucket(accountsBucket)

		var snapshot *Account
		if raw := bucket.Get(addr[:]); raw != nil {
			a, err := unmarshalAccount(raw)
			if err != nil {
				return fmt.Errorf("account %s: %w", addr, err)
			}
			snapshot = &a
		}

		tx := newStaged(addr, snapshot)
		if err := fn(tx); err != nil {
			return err
		}
		if !tx.dirty {
			return nil
		}
		return bucket.Put(addr[:], marshalAccount(*tx.account))
	})
}

// Get implements Backend.
func (b *Bolt) Get(_ context.Context, addr address.Address) (Account, error) {
	var a Account
	err := b.db.View(func(btx *bolt.Tx) error {
		raw := btx.Bucket(accountsBucket).Get(addr[:])
		if raw == nil {
			return ErrNotFound
		}
		var err error
		a, err = unmarshalAccount(raw)
		return err
	})
	return a, err
}

// Close implements Backend.
func (b *Bolt) Close() error {
	return b.db.Close()
}
