// Package store provides record storage backends for task list records.
//
// A Backend runs each Update as one atomic unit with exclusive access to the
// address: writes made through the Tx commit only when the callback returns
// nil. That serialization is what lets the dispatcher do an unlocked
// read-modify-write.
package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"taskledger/internal/address"
	"taskledger/internal/identity"
)

var (
	// ErrNotFound is returned by Get when no record is allocated at the address.
	ErrNotFound = errors.New("record not found")

	// ErrNotAllocated is returned by Write when the address has no allocation.
	ErrNotAllocated = errors.New("record not allocated")

	// ErrAlreadyAllocated is returned by Allocate when the address is taken.
	ErrAlreadyAllocated = errors.New("record already allocated")

	// ErrSpaceExceeded is returned by Write when data exceeds the allocation.
	ErrSpaceExceeded = errors.New("data exceeds allocated space")

	// ErrAddressMismatch is returned when a Tx is used for another address.
	ErrAddressMismatch = errors.New("transaction bound to another address")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store closed")
)

// Account is an allocated record.
type Account struct {
	Data  []byte
	Space int
	Payer identity.ID
}

// Tx is the view of one address inside an Update.
type Tx interface {
	Exists(ctx context.Context, addr address.Address) (bool, error)
	Read(ctx context.Context, addr address.Address) ([]byte, bool, error)
	Allocate(ctx context.Context, addr address.Address, payer identity.ID, space int) error
	Write(ctx context.Context, addr address.Address, data []byte) error
}

// Backend is a record store.
type Backend interface {
	// Update runs fn with exclusive access to addr. Writes commit only if fn returns nil.
	Update(ctx context.Context, addr address.Address, fn func(Tx) error) error

	// Get returns the committed account at addr or ErrNotFound.
	Get(ctx context.Context, addr address.Address) (Account, error)

	// Close releases resources.
	Close() error
}

// staged is a single-address Tx over a snapshot. Backends load the snapshot,
// run the callback against it and persist it if it changed.
type staged struct {
	addr    address.Address
	account *Account
	dirty   bool
}

func newStaged(addr address.Address, current *Account) *staged {
	s := &staged{addr: addr}
	if current != nil {
		cp := *current
		cp.Data = append([]byte(nil), current.Data...)
		s.account = &cp
	}
	return s
}

func (s *staged) check(addr address.Address) error {
	if addr != s.addr {
		return fmt.Errorf("%w: %s", ErrAddressMismatch, addr)
	}
	return nil
}

func (s *staged) Exists(_ context.Context, addr address.Address) (bool, error) {
	if err := s.check(addr); err != nil {
		return false, err
	}
	return s.account != nil, nil
}

func (s *staged) Read(_ context.Context, addr address.Address) ([]byte, bool, error) {
	if err := s.check(addr); err != nil {
		return nil, false, err
	}
	if s.account == nil {
		return nil, false, nil
	}
	return append([]byte(nil), s.account.Data...), true, nil
}

func (s *staged) Allocate(_ context.Context, addr address.Address, payer identity.ID, space int) error {
	if err := s.check(addr); err != nil {
		return err
	}
	if s.account != nil {
		return ErrAlreadyAllocated
	}
	if space <= 0 {
		return fmt.Errorf("invalid space %d", space)
	}
	s.account = &Account{Space: space, Payer: payer}
	s.dirty = true
	return nil
}

func (s *staged) Write(_ context.Context, addr address.Address, data []byte) error {
	if err := s.check(addr); err != nil {
		return err
	}
	if s.account == nil {
		return ErrNotAllocated
	}
	if len(data) > s.account.Space {
		return fmt.Errorf("%w: %d > %d", ErrSpaceExceeded, len(data), s.account.Space)
	}
	s.account.Data = append([]byte(nil), data...)
	s.dirty = true
	return nil
}

// Persisted account value: [32B payer][4B space][data].
const accountHeaderSize = identity.Size + 4

func marshalAccount(a Account) []byte {
	buf := make([]byte, 0, accountHeaderSize+len(a.Data))
	buf = append(buf, a.Payer[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(a.Space))
	return append(buf, a.Data...)
}

func unmarshalAccount(b []byte) (Account, error) {
	if len(b) < accountHeaderSize {
		return Account{}, fmt.Errorf("corrupt account: %d bytes", len(b))
	}
	var a Account
	copy(a.Payer[:], b[:identity.Size])
	a.Space = int(binary.LittleEndian.Uint32(b[identity.Size:accountHeaderSize]))
	a.Data = append([]byte(nil), b[accountHeaderSize:]...)
	if len(a.Data) > a.Space {
		return Account{}, fmt.Errorf("corrupt account: %d bytes in %d space", len(a.Data), a.Space)
	}
	return a, nil
}
