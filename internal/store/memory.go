package store

import (
	"context"
	"sync"
	"sync/atomic"

	"taskledger/internal/address"
)

// Memory is an in-process Backend. Updates on the same address are
// serialized by a per-address mutex; different addresses proceed in parallel.
type Memory struct {
	mu       sync.RWMutex
	accounts map[address.Address]Account

	locksMu sync.Mutex
	locks   map[address.Address]*sync.Mutex

	closed atomic.Bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[address.Address]Account),
		locks:    make(map[address.Address]*sync.Mutex),
	}
}

func (m *Memory) lockFor(addr address.Address) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[addr]
	if !ok {
		l = &sync.Mutex{}
		m.locks[addr] = l
	}
	return l
}

// Update implements Backend.
func (m *Memory) Update(ctx context.Context, addr address.Address, fn func(Tx) error) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l := m.lockFor(addr)
	l.Lock()
	defer l.Unlock()

	m.mu.RLock()
	current, ok := m.accounts[addr]
	m.mu.RUnlock()

	var snapshot *Account
	if ok {
		snapshot = &current
	}
	tx := newStaged(addr, snapshot)
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	m.mu.Lock()
	m.accounts[addr] = *tx.account
	m.mu.Unlock()
	return nil
}

// Get implements Backend.
func (m *Memory) Get(_ context.Context, addr address.Address) (Account, error) {
	if m.closed.Load() {
		return Account{}, ErrClosed
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[addr]
	if !ok {
		return Account{}, ErrNotFound
	}
	a.Data = append([]byte(nil), a.Data...)
	return a, nil
}

// Close implements Backend.
func (m *Memory) Close() error {
	m.closed.Store(true)
	return nil
}
