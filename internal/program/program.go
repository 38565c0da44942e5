// Package program dispatches encoded task list requests.
//
// Handle is one read-modify-write cycle against a single record. It assumes the
// caller runs it with exclusive access to the record address (see
// ledger.Ledger); it takes no locks of its own.
package program

import (
	"context"
	"fmt"

	"taskledger/internal/address"
	"taskledger/internal/codec"
	"taskledger/internal/identity"
	"taskledger/internal/taskerr"
	"taskledger/internal/tasklist"
)

// Storage is the record storage the dispatcher reads and writes.
type Storage interface {
	// Exists reports whether a record is allocated at addr.
	Exists(ctx context.Context, addr address.Address) (bool, error)

	// Read returns the record bytes at addr; ok is false when absent.
	Read(ctx context.Context, addr address.Address) (data []byte, ok bool, err error)

	// Allocate reserves space bytes at addr, paid for by payer.
	Allocate(ctx context.Context, addr address.Address, payer identity.ID, space int) error

	// Write overwrites the record at addr. data must fit the allocation.
	Write(ctx context.Context, addr address.Address, data []byte) error
}

// Result is the outcome of a successful request.
type Result struct {
	// Operation is the name of the dispatched operation.
	Operation string

	// AssignedID is set for append.
	AssignedID    uint64
	HasAssignedID bool
}

// Program handles requests for one program identity.
type Program struct {
	deriver address.Deriver
}

// New creates a Program whose create requests must target addresses derived by d.
func New(d address.Deriver) *Program {
	return &Program{deriver: d}
}

// Deriver returns the address deriver.
func (p *Program) Deriver() address.Deriver {
	return p.deriver
}

// Handle decodes raw and applies it to the record at addr on behalf of caller.
// Domain failures are *taskerr.Error values. Any other error comes from storage.
// Nothing is written unless the transition succeeds.
func (p *Program) Handle(ctx context.Context, caller identity.ID, addr address.Address, raw []byte, st Storage) (Result, error) {
	tag, args, err := codec.SplitTag(raw)
	if err != nil {
		return Result{}, err
	}
	op, err := codec.DecodeArgs(tag, args)
	if err != nil {
		return Result{}, err
	}

	if _, ok := op.(tasklist.Create); ok {
		return p.create(ctx, caller, addr, st)
	}
	return p.mutate(ctx, caller, addr, op, st)
}

func (p *Program) create(ctx context.Context, caller identity.ID, addr address.Address, st Storage) (Result, error) {
	exists, err := st.Exists(ctx, addr)
	if err != nil {
		return Result{}, fmt.Errorf("check record: %w", err)
	}
	if exists {
		return Result{}, taskerr.New(taskerr.AlreadyExists, "address %s", addr)
	}
	if !p.deriver.Verify(caller, addr) {
		return Result{}, taskerr.New(taskerr.AddressMismatch, "address %s for caller %s", addr, caller)
	}

	next, _, err := tasklist.Apply(nil, caller, tasklist.Create{})
	if err != nil {
		return Result{}, err
	}

	if err := st.Allocate(ctx, addr, caller, codec.MaxRecordSize); err != nil {
		return Result{}, fmt.Errorf("allocate record: %w", err)
	}
	if err := st.Write(ctx, addr, codec.EncodeRecord(next)); err != nil {
		return Result{}, fmt.Errorf("write record: %w", err)
	}
	return Result{Operation: tasklist.Create{}.Name()}, nil
}

func (p *Program) mutate(ctx context.Context, caller identity.ID, addr address.Address, op tasklist.Operation, st Storage) (Result, error) {
	data, ok, err := st.Read(ctx, addr)
	if err != nil {
		return Result{}, fmt.Errorf("read record: %w", err)
	}
	if !ok {
		return Result{}, taskerr.New(taskerr.NotFound, "address %s", addr)
	}

	current, err := codec.DecodeRecord(data)
	if err != nil {
		return Result{}, err
	}

	next, outcome, err := tasklist.Apply(&current, caller, op)
	if err != nil {
		return Result{}, err
	}

	if err := st.Write(ctx, addr, codec.EncodeRecord(next)); err != nil {
		return Result{}, fmt.Errorf("write record: %w", err)
	}
	return Result{
		Operation:     op.Name(),
		AssignedID:    outcome.AssignedID,
		HasAssignedID: outcome.HasAssignedID,
	}, nil
}
