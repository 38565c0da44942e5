// Package service defines the backend-agnostic interface for task list operations.
package service

import (
	"context"

	"taskledger/internal/address"
	"taskledger/internal/identity"
	"taskledger/internal/tasklist"
)

// Service defines the interface for task list operations on behalf of one owner.
// Commands and the terminal view go through this interface and never
// build requests themselves.
//
// Domain failures are *taskerr.Error values (match with errors.Is or
// taskerr.KindOf). Any other error is a backend failure.
type Service interface {
	// Owner returns the identity requests are signed with.
	Owner() identity.ID

	// Address returns the owner's record address.
	Address() address.Address

	// Initialize creates the owner's empty task list.
	Initialize(ctx context.Context) error

	// AddTask appends a task and returns its permanent id.
	AddTask(ctx context.Context, description string) (uint64, error)

	// CompleteTask marks the task with the given id as completed.
	CompleteTask(ctx context.Context, id uint64) error

	// DeleteTask removes the task with the given id.
	DeleteTask(ctx context.Context, id uint64) error

	// TaskList returns the owner's decoded record.
	// Returns a NotFound failure if the list was never initialized.
	TaskList(ctx context.Context) (tasklist.TaskList, error)
}
