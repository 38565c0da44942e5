// Package testutil provides testing utilities.
package testutil

import (
	"bytes"
	"context"
	"sync"

	"taskledger/internal/address"
	"taskledger/internal/identity"
	"taskledger/internal/taskerr"
	"taskledger/internal/tasklist"
)

// DefaultOwner is the identity FakeService acts for unless told otherwise.
var DefaultOwner = identity.FromSeed(bytes.Repeat([]byte{0x42}, identity.Size)).ID()

// FakeService is an in-memory implementation of service.Service for testing.
// Mutations go through tasklist.Apply, so failures carry real kinds.
type FakeService struct {
	mu    sync.RWMutex
	owner identity.ID
	list  *tasklist.TaskList

	// Error injection for testing
	InitializeErr   error
	AddTaskErr      error
	CompleteTaskErr error
	DeleteTaskErr   error
	TaskListErr     error

	// Calls records the operations applied, in order.
	Calls []string
}

// NewFakeService creates a FakeService for DefaultOwner with no list.
func NewFakeService() *FakeService {
	return &FakeService{owner: DefaultOwner}
}

// NewInitializedFakeService creates a FakeService holding an empty list.
func NewInitializedFakeService() *FakeService {
	f := NewFakeService()
	f.list = &tasklist.TaskList{Owner: f.owner, Tasks: []tasklist.Task{}}
	return f
}

// Seed appends a task, optionally completed, without recording a call.
// It panics if the list is not initialized or full.
func (f *FakeService) Seed(description string, completed bool) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, outcome, err := tasklist.Apply(f.list, f.owner, tasklist.Append{Description: description})
	if err != nil {
		panic(err)
	}
	if completed {
		next, _, err = tasklist.Apply(&next, f.owner, tasklist.Complete{TaskID: outcome.AssignedID})
		if err != nil {
			panic(err)
		}
	}
	f.list = &next
	return outcome.AssignedID
}

// Owner implements service.Service.
func (f *FakeService) Owner() identity.ID {
	return f.owner
}

// Address implements service.Service.
func (f *FakeService) Address() address.Address {
	return address.NewDeriver(address.DefaultProgramID).Address(f.owner)
}

func (f *FakeService) apply(op tasklist.Operation) (tasklist.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, outcome, err := tasklist.Apply(f.list, f.owner, op)
	if err != nil {
		return tasklist.Outcome{}, err
	}
	f.list = &next
	f.Calls = append(f.Calls, op.Name())
	return outcome, nil
}

// Initialize implements service.Service.
func (f *FakeService) Initialize(ctx context.Context) error {
	if f.InitializeErr != nil {
		return f.InitializeErr
	}
	_, err := f.apply(tasklist.Create{})
	return err
}

// AddTask implements service.Service.
func (f *FakeService) AddTask(ctx context.Context, description string) (uint64, error) {
	if f.AddTaskErr != nil {
		return 0, f.AddTaskErr
	}
	outcome, err := f.apply(tasklist.Append{Description: description})
	if err != nil {
		return 0, err
	}
	return outcome.AssignedID, nil
}

// CompleteTask implements service.Service.
func (f *FakeService) CompleteTask(ctx context.Context, id uint64) error {
	if f.CompleteTaskErr != nil {
		return f.CompleteTaskErr
	}
	_, err := f.apply(tasklist.Complete{TaskID: id})
	return err
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id uint64) error {
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	_, err := f.apply(tasklist.Remove{TaskID: id})
	return err
}

// TaskList implements service.Service.
func (f *FakeService) TaskList(ctx context.Context) (tasklist.TaskList, error) {
	if f.TaskListErr != nil {
		return tasklist.TaskList{}, f.TaskListErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.list == nil {
		return tasklist.TaskList{}, taskerr.New(taskerr.NotFound, "")
	}
	return f.list.Clone(), nil
}
