// Package tasklist holds the task list model and its state transitions.
//
// Apply is pure: it never performs I/O, never mutates its input and returns
// the same result for the same arguments.
package tasklist

import (
	"taskledger/internal/identity"
)

const (
	// MaxTasks is the number of live tasks a list may hold.
	MaxTasks = 40

	// MaxDescriptionLen is the maximum description length in bytes.
	MaxDescriptionLen = 200
)

// Task is a single entry of a TaskList.
type Task struct {
	ID          uint64
	Description string
	Completed   bool
}

// TaskList is the record stored at an owner's address.
//
// TaskCount allocates ids: it is the id of the next appended task and never
// decreases. It is not the length of Tasks.
type TaskList struct {
	Owner     identity.ID
	TaskCount uint64
	Tasks     []Task
}

// Find returns the index of the task with id, or -1.
func (l *TaskList) Find(id uint64) int {
	for i, t := range l.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Open returns the tasks not yet completed, in list order.
func (l *TaskList) Open() []Task {
	var open []Task
	for _, t := range l.Tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	return open
}

// Clone returns a deep copy.
func (l TaskList) Clone() TaskList {
	out := l
	if l.Tasks != nil {
		out.Tasks = make([]Task, len(l.Tasks))
		copy(out.Tasks, l.Tasks)
	}
	return out
}

// Check reports whether l satisfies the list invariants: capacity, ids below
// TaskCount, ids pairwise distinct and description lengths in bounds.
func (l *TaskList) Check() bool {
	if len(l.Tasks) > MaxTasks {
		return false
	}
	seen := make(map[uint64]bool, len(l.Tasks))
	for _, t := range l.Tasks {
		if t.ID >= l.TaskCount || seen[t.ID] || len(t.Description) > MaxDescriptionLen {
			return false
		}
		seen[t.ID] = true
	}
	return true
}
