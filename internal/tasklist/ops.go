package tasklist

import (
	"taskledger/internal/identity"
	"taskledger/internal/taskerr"
)

// Operation is one of Create, Append, Complete or Remove.
// The set is closed: the unexported method keeps other packages from adding variants.
type Operation interface {
	// Name returns the operation name used in logs and receipts.
	Name() string
	operation()
}

// Create initializes a list owned by the caller.
type Create struct{}

// Append adds a task with Description.
type Append struct {
	Description string
}

// Complete marks the task with TaskID as completed.
type Complete struct {
	TaskID uint64
}

// Remove deletes the task with TaskID.
type Remove struct {
	TaskID uint64
}

func (Create) Name() string   { return "create" }
func (Append) Name() string   { return "append" }
func (Complete) Name() string { return "complete" }
func (Remove) Name() string   { return "remove" }

func (Create) operation()   {}
func (Append) operation()   {}
func (Complete) operation() {}
func (Remove) operation()   {}

// Outcome is the result of a successful transition.
type Outcome struct {
	// AssignedID is the id given to an appended task. Valid when HasAssignedID.
	AssignedID    uint64
	HasAssignedID bool
}

// Apply runs op against current on behalf of caller.
// current is nil when no record exists. On failure the returned list is the
// zero value and the error is a *taskerr.Error.
func Apply(current *TaskList, caller identity.ID, op Operation) (TaskList, Outcome, error) {
	if c, ok := op.(Create); ok {
		return applyCreate(current, caller, c)
	}

	if current == nil {
		return TaskList{}, Outcome{}, taskerr.New(taskerr.NotFound, "")
	}
	if current.Owner != caller {
		return TaskList{}, Outcome{}, taskerr.New(taskerr.Unauthorized, "caller %s", caller)
	}

	next := current.Clone()
	switch o := op.(type) {
	case Append:
		return applyAppend(next, o)
	case Complete:
		return applyComplete(next, o)
	case Remove:
		return applyRemove(next, o)
	default:
		return TaskList{}, Outcome{}, taskerr.New(taskerr.UnknownOperation, "%T", op)
	}
}

func applyCreate(current *TaskList, caller identity.ID, _ Create) (TaskList, Outcome, error) {
	if current != nil {
		return TaskList{}, Outcome{}, taskerr.New(taskerr.AlreadyExists, "owner %s", current.Owner)
	}
	return TaskList{Owner: caller, TaskCount: 0, Tasks: []Task{}}, Outcome{}, nil
}

func applyAppend(l TaskList, op Append) (TaskList, Outcome, error) {
	if n := len(op.Description); n > MaxDescriptionLen {
		return TaskList{}, Outcome{}, taskerr.New(taskerr.DescriptionTooLong, "%d bytes", n)
	}
	if len(l.Tasks) >= MaxTasks {
		return TaskList{}, Outcome{}, taskerr.New(taskerr.TooManyTasks, "")
	}

	id := l.TaskCount
	l.Tasks = append(l.Tasks, Task{ID: id, Description: op.Description})
	l.TaskCount++
	return l, Outcome{AssignedID: id, HasAssignedID: true}, nil
}

func applyComplete(l TaskList, op Complete) (TaskList, Outcome, error) {
	i := l.Find(op.TaskID)
	if i < 0 {
		return TaskList{}, Outcome{}, taskerr.New(taskerr.TaskNotFound, "id %d", op.TaskID)
	}
	if l.Tasks[i].Completed {
		return TaskList{}, Outcome{}, taskerr.New(taskerr.TaskAlreadyCompleted, "id %d", op.TaskID)
	}
	l.Tasks[i].Completed = true
	return l, Outcome{}, nil
}

func applyRemove(l TaskList, op Remove) (TaskList, Outcome, error) {
	i := l.Find(op.TaskID)
	if i < 0 {
		return TaskList{}, Outcome{}, taskerr.New(taskerr.TaskNotFound, "id %d", op.TaskID)
	}
	l.Tasks = append(l.Tasks[:i], l.Tasks[i+1:]...)
	return l, Outcome{}, nil
}
