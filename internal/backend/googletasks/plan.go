package googletasks

import (
	"strconv"
	"strings"

	"taskledger/internal/tasklist"
)

// MarkerPrefix starts the notes line that links a remote task to a local id.
const MarkerPrefix = "taskledger:id="

// Remote task statuses.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// RemoteTask is the subset of a Google task the mirror reads.
type RemoteTask struct {
	ID     string
	Title  string
	Notes  string
	Status string
}

// Marker returns the notes marker for a local task id.
func Marker(id uint64) string {
	return MarkerPrefix + strconv.FormatUint(id, 10)
}

// ParseMarker returns the local id recorded in notes.
func ParseMarker(notes string) (uint64, bool) {
	for _, line := range strings.Split(notes, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), MarkerPrefix)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

// ChangeKind is the type of a planned remote change.
type ChangeKind int

const (
	// Insert creates a remote task for a local one.
	Insert ChangeKind = iota
	// Patch updates a remote task's title or status.
	Patch
	// Delete removes a remote task whose local task is gone.
	Delete
)

func (k ChangeKind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Patch:
		return "patch"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Change is one remote mutation.
type Change struct {
	Kind     ChangeKind
	TaskID   uint64
	RemoteID string // empty for Insert
	Title    string
	Status   string
}

func statusOf(t tasklist.Task) string {
	if t.Completed {
		return StatusCompleted
	}
	return StatusNeedsAction
}

// Plan returns the changes that make remote mirror local.
//
// Remote tasks without a marker belong to the user and are never touched.
// When several remote tasks carry the same marker the first is kept and
// the rest are deleted. Inserts and patches come first in local order,
// followed by deletes of stale tasks and then of duplicates.
func Plan(local []tasklist.Task, remote []RemoteTask) []Change {
	byID := make(map[uint64]RemoteTask, len(remote))
	var deletes []Change
	for _, r := range remote {
		id, ok := ParseMarker(r.Notes)
		if !ok {
			continue
		}
		if _, dup := byID[id]; dup {
			deletes = append(deletes, Change{Kind: Delete, TaskID: id, RemoteID: r.ID})
			continue
		}
		byID[id] = r
	}

	var changes []Change
	live := make(map[uint64]bool, len(local))
	for _, t := range local {
		live[t.ID] = true
		status := statusOf(t)
		r, ok := byID[t.ID]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: Insert, TaskID: t.ID, Title: t.Description, Status: status})
		case r.Title != t.Description || r.Status != status:
			changes = append(changes, Change{Kind: Patch, TaskID: t.ID, RemoteID: r.ID, Title: t.Description, Status: status})
		}
	}

	for _, r := range remote {
		id, ok := ParseMarker(r.Notes)
		if !ok || live[id] || byID[id].ID != r.ID {
			continue
		}
		changes = append(changes, Change{Kind: Delete, TaskID: id, RemoteID: r.ID})
	}
	return append(changes, deletes...)
}
