package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task id required")

// ParseTaskID parses a task reference from args.
//
// A reference is the task's permanent id, written as "3" or "#3". It is
// never a position in the listing, so it stays valid after other tasks
// are removed.
func ParseTaskID(args []string) (uint64, error) {
	if len(args) == 0 {
		return 0, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("too many arguments: %s", strings.Join(args[1:], " "))
	}

	ref := strings.TrimPrefix(args[0], "#")
	if !isAllDigits(ref) {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
