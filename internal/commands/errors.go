package commands

import (
	"errors"
	"fmt"
	"io"

	"taskledger/internal/exitcode"
	"taskledger/internal/taskerr"
)

// ExitCodeFor maps a service error to an exit code.
func ExitCodeFor(err error) int {
	kind, ok := taskerr.KindOf(err)
	if !ok {
		return exitcode.BackendError
	}
	switch kind {
	case taskerr.Unauthorized, taskerr.SignatureInvalid, taskerr.AddressMismatch:
		return exitcode.AuthError
	case taskerr.UnknownOperation, taskerr.MalformedPayload:
		return exitcode.BackendError
	default:
		return exitcode.UserError
	}
}

// report prints err and returns its exit code.
func report(errOut io.Writer, err error) int {
	var e *taskerr.Error
	switch {
	case errors.Is(err, taskerr.ErrNotFound):
		fmt.Fprintln(errOut, "error: task list not initialized (run: taskledger init)")
	case errors.As(err, &e):
		fmt.Fprintf(errOut, "error: %s\n", e.Kind.Message())
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	}
	return ExitCodeFor(err)
}
