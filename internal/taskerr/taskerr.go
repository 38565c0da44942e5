// Package taskerr defines the closed set of failure kinds a task list
// operation can produce.
//
// Every kind has a stable numeric code. Codes cross the client boundary as
// opaque numbers and are mapped back with FromCode, so they must never change.
package taskerr

import (
	"errors"
	"fmt"
)

// Kind identifies a failure.
type Kind int

const (
	// UnknownOperation means the leading tag matches no operation.
	UnknownOperation Kind = iota + 1

	// MalformedPayload means request or record bytes do not match the layout.
	MalformedPayload

	// SignatureInvalid means the request signature does not verify for the caller.
	SignatureInvalid

	// AddressMismatch means a create targeted an address not derived from the caller.
	AddressMismatch

	// AlreadyExists means a create targeted an address that already holds a record.
	AlreadyExists

	// NotFound means a mutation targeted an address with no record.
	NotFound

	// DescriptionTooLong means an appended description exceeds MaxDescriptionLen bytes.
	DescriptionTooLong

	// TooManyTasks means the list already holds the maximum number of tasks.
	TooManyTasks

	// TaskNotFound means no live task has the referenced id.
	TaskNotFound

	// TaskAlreadyCompleted means the referenced task is already completed.
	TaskAlreadyCompleted

	// Unauthorized means the caller is not the record owner.
	Unauthorized
)

type kindInfo struct {
	name    string
	code    uint32
	message string
}

var kinds = map[Kind]kindInfo{
	UnknownOperation:     {"UnknownOperation", 101, "unknown operation"},
	MalformedPayload:     {"MalformedPayload", 102, "malformed payload"},
	SignatureInvalid:     {"SignatureInvalid", 2002, "signature does not verify for caller"},
	AddressMismatch:      {"AddressMismatch", 2006, "address is not derived from caller"},
	AlreadyExists:        {"AlreadyExists", 3000, "task list already exists"},
	NotFound:             {"NotFound", 3012, "task list not found"},
	DescriptionTooLong:   {"DescriptionTooLong", 6000, "description is too long (maximum 200 bytes)"},
	TooManyTasks:         {"TooManyTasks", 6001, "maximum number of tasks (40) reached"},
	TaskNotFound:         {"TaskNotFound", 6002, "task not found"},
	TaskAlreadyCompleted: {"TaskAlreadyCompleted", 6003, "task is already completed"},
	Unauthorized:         {"Unauthorized", 6004, "only the owner can perform this action"},
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := UnknownOperation; k <= Unauthorized; k++ {
		out = append(out, k)
	}
	return out
}

// String returns the kind name, e.g. "TaskNotFound".
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Code returns the stable numeric code, or 0 for an undefined kind.
func (k Kind) Code() uint32 {
	return kinds[k].code
}

// Message returns the fixed user-facing message of the kind.
func (k Kind) Message() string {
	if info, ok := kinds[k]; ok {
		return info.message
	}
	return k.String()
}

// FromCode maps a numeric code back to its kind.
func FromCode(code uint32) (Kind, bool) {
	for k, info := range kinds {
		if info.code == code {
			return k, true
		}
	}
	return 0, false
}

// Error is a typed failure. Detail is optional context for humans; matching
// is always by Kind.
type Error struct {
	Kind   Kind
	Detail string
}

// New creates an Error of the given kind with optional formatted detail.
func New(kind Kind, format string, args ...any) *Error {
	e := &Error{Kind: kind}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}

// Error returns the message.
func (e *Error) Error() string {
	msg := e.Kind.Message()
	if e.Detail != "" {
		return msg + ": " + e.Detail
	}
	return msg
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnknownOperation     = &Error{Kind: UnknownOperation}
	ErrMalformedPayload     = &Error{Kind: MalformedPayload}
	ErrSignatureInvalid     = &Error{Kind: SignatureInvalid}
	ErrAddressMismatch      = &Error{Kind: AddressMismatch}
	ErrAlreadyExists        = &Error{Kind: AlreadyExists}
	ErrNotFound             = &Error{Kind: NotFound}
	ErrDescriptionTooLong   = &Error{Kind: DescriptionTooLong}
	ErrTooManyTasks         = &Error{Kind: TooManyTasks}
	ErrTaskNotFound         = &Error{Kind: TaskNotFound}
	ErrTaskAlreadyCompleted = &Error{Kind: TaskAlreadyCompleted}
	ErrUnauthorized         = &Error{Kind: Unauthorized}
)

// KindOf extracts the failure kind from err, if err wraps an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Malformed is shorthand for a MalformedPayload failure.
func Malformed(format string, args ...any) *Error {
	return New(MalformedPayload, format, args...)
}
