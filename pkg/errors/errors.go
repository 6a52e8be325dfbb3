package errors

import (
	stderrors "errors"
	"fmt"
)

// Is re-exports the stdlib check so callers importing this package don't
// need a second errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

var (
	// ErrValidation covers malformed or missing input.
	ErrValidation = fmt.Errorf("invalid input")

	// ErrNotFound covers unknown jobs, tasks, workflows & licenses.
	ErrNotFound = fmt.Errorf("not found")

	// ErrForbidden covers origin, access-key & authorization failures.
	ErrForbidden = fmt.Errorf("forbidden")

	// ErrConflict covers illegal state transitions.
	ErrConflict = fmt.Errorf("conflict")

	// ErrPrecondition covers create-time checks that fail on otherwise
	// well formed input, eg. an inactive workflow or a missing contact.
	ErrPrecondition = fmt.Errorf("precondition failed")

	// ErrLocked means the job's login is locked out; wrapping errors
	// carry the remaining wait.
	ErrLocked = fmt.Errorf("login locked")

	// ErrNotImplemented covers the CONCURRENT pricing model & GOOGLE login.
	ErrNotImplemented = fmt.Errorf("not implemented")

	// ErrInternal covers unexpected collaborator failures.
	ErrInternal = fmt.Errorf("internal error")
)
