package ext2fsal

import (
	"fmt"
	"syscall"

	"github.com/hashicorp/go-multierror"
)

// MutatorError is a wrapper around a POSIX errno code, with an optional
// custom message giving extra context (the path or name involved, say).
// Every namespace operation in this package returns either nil or a
// *MutatorError, never a bare error, so callers can switch on .Errno.
type MutatorError struct {
	Errno   syscall.Errno
	message string
}

// Error implements the error interface.
func (e *MutatorError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("%s: %s", e.Errno.Error(), e.message)
	}
	return e.Errno.Error()
}

// Unwrap lets errors.Is(err, syscall.ENOENT) and friends work directly
// against a *MutatorError.
func (e *MutatorError) Unwrap() error {
	return e.Errno
}

// NewError creates a *MutatorError with the default message derived from
// the errno code.
func NewError(code syscall.Errno) *MutatorError {
	return &MutatorError{Errno: code}
}

// NewErrorf creates a *MutatorError with a custom, formatted message.
func NewErrorf(code syscall.Errno, format string, args ...interface{}) *MutatorError {
	return &MutatorError{Errno: code, message: fmt.Sprintf(format, args...)}
}

// withRollbackFailures folds any cleanup-call failures (from FreeBlock/
// FreeInode after a failed commit step) into primary's message, so a failed
// free is never silently dropped. cleanup should be built by the caller
// with multierror.Append, only ever passing already-nil-checked errors in
// (a *mutatorError nil interface-boxes as non-nil, so callers must check
// each cleanup call's return before appending it). If nothing failed during
// cleanup, cleanup is nil and primary is returned unchanged.
func withRollbackFailures(primary *MutatorError, cleanup *multierror.Error) *MutatorError {
	if cleanup == nil || len(cleanup.Errors) == 0 {
		return primary
	}
	return NewErrorf(primary.Errno, "%s (rollback also failed: %s)", primary.Error(), cleanup.Error())
}

// Taxonomy from spec §7, named the way callers will switch on them.
const (
	ErrNotFound        = syscall.ENOENT
	ErrExists          = syscall.EEXIST
	ErrIsDirectory     = syscall.EISDIR
	ErrNoSpace         = syscall.ENOSPC
	ErrNameTooLong     = syscall.ENAMETOOLONG
	ErrIO              = syscall.EIO
	errInvalidArgument = syscall.EINVAL
	errAlreadyFree     = syscall.EALREADY
)
