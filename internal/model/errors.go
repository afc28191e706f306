package model

import (
	"errors"
	"fmt"
)

// InvalidOperationError is an invariant violation: the caller dispatched
// an operation the current state cannot accept (stopping an entry that
// is not running, continuing one that is not finished). These are
// programming errors on the caller's side and are never retried.
type InvalidOperationError struct {
	Op     string
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation %s: %s", e.Op, e.Reason)
}

// NewInvalidOperation builds an InvalidOperationError.
func NewInvalidOperation(op, format string, args ...any) *InvalidOperationError {
	return &InvalidOperationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidOperation reports whether err is an invariant violation.
// Uses errors.As to handle wrapped errors.
func IsInvalidOperation(err error) bool {
	var ie *InvalidOperationError
	return errors.As(err, &ie)
}

// MissingRemoteIDError aborts the transmission of a single entity whose
// foreign key cannot be resolved to a remote id yet. The send is
// expected to succeed on a later pass once the parent has round-tripped.
type MissingRemoteIDError struct {
	Kind     Kind
	LocalID  string
	Relation string
}

func (e *MissingRemoteIDError) Error() string {
	return fmt.Sprintf("%s %s: relation %s has no remote id yet", e.Kind, e.LocalID, e.Relation)
}

// IsMissingRemoteID reports whether err is a remote-id resolution failure.
func IsMissingRemoteID(err error) bool {
	var me *MissingRemoteIDError
	return errors.As(err, &me)
}
