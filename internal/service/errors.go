package service

import (
	"errors"
	"fmt"
)

// ErrNotSessionOwner is returned when a caller operates on another user's
// session.
var ErrNotSessionOwner = errors.New("session does not belong to this user")

// InvalidParametersError signals bad session-start input: unknown
// subject/year/topic or an out-of-range question budget. Not retried.
type InvalidParametersError struct {
	Reason string
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("invalid parameters: %s", e.Reason)
}

// SessionCreationError wraps a storage failure during session start. The
// caller may retry the start request.
type SessionCreationError struct {
	Err error
}

func (e *SessionCreationError) Error() string {
	return fmt.Sprintf("session creation failed: %v", e.Err)
}

func (e *SessionCreationError) Unwrap() error {
	return e.Err
}
