package relock

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when the renewer is used after Close or Stop.
	ErrClosed = errors.New("renewer is closed")
	// ErrNotLockable rejects registration of a renewable that holds no
	// lock, e.g. a message received in receive-and-delete mode.
	ErrNotLockable = errors.New("renewable has no lock to renew")
	// ErrUnknownKind rejects registration of an unsupported variant.
	ErrUnknownKind = errors.New("unknown renewable kind")
	// ErrRenewTimeout marks renewal windows that elapsed before the
	// renewable settled. Delivered via the failure callback wrapped with
	// the window duration, never returned from Register.
	ErrRenewTimeout = errors.New("lock renewal window elapsed")
)

// RenewFailedError wraps the error returned by Renewable.Renew when a
// renewal attempt fails terminally.
type RenewFailedError struct {
	Cause error
}

func (e *RenewFailedError) Error() string {
	return fmt.Sprintf("lock renewal failed: %v", e.Cause)
}

func (e *RenewFailedError) Unwrap() error {
	return e.Cause
}
