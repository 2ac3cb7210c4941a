package relock

import (
	"context"
	"time"
)

// Kind tags the renewable variants the engine supports.
type Kind int

const (
	// KindMessage is a received message holding a per-message lock.
	KindMessage Kind = iota + 1
	// KindSession is a session lock. Sessions have no settlement
	// concept, so the engine never consults Settled for them.
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindSession:
		return "session"
	default:
		return "unknown"
	}
}

// Renewable is the capability required of anything whose lock the engine
// can extend. Implementations live in the receiver layer.
//
// All methods may be called while application code settles the message
// or closes the receiver concurrently; the engine re-checks state before
// every renewal and stands down without error on such changes.
type Renewable interface {
	// Kind reports which variant this renewable is.
	Kind() Kind
	// LockedUntil returns the current lock expiry. ok is false when the
	// entity holds no lock at all, e.g. receive-and-delete mode.
	LockedUntil() (expiry time.Time, ok bool)
	// StartedAt returns the instant the renewal window opened: the
	// received timestamp for messages, the open timestamp for sessions.
	// A zero time makes the engine use the registration time instead.
	StartedAt() time.Time
	// Settled reports terminal disposition of a message.
	Settled() bool
	// LockExpired reports whether the lock has already lapsed.
	LockExpired() bool
	// Renew performs one protocol-level renewal and returns the new
	// expiry.
	Renew(ctx context.Context) (expiry time.Time, err error)
	// SetRenewError records the terminal auto-renewal error so the
	// application can inspect it after the failure callback fired.
	SetRenewError(err error)
}

// Receiver reports liveness of the receiver owning a renewable. Renewal
// stands down once the receiver stops running.
type Receiver interface {
	Running() bool
}
