package relock

import "time"

// task is one in-flight renewal obligation for a single renewable.
//
// A task is owned by exactly one goroutine at a time: it is either
// queued in the dispatcher or being stepped by a worker, never both, so
// renew calls for one renewable are strictly sequential.
type task struct {
	id        string
	renewable Renewable
	receiver  Receiver

	start       time.Time
	maxDuration time.Duration
	leadTime    time.Duration
	onFailure   FailureFunc
}

// dueForRenewal reports whether the lock is close enough to expiry for a
// renewal attempt.
func (t *task) dueForRenewal(now time.Time) bool {
	expiry, ok := t.renewable.LockedUntil()
	if !ok {
		return false
	}
	return expiry.Sub(now) <= t.leadTime
}
