// Package retry provides backoff policies and a driver that retries
// fallible operations according to them.
package retry

import "time"

// Backoff computes the delay to wait before a retry attempt.
//
// Implementations are pure: calling Delay has no side effects, and the
// same attempt number always yields the same delay.
type Backoff interface {
	// Delay returns the sleep duration before retry number attempt.
	// Attempts are counted from zero.
	Delay(attempt int) time.Duration
}
