package retry

import "time"

// DefaultMax clamps exponential delays when WithMax is not used.
const DefaultMax = 2 * time.Minute

// ExponentialBackoff doubles the factor on every attempt, clamped at max.
type ExponentialBackoff struct {
	factor time.Duration
	max    time.Duration
}

var _ Backoff = (*ExponentialBackoff)(nil)

func NewExponential(factor time.Duration) *ExponentialBackoff {
	if factor <= 0 {
		panic("factor can't be <= 0")
	}
	return &ExponentialBackoff{
		factor: factor,
		max:    DefaultMax,
	}
}

func (b *ExponentialBackoff) WithMax(max time.Duration) *ExponentialBackoff {
	if max <= 0 {
		panic("max can't be <= 0")
	}
	b.max = max
	return b
}

func (b *ExponentialBackoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// The shift is guarded against crossing max first, so large attempt
	// counts can't overflow time.Duration.
	if attempt >= 62 || b.factor > b.max>>uint(attempt) {
		return b.max
	}
	return b.factor << uint(attempt)
}
