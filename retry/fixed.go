package retry

import "time"

// FixedBackoff waits the same interval between every attempt.
type FixedBackoff struct {
	interval time.Duration
	max      time.Duration
}

var _ Backoff = (*FixedBackoff)(nil)

func NewFixed(interval time.Duration) *FixedBackoff {
	if interval < 0 {
		panic("interval can't be < 0")
	}
	return &FixedBackoff{
		interval: interval,
		max:      interval,
	}
}

func (b *FixedBackoff) WithMax(max time.Duration) *FixedBackoff {
	if max < 0 {
		panic("max can't be < 0")
	}
	b.max = max
	return b
}

func (b *FixedBackoff) Delay(attempt int) time.Duration {
	if b.interval > b.max {
		return b.max
	}
	return b.interval
}
