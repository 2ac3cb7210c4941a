package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Classification is the verdict of a [Classifier] for one error.
type Classification struct {
	// Retryable marks the error as transient.
	Retryable bool
	// CloseRequired marks the error class as one that invalidates the
	// caller's underlying handler. The runner reports it through the
	// close hook before deciding whether to retry.
	CloseRequired bool
}

// Classifier sorts operation errors into retryable and terminal ones.
type Classifier func(err error) Classification

// Runner drives a fallible operation to completion, sleeping according
// to a [Backoff] policy between attempts.
//
// Do never spawns goroutines and is safe to call concurrently; the only
// suspension point is the backoff sleep.
type Runner struct {
	backoff     Backoff
	maxAttempts int
	deadline    time.Time
	closeHook   func(err error)
	log         *zap.Logger
}

// NewRunner returns a Runner allowing maxAttempts retries after the
// first attempt, so an operation is invoked at most maxAttempts+1 times.
func NewRunner(backoff Backoff, maxAttempts int) *Runner {
	if backoff == nil {
		panic("backoff can't be nil")
	}
	if maxAttempts < 0 {
		panic("max attempts can't be < 0")
	}
	return &Runner{
		backoff:     backoff,
		maxAttempts: maxAttempts,
		log:         zap.NewNop(),
	}
}

// WithDeadline sets an absolute cutoff. No backoff sleep will cross it.
// The first attempt is made even when the deadline has already passed.
func (r *Runner) WithDeadline(deadline time.Time) *Runner {
	if deadline.IsZero() {
		panic("deadline can't be zero")
	}
	r.deadline = deadline
	return r
}

// WithCloseHook registers the callback invoked when a classified error
// requires the caller's underlying handler to be closed.
func (r *Runner) WithCloseHook(hook func(err error)) *Runner {
	if hook == nil {
		panic("hook can't be nil")
	}
	r.closeHook = hook
	return r
}

func (r *Runner) WithLogger(log *zap.Logger) *Runner {
	if log == nil {
		panic("logger can't be nil")
	}
	r.log = log
	return r
}

// Do invokes op until it succeeds or fails terminally. A failure is
// terminal when the classifier marks it non-retryable, when attempts are
// exhausted, when the next backoff sleep would cross the deadline, or
// when ctx is cancelled during the sleep. The last classified error is
// always the one returned, never silently dropped.
func (r *Runner) Do(ctx context.Context, op func(ctx context.Context) error, classify Classifier) error {
	if op == nil {
		panic("op can't be nil")
	}
	if classify == nil {
		panic("classify can't be nil")
	}

	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		verdict := classify(err)
		if verdict.CloseRequired && r.closeHook != nil {
			r.closeHook(err)
		}
		if !verdict.Retryable {
			r.log.Debug("terminal error",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		if attempt >= r.maxAttempts {
			r.log.Debug("attempts exhausted",
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return err
		}

		delay := r.backoff.Delay(attempt)
		if !r.deadline.IsZero() && delay > time.Until(r.deadline) {
			r.log.Debug("backoff would cross deadline",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Time("deadline", r.deadline),
				zap.Error(err),
			)
			return err
		}

		r.log.Debug("backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
	}
}
