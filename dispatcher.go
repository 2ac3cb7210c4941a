package relock

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// outcome classifies a task's state at a checkpoint.
type outcome int

const (
	outcomeContinue outcome = iota
	outcomeClean            // settled, receiver stopped, or renewer closed
	outcomeExpired          // lock lapsed before settlement
	outcomeTimeout          // max renewal duration elapsed
)

// enqueue hands a task to the dispatch loop, starting the loop when it
// is not running. Tasks arriving after shutdown are discarded.
func (r *Renewer) enqueue(t *task) {
	r.mu.Lock()
	if r.closing.Load() {
		r.mu.Unlock()
		r.finish(t)
		return
	}
	r.pending = append(r.pending, t)
	start := !r.dispatching
	if start {
		r.dispatching = true
		r.wg.Add(1)
	}
	r.mu.Unlock()

	if start {
		go r.dispatch()
	}
	notify(r.wake, struct{}{})
}

func (r *Renewer) pop() *task {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return nil
	}
	t := r.pending[0]
	r.pending = r.pending[1:]
	return t
}

// dispatch drains the pending queue until the renewer closes or nothing
// has been pending for the idle timeout. The next Register re-arms it.
func (r *Renewer) dispatch() {
	defer r.wg.Done()

	idle := time.NewTimer(r.cfg.idleTimeout)
	defer idle.Stop()

	for {
		if r.closing.Load() {
			r.drain()
			return
		}

		t := r.pop()
		if t == nil {
			select {
			case <-r.closed:
				r.drain()
				return
			case <-r.wake:
			case <-idle.C:
				if r.retire() {
					r.cfg.log.Debug("dispatch loop idle, stopping")
					return
				}
				idle.Reset(r.cfg.idleTimeout)
			}
			continue
		}

		idle.Reset(r.cfg.idleTimeout)
		r.run(t)
	}
}

// retire stops the dispatch loop when nothing is pending.
func (r *Renewer) retire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) != 0 {
		return false
	}
	r.dispatching = false
	return true
}

// drain discards everything still pending at shutdown.
func (r *Renewer) drain() {
	r.mu.Lock()
	tasks := r.pending
	r.pending = nil
	r.dispatching = false
	r.mu.Unlock()

	for _, t := range tasks {
		r.finish(t)
	}
}

// run executes one step of t. A single worker steps tasks inline so the
// only slot is never handed a sleeping task while the dispatch loop
// starves; larger pools run steps concurrently, bounded by the group
// limit or delegated to the caller's executor.
func (r *Renewer) run(t *task) {
	switch {
	case r.cfg.executor != nil:
		r.wg.Add(1)
		r.cfg.executor.Go(func() {
			defer r.wg.Done()
			r.step(t)
		})
	case r.cfg.workers == 1:
		r.step(t)
	default:
		r.pool.Go(func() error {
			r.step(t)
			return nil
		})
	}
}

// step runs one pass of the renewal loop for t: check, renew when close
// to expiry, sleep one poll interval, re-check, and re-enqueue when more
// renewal is needed.
func (r *Renewer) step(t *task) {
	switch r.checkpoint(t) {
	case outcomeClean:
		r.finish(t)
		return
	case outcomeExpired:
		r.expire(t)
		return
	case outcomeTimeout:
		r.timeout(t)
		return
	}

	if t.dueForRenewal(time.Now()) {
		if !r.renew(t) {
			return
		}
	}

	select {
	case <-r.closed:
		r.finish(t)
		return
	case <-time.After(r.cfg.pollInterval):
	}

	switch r.checkpoint(t) {
	case outcomeClean:
		r.finish(t)
	case outcomeExpired:
		r.expire(t)
	case outcomeTimeout:
		r.timeout(t)
	default:
		r.enqueue(t)
	}
}

// checkpoint is the synchronization point with application code: it
// observes settlement, receiver shutdown, and expiry performed outside
// the engine.
func (r *Renewer) checkpoint(t *task) outcome {
	if r.closing.Load() {
		return outcomeClean
	}
	// Sessions have no settlement concept, so the settled check applies
	// to messages only.
	if t.renewable.Kind() == KindMessage && t.renewable.Settled() {
		return outcomeClean
	}
	if t.receiver != nil && !t.receiver.Running() {
		return outcomeClean
	}
	if t.renewable.LockExpired() {
		return outcomeExpired
	}
	if time.Since(t.start) >= t.maxDuration {
		return outcomeTimeout
	}
	return outcomeContinue
}

// renew performs one renewal attempt and reports whether the task may
// continue. A failed attempt terminates the task before returning.
func (r *Renewer) renew(t *task) bool {
	started := time.Now()
	expiry, err := t.renewable.Renew(context.Background())
	r.cfg.metrics.renewDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		r.cfg.metrics.renewErrors.Inc()
		r.cfg.log.Warn("lock renewal failed",
			zap.String("task", t.id),
			zap.Error(err),
		)
		r.fail(t, &RenewFailedError{Cause: err})
		return false
	}

	r.cfg.metrics.renewals.Inc()
	r.cfg.log.Debug("lock renewed",
		zap.String("task", t.id),
		zap.Time("locked_until", expiry),
	)
	return true
}

// finish ends a task cleanly: settlement, receiver stop, or shutdown.
// No callback fires.
func (r *Renewer) finish(t *task) {
	r.cfg.metrics.tasks.Dec()
	r.cfg.log.Debug("renewal task finished",
		zap.String("task", t.id),
	)
}

// expire ends a task whose lock lapsed before settlement. The callback
// fires with a nil error: expiry is reported, not failed.
func (r *Renewer) expire(t *task) {
	r.cfg.metrics.tasks.Dec()
	r.cfg.metrics.expirations.Inc()
	r.cfg.log.Debug("lock expired before settlement",
		zap.String("task", t.id),
	)
	if t.onFailure != nil {
		t.onFailure(t.renewable, nil)
	}
}

// timeout ends a task whose renewal window elapsed before settlement.
func (r *Renewer) timeout(t *task) {
	r.cfg.metrics.timeouts.Inc()
	r.cfg.log.Warn("renewal window elapsed",
		zap.String("task", t.id),
		zap.Duration("max_duration", t.maxDuration),
	)
	r.fail(t, fmt.Errorf("%w after %s", ErrRenewTimeout, t.maxDuration))
}

// fail ends a task with a terminal error, recording it on the renewable
// and firing the callback.
func (r *Renewer) fail(t *task, err error) {
	r.cfg.metrics.tasks.Dec()
	t.renewable.SetRenewError(err)
	if t.onFailure != nil {
		t.onFailure(t.renewable, err)
	}
}

func notify[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
