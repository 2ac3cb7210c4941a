// Package relock renews locks on received messages and sessions in the
// background until they settle, expire, or their renewal window
// elapses.
//
// A [Renewer] owns a lazily-started dispatch loop and a bounded worker
// pool. Registered renewables are polled on a coarse interval and
// renewed shortly before their lock expires; terminal outcomes other
// than settlement and shutdown are reported through an optional failure
// callback.
package relock

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Locks already within the lead time of expiry get a shorter,
// proportional lead time so the renewal still lands inside the remaining
// window.
const (
	leadTimeShortOffset = 500 * time.Millisecond
	leadTimeScale       = 0.75
)

// Renewer keeps registered locks alive until they settle, expire, time
// out, or the renewer closes.
type Renewer struct {
	cfg *config

	closing *atomic.Bool
	closed  chan struct{}

	mu          sync.Mutex
	pending     []*task
	dispatching bool

	wake chan struct{}

	pool *errgroup.Group
	wg   sync.WaitGroup
}

func New(options ...Option) *Renewer {
	cfg := newConfig(options...)

	pool := new(errgroup.Group)
	pool.SetLimit(cfg.workers)

	return &Renewer{
		cfg:     cfg,
		closing: new(atomic.Bool),
		closed:  make(chan struct{}),
		wake:    make(chan struct{}, 1),
		pool:    pool,
	}
}

// Register starts background renewal for renewable. It returns
// synchronously: steady-state failures are delivered only through the
// failure callback and Renewable.SetRenewError.
func (r *Renewer) Register(receiver Receiver, renewable Renewable, options ...TaskOption) error {
	if r.closing.Load() {
		return ErrClosed
	}

	switch renewable.Kind() {
	case KindMessage, KindSession:
	default:
		return ErrUnknownKind
	}

	expiry, ok := renewable.LockedUntil()
	if !ok {
		return ErrNotLockable
	}

	t := &task{
		id:          uuid.NewString(),
		renewable:   renewable,
		receiver:    receiver,
		start:       renewable.StartedAt(),
		maxDuration: r.cfg.maxDuration,
		leadTime:    r.cfg.leadTime,
		onFailure:   r.cfg.onFailure,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.start.IsZero() {
		t.start = time.Now()
	}

	if until := time.Until(expiry); until <= t.leadTime+leadTimeShortOffset {
		t.leadTime = time.Duration(float64(until) * leadTimeScale)
	}

	r.cfg.log.Debug("renewal task registered",
		zap.String("task", t.id),
		zap.Stringer("kind", renewable.Kind()),
		zap.Time("locked_until", expiry),
		zap.Duration("max_duration", t.maxDuration),
		zap.Duration("lead_time", t.leadTime),
	)
	r.cfg.metrics.tasks.Inc()

	r.enqueue(t)
	return nil
}

// Close shuts the renewer down and waits until the dispatch loop and all
// in-flight renewal steps have observed the shutdown. After Close
// returns, no renew call is issued and no failure callback fires.
// In-flight renew calls are not aborted, only waited for.
func (r *Renewer) Close() error {
	if !r.shutdown() {
		return ErrClosed
	}

	r.wg.Wait()
	// Workers never return errors; Wait only fences their completion.
	_ = r.pool.Wait()
	return nil
}

// Stop is Close without the wait: it refuses further registrations and
// lets in-flight steps stand down at their next checkpoint.
func (r *Renewer) Stop() {
	r.shutdown()
}

// shutdown flips the lifecycle flag under the queue lock, so an enqueue
// either finished starting the dispatch loop before the flip or will
// observe it. Reports false when the renewer was already shut down.
func (r *Renewer) shutdown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closing.Swap(true) {
		return false
	}
	close(r.closed)
	notify(r.wake, struct{}{})
	return true
}
