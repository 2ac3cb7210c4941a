package relock

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// FailureFunc is invoked when a renewal task ends for any reason other
// than settlement, receiver stop, or shutdown. err is nil when the lock
// silently expired, wraps [ErrRenewTimeout] when the renewal window
// elapsed, and is a [*RenewFailedError] when a renew call failed.
type FailureFunc = func(renewable Renewable, err error)

// Executor runs renewal steps on a caller-owned pool. Every submitted fn
// terminates on its own; implementations only need to run it eventually.
type Executor interface {
	Go(fn func())
}

type Option = func(*config)

// WithMaxDuration sets how long a lock is renewed before the task gives
// up with a timeout failure.
func WithMaxDuration(d time.Duration) Option {
	if d <= 0 {
		panic("max duration can't be <= 0")
	}
	return func(c *config) {
		c.maxDuration = d
	}
}

// WithOnFailure sets the default failure callback for all registrations.
func WithOnFailure(fn FailureFunc) Option {
	if fn == nil {
		panic("failure func can't be nil")
	}
	return func(c *config) {
		c.onFailure = fn
	}
}

// WithMaxWorkers bounds how many renewal steps run concurrently.
// Mutually exclusive with WithExecutor.
func WithMaxWorkers(workers int) Option {
	if workers < 1 {
		panic("workers can't be < 1")
	}
	return func(c *config) {
		c.workers = workers
		c.workersSet = true
	}
}

// WithExecutor hands renewal steps to a caller-owned pool instead of the
// renewer's own. Mutually exclusive with WithMaxWorkers.
func WithExecutor(executor Executor) Option {
	if executor == nil {
		panic("executor can't be nil")
	}
	return func(c *config) {
		c.executor = executor
	}
}

// WithLeadTime sets how far before lock expiry a renewal is attempted.
func WithLeadTime(d time.Duration) Option {
	if d <= 0 {
		panic("lead time can't be <= 0")
	}
	return func(c *config) {
		c.leadTime = d
	}
}

// WithPollInterval sets the sleep between renewal checks. Polling is
// deliberately coarse: lock expiries can be extended externally, so an
// exact timer would fight spurious wakeups.
func WithPollInterval(d time.Duration) Option {
	if d <= 0 {
		panic("poll interval can't be <= 0")
	}
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithIdleTimeout sets how long the dispatch loop lingers with nothing
// pending before it stops. The next Register re-arms it.
func WithIdleTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("idle timeout can't be <= 0")
	}
	return func(c *config) {
		c.idleTimeout = d
	}
}

func WithLogger(log *zap.Logger) Option {
	if log == nil {
		panic("logger can't be nil")
	}
	return func(c *config) {
		c.log = log
	}
}

// WithPrometheus registers the renewer's metrics with registerer. If
// registerer is nil, metrics are collected but not registered.
func WithPrometheus(registerer prometheus.Registerer, namespace, subsystem string) Option {
	return func(c *config) {
		c.metrics = newMetrics(registerer, namespace, subsystem)
	}
}

type config struct {
	maxDuration  time.Duration
	onFailure    FailureFunc
	workers      int
	workersSet   bool
	executor     Executor
	leadTime     time.Duration
	pollInterval time.Duration
	idleTimeout  time.Duration
	log          *zap.Logger
	metrics      *metrics
}

func newConfig(options ...Option) *config {
	options = append([]Option{
		WithMaxDuration(5 * time.Minute),
		WithLeadTime(10 * time.Second),
		WithPollInterval(500 * time.Millisecond),
		WithIdleTimeout(5 * time.Second),
		WithLogger(zap.NewNop()),
		WithPrometheus(nil, "namespace", "subsystem"),
	}, options...)

	cfg := config{workers: 1}
	for _, opt := range options {
		opt(&cfg)
	}

	if cfg.executor != nil && cfg.workersSet {
		panic("executor and max workers are mutually exclusive")
	}

	return &cfg
}

// TaskOption overrides instance defaults for a single registration.
type TaskOption = func(*task)

func TaskMaxDuration(d time.Duration) TaskOption {
	if d <= 0 {
		panic("max duration can't be <= 0")
	}
	return func(t *task) {
		t.maxDuration = d
	}
}

func TaskOnFailure(fn FailureFunc) TaskOption {
	if fn == nil {
		panic("failure func can't be nil")
	}
	return func(t *task) {
		t.onFailure = fn
	}
}
