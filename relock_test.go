package relock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/teenjuna/relock"
)

func run(t *testing.T, fn func(t *testing.T)) {
	t.Helper()
	synctest.Test(t, fn)
}

func deferClose(t *testing.T, r *relock.Renewer) {
	t.Cleanup(func() {
		if err := r.Close(); err != nil && !errors.Is(err, relock.ErrClosed) {
			t.Fatalf("close renewer: %v", err)
		}
	})
}

// mockRenewable implements both the message and session variants. An
// extendBy of zero makes Renew succeed without moving the expiry, so
// the lock lapses as if renewals were silently ineffective.
type mockRenewable struct {
	mu sync.Mutex

	kind        relock.Kind
	lockable    bool
	lockedUntil time.Time
	started     time.Time
	settled     bool
	renewErr    error
	extendBy    time.Duration

	renews   int
	recorded error

	panicOnSettled bool
}

func newMockMessage(lockFor time.Duration) *mockRenewable {
	return &mockRenewable{
		kind:        relock.KindMessage,
		lockable:    true,
		lockedUntil: time.Now().Add(lockFor),
	}
}

func newMockSession(lockFor time.Duration) *mockRenewable {
	return &mockRenewable{
		kind:        relock.KindSession,
		lockable:    true,
		lockedUntil: time.Now().Add(lockFor),

		// Sessions have no settlement; the engine must never ask.
		panicOnSettled: true,
	}
}

func (m *mockRenewable) Kind() relock.Kind {
	return m.kind
}

func (m *mockRenewable) LockedUntil() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lockedUntil, m.lockable
}

func (m *mockRenewable) StartedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *mockRenewable) Settled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOnSettled {
		panic("settlement consulted for a session")
	}
	return m.settled
}

func (m *mockRenewable) LockExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Now().After(m.lockedUntil)
}

func (m *mockRenewable) Renew(context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renews++
	if m.renewErr != nil {
		return time.Time{}, m.renewErr
	}
	if m.extendBy > 0 {
		m.lockedUntil = time.Now().Add(m.extendBy)
	}
	return m.lockedUntil, nil
}

func (m *mockRenewable) SetRenewError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = err
}

func (m *mockRenewable) settle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settled = true
}

func (m *mockRenewable) renewCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renews
}

func (m *mockRenewable) renewError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recorded
}

type mockReceiver struct {
	mu      sync.Mutex
	stopped bool
}

func (r *mockReceiver) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.stopped
}

func (r *mockReceiver) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
}

// failures records callback invocations from dispatcher goroutines.
type failures struct {
	mu         sync.Mutex
	renewables []relock.Renewable
	errs       []error
}

func (f *failures) callback(r relock.Renewable, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renewables = append(f.renewables, r)
	f.errs = append(f.errs, err)
}

func (f *failures) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errs)
}

func (f *failures) err(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[i]
}

func (f *failures) renewable(i int) relock.Renewable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renewables[i]
}

type goExecutor struct{}

func (goExecutor) Go(fn func()) {
	go fn()
}
