package syncprim

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
)

const (
	waiterPending int32 = iota
	waiterGranted
	waiterAbandoned
)

// Semaphore is a counting permit primitive. Blocked acquirers are served in
// strict arrival order, so no caller starves.
//
// Release may be called more times than Acquire: permits beyond the initial
// value are injected rather than rejected. This mirrors the permissive
// behavior of the system this was modeled on; treat it as pool growth, not
// as a balanced lock.
type Semaphore struct {
	mu      sync.Mutex
	permits int
	waiters *queue.Queue
}

// waiter is one blocked Acquire call. The state field settles the race
// between a grant and a timeout exactly once.
type waiter struct {
	ready chan struct{}
	state atomic.Int32
}

func NewSemaphore(value int) (*Semaphore, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: initial value must not be negative, got %d", ErrInvalidCount, value)
	}
	return &Semaphore{permits: value, waiters: queue.New()}, nil
}

// Acquire takes a permit, blocking behind earlier arrivals when none is
// free. The returned Permit restores the permit via Release, which is safe
// to defer and call on every exit path.
func (s *Semaphore) Acquire(timeout time.Duration) (*Permit, error) {
	s.mu.Lock()
	if s.permits > 0 && s.waiters.Length() == 0 {
		s.permits--
		s.mu.Unlock()
		return &Permit{sem: s}, nil
	}
	w := &waiter{ready: make(chan struct{})}
	s.waiters.Add(w)
	s.mu.Unlock()

	if timeout <= 0 {
		<-w.ready
		return &Permit{sem: s}, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-w.ready:
		return &Permit{sem: s}, nil
	case <-timer.C:
		if w.state.CompareAndSwap(waiterPending, waiterAbandoned) {
			return nil, fmt.Errorf("%w: no permit within %s", ErrTimeout, timeout)
		}
		// A grant beat the deadline; accept it.
		<-w.ready
		return &Permit{sem: s}, nil
	}
}

// TryAcquire takes a permit only if one is free and nobody is queued ahead.
func (s *Semaphore) TryAcquire() (*Permit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.permits > 0 && s.waiters.Length() == 0 {
		s.permits--
		return &Permit{sem: s}, true
	}
	return nil, false
}

// Release returns a permit and hands it to the oldest live waiter, if any.
func (s *Semaphore) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.permits++
	for s.permits > 0 && s.waiters.Length() > 0 {
		w := s.waiters.Remove().(*waiter)
		if w.state.CompareAndSwap(waiterPending, waiterGranted) {
			s.permits--
			close(w.ready)
		}
		// Abandoned waiters are dropped and the permit stays available.
	}
}

// Available returns the number of free permits.
func (s *Semaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permits
}

// Waiting returns the number of queued acquirers.
func (s *Semaphore) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiters.Length()
}

// Permit is a scoped acquisition handle. Release is idempotent, so it can
// be deferred and also called explicitly without double-counting.
type Permit struct {
	sem  *Semaphore
	once sync.Once
}

func (p *Permit) Release() {
	p.once.Do(func() { p.sem.Release() })
}
