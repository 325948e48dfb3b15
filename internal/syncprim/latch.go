package syncprim

import (
	"fmt"
	"sync"
	"time"
)

// Latch is a one-shot countdown gate: once the count reaches zero every
// waiter is released and the latch never resets.
type Latch struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
}

func NewLatch(count int) (*Latch, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: count must not be negative, got %d", ErrInvalidCount, count)
	}
	l := &Latch{count: count, done: make(chan struct{})}
	if count == 0 {
		close(l.done)
	}
	return l, nil
}

// CountDown decrements the count. The call that reaches zero wakes every
// blocked waiter; further calls are no-ops, not errors.
func (l *Latch) CountDown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 {
		return
	}
	l.count--
	if l.count == 0 {
		close(l.done)
	}
}

// Wait blocks until the count reaches zero. Returns immediately if it
// already has.
func (l *Latch) Wait(timeout time.Duration) error {
	if timeout <= 0 {
		<-l.done
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-l.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: latch count still %d after %s", ErrTimeout, l.Count(), timeout)
	}
}

// Count returns the remaining count.
func (l *Latch) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
