// Package syncprim provides blocking coordination primitives for task
// bodies running on the pool: a reusable barrier, a FIFO counting
// semaphore, and a one-shot countdown latch. Each primitive owns its own
// lock and is independent of the pool. Every blocking call takes a timeout;
// a timeout <= 0 waits indefinitely.
package syncprim

import (
	"fmt"
	"sync"
	"time"
)

// Barrier is a rendezvous point for a fixed number of parties. Each
// generation runs from the first arrival to the release of all parties,
// after which the barrier resets and can be reused.
type Barrier struct {
	mu      sync.Mutex
	parties int
	arrived int
	gen     *generation
}

// generation carries the two terminal outcomes of one barrier cycle. Both
// channels are close-only broadcast signals.
type generation struct {
	release chan struct{}
	broken  chan struct{}
}

func newGeneration() *generation {
	return &generation{
		release: make(chan struct{}),
		broken:  make(chan struct{}),
	}
}

func NewBarrier(parties int) (*Barrier, error) {
	if parties < 1 {
		return nil, fmt.Errorf("%w: parties must be at least 1, got %d", ErrInvalidCount, parties)
	}
	return &Barrier{parties: parties, gen: newGeneration()}, nil
}

// Parties returns the number of participants expected per generation.
func (b *Barrier) Parties() int {
	return b.parties
}

// Wait blocks until all parties of the current generation have arrived; the
// last arrival releases everyone atomically and resets the barrier. A party
// that times out gets ErrTimeout and breaks the generation: every other
// waiter of that generation is released with ErrBrokenBarrier instead of
// hanging on an absent peer. The next Wait after a break joins a fresh
// generation.
func (b *Barrier) Wait(timeout time.Duration) error {
	b.mu.Lock()
	g := b.gen
	b.arrived++
	if b.arrived == b.parties {
		close(g.release)
		b.reset()
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	if timeout <= 0 {
		select {
		case <-g.release:
			return nil
		case <-g.broken:
			return ErrBrokenBarrier
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-g.release:
		return nil
	case <-g.broken:
		return ErrBrokenBarrier
	case <-timer.C:
		return b.abort(g, timeout)
	}
}

// abort resolves the race between the deadline and a concurrent release or
// break of the same generation: a completed generation wins, an existing
// break wins, otherwise this party breaks the generation itself.
func (b *Barrier) abort(g *generation, timeout time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-g.release:
		return nil
	case <-g.broken:
		return ErrBrokenBarrier
	default:
	}

	close(g.broken)
	if b.gen == g {
		b.reset()
	}
	return fmt.Errorf("%w: barrier not full after %s", ErrTimeout, timeout)
}

func (b *Barrier) reset() {
	b.arrived = 0
	b.gen = newGeneration()
}
