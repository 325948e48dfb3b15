// Package pool implements a bounded thread-pool manager: callers submit
// units of work, the pool dispatches them FIFO onto a fixed set of worker
// slots and keeps a registry of per-task lifecycle records that can be
// queried, waited on, and drained at shutdown.
package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"go.uber.org/zap"
)

// Options configures a Manager.
type Options struct {
	// MaxWorkers is the number of worker slots. Zero picks a
	// platform-derived default (runtime.NumCPU); negative is rejected.
	MaxWorkers int

	// NamePrefix names the worker slots ("<prefix>-0", "<prefix>-1", ...).
	NamePrefix string

	Logger *zap.Logger
}

// Stats is a point-in-time view of pool counters.
type Stats struct {
	MaxWorkers   int           `json:"max_workers"`
	Submitted    int64         `json:"submitted"`
	Completed    int64         `json:"completed"`
	Failed       int64         `json:"failed"`
	QueueLength  int           `json:"queue_length"`
	Running      int           `json:"running"`
	Uptime       time.Duration `json:"-"`
	ShuttingDown bool          `json:"shutting_down"`
}

// Manager is the thread-pool façade. The mutex guards the registry, the
// pending queue, the slot table and the lifecycle flags; it is held only
// for the duration of a mutation, never across a blocking wait.
type Manager struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   map[string]*record
	order   []string
	pending *queue.Queue
	slots   []SlotInfo

	stopping bool
	drain    bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	startTime time.Time
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// New creates the manager and eagerly starts its worker slots.
func New(opts Options) (*Manager, error) {
	workers := opts.MaxWorkers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		return nil, fmt.Errorf("%w: max workers must be at least 1, got %d", ErrInvalidConfig, opts.MaxWorkers)
	}

	prefix := opts.NamePrefix
	if prefix == "" {
		prefix = "worker"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		tasks:     make(map[string]*record),
		pending:   queue.New(),
		slots:     make([]SlotInfo, workers),
		logger:    logger,
		startTime: time.Now(),
	}
	m.cond = sync.NewCond(&m.mu)
	m.ctx, m.cancel = context.WithCancel(context.Background())

	for i := 0; i < workers; i++ {
		s := &slot{id: i, name: fmt.Sprintf("%s-%d", prefix, i), mgr: m}
		m.slots[i] = SlotInfo{SlotID: i, Name: s.name}
		m.wg.Add(1)
		go s.run()
	}

	logger.Debug("pool started",
		zap.Int("workers", workers),
		zap.String("prefix", prefix))
	return m, nil
}

// Scope creates a manager, runs fn with it, and guarantees a draining
// shutdown on every exit path, panics included.
func Scope(opts Options, fn func(*Manager) error) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	defer m.Shutdown(true)
	return fn(m)
}

// Submit registers fn as a pending task and returns its id without ever
// blocking: if every slot is busy the task waits in a FIFO queue.
func (m *Manager) Submit(fn TaskFunc) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("%w: task function must not be nil", ErrInvalidConfig)
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return "", ErrShutdown
	}
	rec := newRecord(fn)
	m.tasks[rec.id] = rec
	m.order = append(m.order, rec.id)
	m.pending.Add(rec)
	m.cond.Signal()
	m.mu.Unlock()

	m.submitted.Add(1)
	m.logger.Debug("task submitted", zap.String("task_id", rec.id))
	return rec.id, nil
}

// Task returns a snapshot of one record.
func (m *Manager) Task(id string) (TaskInfo, error) {
	m.mu.Lock()
	rec, ok := m.tasks[id]
	m.mu.Unlock()
	if !ok {
		return TaskInfo{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return rec.snapshot(), nil
}

// ActiveTasks returns snapshots of every currently running task.
func (m *Manager) ActiveTasks() []TaskInfo {
	active := make([]TaskInfo, 0)
	for _, rec := range m.records() {
		if info := rec.snapshot(); info.State == StateRunning {
			active = append(active, info)
		}
	}
	return active
}

// Tasks returns snapshots of every record in submission order.
func (m *Manager) Tasks() []TaskInfo {
	recs := m.records()
	infos := make([]TaskInfo, 0, len(recs))
	for _, rec := range recs {
		infos = append(infos, rec.snapshot())
	}
	return infos
}

// Slots returns the busy/idle state of each worker slot.
func (m *Manager) Slots() []SlotInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SlotInfo, len(m.slots))
	copy(out, m.slots)
	return out
}

// Wait blocks until the task reaches a terminal state. A timeout <= 0 waits
// indefinitely. Waiting on an already-finished task returns immediately.
func (m *Manager) Wait(id string, timeout time.Duration) error {
	m.mu.Lock()
	rec, ok := m.tasks[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	if timeout <= 0 {
		<-rec.done
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-rec.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: task %s not finished after %s", ErrTimeout, id, timeout)
	}
}

// Shutdown stops intake. With wait the queue is drained and the call blocks
// until every worker has exited; without it workers stop after their current
// task and abandoned pending records stay pending. Running tasks are never
// preempted, though the non-draining path cancels the task context so
// cooperative bodies can bail out early. Safe to call more than once.
func (m *Manager) Shutdown(wait bool) {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		if wait {
			m.wg.Wait()
		}
		return
	}
	m.stopping = true
	m.drain = wait
	m.cond.Broadcast()
	m.mu.Unlock()

	m.logger.Info("pool shutting down", zap.Bool("wait", wait))
	if wait {
		m.wg.Wait()
		m.cancel()
		return
	}
	m.cancel()
}

// Stats returns current pool counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	running := 0
	for _, s := range m.slots {
		if s.Busy {
			running++
		}
	}
	st := Stats{
		MaxWorkers:   len(m.slots),
		QueueLength:  m.pending.Length(),
		Running:      running,
		ShuttingDown: m.stopping,
	}
	m.mu.Unlock()

	st.Submitted = m.submitted.Load()
	st.Completed = m.completed.Load()
	st.Failed = m.failed.Load()
	st.Uptime = time.Since(m.startTime)
	return st
}

// records copies the registry in submission order so snapshots can be taken
// without holding the manager lock.
func (m *Manager) records() []*record {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := make([]*record, 0, len(m.order))
	for _, id := range m.order {
		recs = append(recs, m.tasks[id])
	}
	return recs
}

// next hands the oldest pending task to the slot, blocking until work
// arrives or the pool stops. The second return is false when the slot
// should exit.
func (m *Manager) next(slotID int) (*record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		if m.stopping && (!m.drain || m.pending.Length() == 0) {
			return nil, false
		}
		if m.pending.Length() > 0 {
			rec := m.pending.Remove().(*record)
			m.slots[slotID].Busy = true
			m.slots[slotID].TaskID = rec.id
			return rec, true
		}
		m.cond.Wait()
	}
}

func (m *Manager) release(slotID int) {
	m.mu.Lock()
	m.slots[slotID].Busy = false
	m.slots[slotID].TaskID = ""
	m.mu.Unlock()
}
