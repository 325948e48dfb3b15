package pool

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type TaskState string

const (
	StatePending    TaskState = "pending"
	StateRunning    TaskState = "running"
	StateTerminated TaskState = "terminated"
	StateError      TaskState = "error"
)

// TaskFunc is the unit of work submitted to the pool. Arbitrary inputs are
// captured by closure. The context is cancelled when the manager shuts down
// without draining; tasks that want early abort should watch it. The report
// callback may be called to publish completion percentage, or ignored.
type TaskFunc func(ctx context.Context, report ProgressFunc) (any, error)

// ProgressFunc publishes a completion percentage in [0,100]. Values outside
// the range are clamped and regressions are dropped, so progress only ever
// moves forward.
type ProgressFunc func(percent int)

// TaskInfo is an immutable snapshot of one submitted task. It never aliases
// live pool state, so a caller holding one cannot observe a torn update.
type TaskInfo struct {
	ID         string     `json:"id"`
	State      TaskState  `json:"state"`
	Progress   int        `json:"progress"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Terminal reports whether the task has finished, successfully or not.
func (t TaskInfo) Terminal() bool {
	return t.State == StateTerminated || t.State == StateError
}

// record is the live, mutable counterpart of TaskInfo. Only the worker slot
// that dequeued it mutates state; everyone else reads through snapshot().
type record struct {
	mu         sync.Mutex
	id         string
	fn         TaskFunc
	state      TaskState
	progress   int
	result     any
	err        error
	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
	done       chan struct{}
}

func newRecord(fn TaskFunc) *record {
	return &record{
		id:        uuid.NewString(),
		fn:        fn,
		state:     StatePending,
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
}

func (r *record) start() {
	r.mu.Lock()
	r.state = StateRunning
	r.startedAt = time.Now()
	r.mu.Unlock()
}

func (r *record) finish(result any, err error) {
	r.mu.Lock()
	if err != nil {
		r.state = StateError
		r.err = err
	} else {
		r.state = StateTerminated
		r.result = result
	}
	r.finishedAt = time.Now()
	r.mu.Unlock()
	close(r.done)
}

func (r *record) setProgress(percent int) {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	r.mu.Lock()
	if r.state == StateRunning && percent > r.progress {
		r.progress = percent
	}
	r.mu.Unlock()
}

func (r *record) snapshot() TaskInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := TaskInfo{
		ID:        r.id,
		State:     r.state,
		Progress:  r.progress,
		Result:    r.result,
		CreatedAt: r.createdAt,
	}
	if r.err != nil {
		info.Error = r.err.Error()
	}
	if !r.startedAt.IsZero() {
		started := r.startedAt
		info.StartedAt = &started
	}
	if !r.finishedAt.IsZero() {
		finished := r.finishedAt
		info.FinishedAt = &finished
	}
	return info
}
