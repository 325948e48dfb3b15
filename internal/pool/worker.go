package pool

import (
	"fmt"

	"go.uber.org/zap"
)

// SlotInfo is a snapshot of one worker slot. An idle slot is a slot
// property, not a task state: the visualization layer renders it as IDLE.
type SlotInfo struct {
	SlotID int    `json:"slot_id"`
	Name   string `json:"name"`
	Busy   bool   `json:"busy"`
	TaskID string `json:"task_id,omitempty"`
}

// slot owns exactly one goroutine for the manager's lifetime and executes
// one task record at a time.
type slot struct {
	id   int
	name string
	mgr  *Manager
}

func (s *slot) run() {
	defer s.mgr.wg.Done()

	for {
		rec, ok := s.mgr.next(s.id)
		if !ok {
			s.mgr.logger.Debug("worker stopping", zap.String("worker", s.name))
			return
		}
		s.invoke(rec)
		s.mgr.release(s.id)
	}
}

func (s *slot) invoke(rec *record) {
	rec.start()
	s.mgr.logger.Debug("task started",
		zap.String("worker", s.name),
		zap.String("task_id", rec.id))

	result, err := s.call(rec)
	rec.finish(result, err)

	if err != nil {
		s.mgr.failed.Add(1)
		s.mgr.logger.Error("task failed",
			zap.String("worker", s.name),
			zap.String("task_id", rec.id),
			zap.Error(err))
		return
	}
	s.mgr.completed.Add(1)
	s.mgr.logger.Debug("task completed",
		zap.String("worker", s.name),
		zap.String("task_id", rec.id))
}

// call runs the task body. Panics are captured here at the slot boundary so
// a misbehaving task ends up in StateError instead of killing the worker.
func (s *slot) call(rec *record) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return rec.fn(s.mgr.ctx, rec.setProgress)
}
