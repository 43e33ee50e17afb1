// Package ephemeral runs keyed, cancellable delayed tasks and uses them to
// delete delivered messages after a while.
package ephemeral

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is the work run when a timer fires.
type Task func(ctx context.Context)

type entry struct {
	id       uint64
	timer    *time.Timer
	task     Task
	deadline time.Time
}

// Scheduler owns at most one live timer per key. Scheduling a key that
// already has a timer replaces it.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	logger  *slog.Logger
	now     func() time.Time
}

func NewScheduler(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
		logger:  log.With(slog.String("component", "ephemeral")),
		now:     time.Now,
	}
}

// Schedule runs task after delay under key and returns the deadline.
// An existing timer for key is cancelled first.
func (s *Scheduler) Schedule(key string, delay time.Duration, task Task) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return time.Time{}
	}
	if old, ok := s.entries[key]; ok {
		old.timer.Stop()
	}
	return s.startLocked(key, delay, task)
}

// CancelAndReschedule restarts the timer of key with a new delay, keeping its
// task. It reports false when key has no live timer.
func (s *Scheduler) CancelAndReschedule(key string, delay time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.entries[key]
	if !ok || s.stopped {
		return false
	}
	old.timer.Stop()
	s.startLocked(key, delay, old.task)
	return true
}

// Cancel drops the timer of key without running it.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.entries, key)
	return true
}

// Fire runs the task of key now, on the caller's goroutine, and removes it.
func (s *Scheduler) Fire(key string) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		e.timer.Stop()
		delete(s.entries, key)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.run(key, e.task)
	return true
}

// Pending returns the deadline of key's live timer.
func (s *Scheduler) Pending(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop cancels every timer without running it and logs how many were
// dropped. Tasks already running see a cancelled context.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	dropped := len(s.entries)
	for key, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, key)
	}
	s.cancel()
	if dropped > 0 {
		s.logger.Warn("scheduler stopped with pending tasks", slog.Int("dropped", dropped))
	}
}

func (s *Scheduler) startLocked(key string, delay time.Duration, task Task) time.Time {
	s.seq++
	id := s.seq
	deadline := s.now().Add(delay)
	e := &entry{id: id, task: task, deadline: deadline}
	e.timer = time.AfterFunc(delay, func() { s.expire(key, id) })
	s.entries[key] = e
	return deadline
}

// expire ignores timers that were replaced after they had already fired.
func (s *Scheduler) expire(key string, id uint64) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.id != id {
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	s.mu.Unlock()
	s.run(key, e.task)
}

func (s *Scheduler) run(key string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked", slog.String("key", key), slog.Any("panic", r))
		}
	}()
	task(s.ctx)
}
