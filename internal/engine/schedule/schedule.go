// Package schedule runs delayed and repeating callbacks on the caller's
// goroutine. Nothing fires until Advance is called, so callbacks share the
// single thread of control that drives the host frame loop.
package schedule

import (
	"errors"
	"time"
)

// ErrClosed is returned when scheduling on a closed scheduler.
var ErrClosed = errors.New("scheduler closed")

// Task is a scheduled callback.
type Task struct {
	s         *Scheduler
	seq       uint64
	due       time.Time
	interval  time.Duration // zero for one-shot tasks
	fn        func()
	cancelled bool
}

// Cancel stops the task. Cancelling twice, or after a one-shot task has
// run, does nothing.
func (t *Task) Cancel() {
	if t == nil || t.cancelled {
		return
	}
	t.cancelled = true
	t.s.remove(t)
}

// Active reports whether the task will still fire.
func (t *Task) Active() bool {
	return t != nil && !t.cancelled
}

// Due returns the next time the task fires.
func (t *Task) Due() time.Time {
	return t.due
}

// Scheduler holds pending tasks ordered by due time.
type Scheduler struct {
	now    time.Time
	seq    uint64
	tasks  []*Task
	closed bool
}

// New creates a scheduler whose clock starts at start.
func New(start time.Time) *Scheduler {
	return &Scheduler{now: start}
}

// Now returns the scheduler clock: the last Advance time, or the due time
// of the task currently running.
func (s *Scheduler) Now() time.Time {
	return s.now
}

// After runs fn once, delay after the current clock.
func (s *Scheduler) After(delay time.Duration, fn func()) (*Task, error) {
	return s.add(delay, 0, fn)
}

// Every runs fn each interval, starting one interval from now.
func (s *Scheduler) Every(interval time.Duration, fn func()) (*Task, error) {
	if interval <= 0 {
		return nil, errors.New("schedule: interval must be positive")
	}
	return s.add(interval, interval, fn)
}

func (s *Scheduler) add(delay, interval time.Duration, fn func()) (*Task, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if delay < 0 {
		delay = 0
	}
	s.seq++
	t := &Task{
		s:        s,
		seq:      s.seq,
		due:      s.now.Add(delay),
		interval: interval,
		fn:       fn,
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

func (s *Scheduler) remove(t *Task) {
	for i, other := range s.tasks {
		if other == t {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

// next returns the earliest task due at or before now. Ties run in the
// order they were scheduled.
func (s *Scheduler) next(now time.Time) *Task {
	var best *Task
	for _, t := range s.tasks {
		if t.due.After(now) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// Advance moves the clock to now and runs every task that came due, in due
// order. A repeating task that fell behind runs once per missed interval.
// It returns the number of callbacks run.
func (s *Scheduler) Advance(now time.Time) int {
	if s.closed {
		return 0
	}
	ran := 0
	for {
		t := s.next(now)
		if t == nil {
			break
		}
		if t.due.After(s.now) {
			s.now = t.due
		}
		if t.interval > 0 {
			t.due = t.due.Add(t.interval)
			s.seq++
			t.seq = s.seq
		} else {
			t.cancelled = true
			s.remove(t)
		}
		t.fn()
		ran++
		if s.closed {
			return ran
		}
	}
	if now.After(s.now) {
		s.now = now
	}
	return ran
}

// Pending returns the number of scheduled tasks.
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}

// Close cancels every task. Later calls to After and Every fail.
func (s *Scheduler) Close() {
	for _, t := range s.tasks {
		t.cancelled = true
	}
	s.tasks = nil
	s.closed = true
}
