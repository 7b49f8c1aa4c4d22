// Package sched runs deferred store mutations. Tasks are keyed by fire
// instant in a min-heap drained by a single driver goroutine that sleeps
// until the earliest deadline and wakes when earlier work arrives; there
// is no polling. Each task performs one atomic store mutation, so readers
// never observe partial effects.
package sched

import (
	"container/heap"
	"sync"
	"time"

	"teamline/pkg/logger"
)

type task struct {
	at  time.Time
	seq uint64 // insertion order breaks fire-time ties
	fn  func()
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h taskHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x interface{}) { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Scheduler owns the pending-task heap and its driver goroutine.
type Scheduler struct {
	mu   sync.Mutex
	h    taskHeap
	seq  uint64
	wake chan struct{}
	done chan struct{}
	once sync.Once
}

// New starts a scheduler with a running driver loop.
func New() *Scheduler {
	s := &Scheduler{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

// Schedule enqueues fn to run at the given instant. Instants in the past
// fire on the next driver pass. There is no cancellation of individual
// tasks; once scheduled, a task fires exactly once (or is dropped as a
// whole by Reset).
func (s *Scheduler) Schedule(at time.Time, fn func()) {
	s.mu.Lock()
	s.seq++
	heap.Push(&s.h, &task{at: at, seq: s.seq, fn: fn})
	s.mu.Unlock()
	s.poke()
}

// Pending reports the number of tasks not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.h)
}

// Reset drops all pending tasks. Only the workspace clear operation uses
// this; there is no per-task retraction API.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.h = nil
	s.mu.Unlock()
	s.poke()
}

// Stop terminates the driver loop. Pending tasks do not fire.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		s.mu.Lock()
		var wait time.Duration = -1
		now := time.Now()
		var ready []*task
		for len(s.h) > 0 && !s.h[0].at.After(now) {
			ready = append(ready, heap.Pop(&s.h).(*task))
		}
		if len(s.h) > 0 {
			wait = s.h[0].at.Sub(now)
		}
		s.mu.Unlock()

		for _, t := range ready {
			s.fire(t)
		}
		if len(ready) > 0 {
			continue
		}

		if wait < 0 {
			select {
			case <-s.wake:
			case <-s.done:
				return
			}
			continue
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)
		select {
		case <-timer.C:
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}

// fire runs one task, containing panics: deferred work performs no
// external I/O and cannot fail post-validation, so anything thrown here
// is a bug worth a loud log rather than a crashed driver.
func (s *Scheduler) fire(t *task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scheduled_task_panic", "panic", r)
		}
	}()
	t.fn()
}
