// Package scheduler provides a cooperative, priority-ordered task scheduler.
//
// Tasks are callbacks tagged with one of five priorities. Each priority maps
// to a timeout; a task's expiration time is its schedule time plus that
// timeout and the queue is ordered by expiration. The scheduler runs tasks in
// slices: between tasks it checks whether the current slice is used up and, if
// so, yields back to the host loop unless the next task has already expired.
//
// A callback may return a continuation. The continuation stays in the queue in
// place of the original callback, which is how a long render resumes on a
// later slice.
//
// Microtasks queued with QueueMicrotask are drained before each slice and
// after every task, the same ordering an event loop gives them.
package scheduler

import (
	"container/heap"
	"context"
	"math"
	"sync"
	"time"
)

// Priority identifies how urgently a task must run.
type Priority int

const (
	NoPriority Priority = iota
	ImmediatePriority
	UserBlockingPriority
	NormalPriority
	LowPriority
	IdlePriority
)

func (p Priority) String() string {
	switch p {
	case ImmediatePriority:
		return "immediate"
	case UserBlockingPriority:
		return "user-blocking"
	case NormalPriority:
		return "normal"
	case LowPriority:
		return "low"
	case IdlePriority:
		return "idle"
	default:
		return "none"
	}
}

// Timeout returns how long a task at priority p may wait before it expires.
func (p Priority) Timeout() time.Duration {
	switch p {
	case ImmediatePriority:
		return -time.Millisecond
	case UserBlockingPriority:
		return 250 * time.Millisecond
	case LowPriority:
		return 10 * time.Second
	case IdlePriority:
		return time.Duration(math.MaxInt64)
	default:
		return 5 * time.Second
	}
}

// DefaultTimeSlice is the length of a slice when Options.TimeSlice is zero.
const DefaultTimeSlice = 5 * time.Millisecond

// Callback is a unit of scheduled work. didTimeout reports whether the task
// expired before it ran; an expired task should finish without yielding. A
// non-nil return value is a continuation that replaces the callback.
type Callback func(didTimeout bool) Callback

// Task is a handle to a scheduled callback.
type Task struct {
	id         uint64
	callback   Callback
	cancelled  bool
	priority   Priority
	start      time.Time
	expiration time.Time
	index      int
}

// Priority returns the priority the task was scheduled at.
func (t *Task) Priority() Priority {
	return t.priority
}

// Cancelled reports whether Cancel was called on the task.
func (t *Task) Cancelled() bool {
	return t.cancelled
}

// Options configures a Scheduler.
type Options struct {
	// Clock defaults to the system clock.
	Clock Clock
	// TimeSlice defaults to DefaultTimeSlice.
	TimeSlice time.Duration
}

// Scheduler is a cooperative task scheduler. Schedule, Cancel and
// QueueMicrotask are safe to call from any goroutine; tasks run on the
// goroutine that calls RunSlice, RunUntilIdle or Run.
type Scheduler struct {
	clock     Clock
	timeSlice time.Duration

	mu         sync.Mutex
	queue      taskHeap
	nextID     uint64
	microtasks []func()
	wake       chan struct{}

	sliceStart time.Time
	current    *Task
}

// New creates a Scheduler.
func New(opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.TimeSlice <= 0 {
		opts.TimeSlice = DefaultTimeSlice
	}
	return &Scheduler{
		clock:     opts.Clock,
		timeSlice: opts.TimeSlice,
		wake:      make(chan struct{}, 1),
	}
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Schedule queues cb at priority p and returns a handle that can cancel it.
func (s *Scheduler) Schedule(p Priority, cb Callback) *Task {
	if p == NoPriority {
		p = NormalPriority
	}
	now := s.clock.Now()
	task := &Task{
		callback: cb,
		priority: p,
		start:    now,
	}
	task.expiration = now.Add(p.Timeout())

	s.mu.Lock()
	s.nextID++
	task.id = s.nextID
	heap.Push(&s.queue, task)
	s.mu.Unlock()

	s.signal()
	return task
}

// Cancel drops a task before it runs. Cancelling a task that already ran, or
// one that is currently running, only prevents its continuation.
func (s *Scheduler) Cancel(t *Task) {
	if t == nil {
		return
	}
	s.mu.Lock()
	t.cancelled = true
	t.callback = nil
	s.mu.Unlock()
}

// FirstScheduled returns the task that would run next, or nil.
func (s *Scheduler) FirstScheduled() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peekLocked()
}

// Current returns the task being run, or nil outside a callback.
func (s *Scheduler) Current() *Task {
	return s.current
}

// Pending returns the number of live tasks in the queue.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.queue {
		if t.callback != nil {
			n++
		}
	}
	return n
}

// ShouldYield reports whether the current slice is used up.
func (s *Scheduler) ShouldYield() bool {
	return s.clock.Now().Sub(s.sliceStart) >= s.timeSlice
}

// QueueMicrotask queues fn to run before the next task.
func (s *Scheduler) QueueMicrotask(fn func()) {
	s.mu.Lock()
	s.microtasks = append(s.microtasks, fn)
	s.mu.Unlock()
	s.signal()
}

// FlushMicrotasks runs queued microtasks, including ones they queue, until
// none remain.
func (s *Scheduler) FlushMicrotasks() {
	for {
		s.mu.Lock()
		batch := s.microtasks
		s.microtasks = nil
		s.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}

// HasMicrotasks reports whether microtasks are waiting.
func (s *Scheduler) HasMicrotasks() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.microtasks) > 0
}

// RunSlice runs tasks until the slice is used up or the queue is empty. It
// reports whether work remains.
func (s *Scheduler) RunSlice() bool {
	s.FlushMicrotasks()
	s.sliceStart = s.clock.Now()

	for {
		s.mu.Lock()
		task := s.peekLocked()
		if task == nil {
			s.mu.Unlock()
			return false
		}
		now := s.clock.Now()
		if task.expiration.After(now) && s.ShouldYield() {
			s.mu.Unlock()
			return true
		}
		cb := task.callback
		s.mu.Unlock()

		didTimeout := !task.expiration.After(now)
		s.current = task
		next := cb(didTimeout)
		s.current = nil

		s.mu.Lock()
		if next != nil && !task.cancelled {
			task.callback = next
			s.mu.Unlock()
			s.FlushMicrotasks()
			return true
		}
		task.callback = nil
		if task.index >= 0 && task.index < len(s.queue) && s.queue[task.index] == task {
			heap.Remove(&s.queue, task.index)
		}
		s.mu.Unlock()
		s.FlushMicrotasks()
	}
}

// RunUntilIdle runs slices until no task or microtask is left. It returns the
// number of slices run.
func (s *Scheduler) RunUntilIdle() int {
	slices := 0
	for {
		more := s.RunSlice()
		slices++
		if !more && !s.HasMicrotasks() && s.FirstScheduled() == nil {
			return slices
		}
	}
}

// Run drives the scheduler until ctx is done, sleeping while there is
// nothing to do.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.RunSlice() || s.HasMicrotasks() {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// peekLocked pops cancelled tasks off the head and returns the first live
// task.
func (s *Scheduler) peekLocked() *Task {
	for len(s.queue) > 0 {
		head := s.queue[0]
		if head.callback != nil {
			return head
		}
		heap.Pop(&s.queue)
	}
	return nil
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if !h[i].expiration.Equal(h[j].expiration) {
		return h[i].expiration.Before(h[j].expiration)
	}
	return h[i].id < h[j].id
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
