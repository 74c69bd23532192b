package cmd

import (
	"context"
	"time"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/element"
	"github.com/go-drift/fiber/pkg/host/memhost"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// session is one root rendering into an in-memory host.
type session struct {
	sched   *scheduler.Scheduler
	host    *memhost.Host
	r       *core.Reconciler
	root    *core.Root
	commits []core.CommitInfo
	// slices counts scheduler slices run by settle.
	slices int
}

func newSession(clock scheduler.Clock, timeSlice time.Duration) *session {
	s := &session{}
	s.sched = scheduler.New(scheduler.Options{Clock: clock, TimeSlice: timeSlice})
	s.host = memhost.New(memhost.Options{Microtask: s.sched.QueueMicrotask})
	s.r = core.NewReconciler(core.Config{
		Host:      s.host,
		Scheduler: s.sched,
		OnCommit: func(info core.CommitInfo) {
			s.commits = append(s.commits, info)
		},
	})
	s.root = s.r.CreateRoot(s.host.Container())
	return s
}

// render schedules node at priority p and runs the scheduler until idle. It
// returns the render error raised meanwhile, if any.
func (s *session) render(ctx context.Context, p scheduler.Priority, node element.Node) error {
	return s.act(ctx, func() {
		s.r.RunWithPriority(p, func() { s.root.Render(node) })
	})
}

func (s *session) act(ctx context.Context, fn func()) error {
	before := s.r.LastRenderError()
	fn()
	if err := s.settle(ctx); err != nil {
		return err
	}
	if after := s.r.LastRenderError(); after != nil && after != before {
		return after
	}
	return nil
}

// settle runs scheduler slices until no work is left or ctx is done.
func (s *session) settle(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		more := s.sched.RunSlice()
		s.slices++
		if !more && !s.sched.HasMicrotasks() && s.sched.FirstScheduled() == nil {
			return nil
		}
	}
}

// takeCommits returns and clears the commits seen since the last call.
func (s *session) takeCommits() []core.CommitInfo {
	commits := s.commits
	s.commits = nil
	return commits
}
