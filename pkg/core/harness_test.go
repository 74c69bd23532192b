package core

import (
	"sync"
	"testing"
	"time"

	"github.com/go-drift/fiber/pkg/element"
	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host/memhost"
	"github.com/go-drift/fiber/pkg/lanes"
	"github.com/go-drift/fiber/pkg/scheduler"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recorder collects everything reported to the global error handler.
type recorder struct {
	errors   []*fibererrors.FiberError
	panics   []*fibererrors.PanicError
	renders  []*fibererrors.RenderError
	warnings []string
}

func (r *recorder) HandleError(err *fibererrors.FiberError)        { r.errors = append(r.errors, err) }
func (r *recorder) HandlePanic(err *fibererrors.PanicError)        { r.panics = append(r.panics, err) }
func (r *recorder) HandleRenderError(err *fibererrors.RenderError) { r.renders = append(r.renders, err) }
func (r *recorder) HandleWarning(op, msg string)                   { r.warnings = append(r.warnings, op+": "+msg) }

type harness struct {
	t       *testing.T
	clock   *manualClock
	sched   *scheduler.Scheduler
	host    *memhost.Host
	r       *Reconciler
	root    *Root
	reports *recorder
	commits []lanes.Lane
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, clock: &manualClock{now: time.Unix(0, 0)}, reports: &recorder{}}
	h.sched = scheduler.New(scheduler.Options{Clock: h.clock, TimeSlice: 5 * time.Millisecond})
	h.host = memhost.New(memhost.Options{Microtask: h.sched.QueueMicrotask})
	h.r = NewReconciler(Config{
		Host:      h.host,
		Scheduler: h.sched,
		OnCommit: func(info CommitInfo) {
			h.commits = append(h.commits, info.Lane)
		},
	})
	h.root = h.r.CreateRoot(h.host.Container())
	fibererrors.SetHandler(h.reports)
	t.Cleanup(func() { fibererrors.SetHandler(nil) })
	return h
}

// render schedules node and runs everything that follows from it.
func (h *harness) render(node element.Node) {
	h.root.Render(node)
	h.flush()
}

func (h *harness) flush() {
	h.sched.RunUntilIdle()
}

func (h *harness) tree() string {
	return h.host.String()
}

func (h *harness) ops() map[memhost.OpType]int {
	return memhost.CountOps(h.host.ResetOps())
}
