package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/element"
	"github.com/go-drift/fiber/pkg/host/memhost"
	"github.com/go-drift/fiber/pkg/scheduler"
)

const (
	// DefaultTimeSlice is the scheduler time slice used by testers.
	DefaultTimeSlice = 5 * time.Millisecond
	// maxFlushSlices bounds FlushAll so a component that keeps scheduling
	// work fails the test instead of hanging it.
	maxFlushSlices = 10000
)

// ErrSettleTimeout is returned when FlushAll exceeds its slice budget.
var ErrSettleTimeout = errors.New("FlushAll timed out: scheduler did not settle")

// RootTester renders element trees into an in-memory host with a
// deterministic scheduler.
type RootTester struct {
	clock   *FakeClock
	sched   *scheduler.Scheduler
	host    *memhost.Host
	r       *core.Reconciler
	root    *core.Root
	commits []core.CommitInfo
}

// NewRootTester creates a tester with an empty root.
// Call Cleanup() when done, or use NewRootTesterWithT() instead.
func NewRootTester() *RootTester {
	clk := NewFakeClock()
	t := &RootTester{clock: clk}
	t.sched = scheduler.New(scheduler.Options{Clock: clk, TimeSlice: DefaultTimeSlice})
	t.host = memhost.New(memhost.Options{Microtask: t.sched.QueueMicrotask})
	t.r = core.NewReconciler(core.Config{
		Host:      t.host,
		Scheduler: t.sched,
		OnCommit: func(info core.CommitInfo) {
			t.commits = append(t.commits, info)
		},
	})
	t.root = t.r.CreateRoot(t.host.Container())
	return t
}

// NewRootTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewRootTesterWithT(t *testing.T) *RootTester {
	tester := NewRootTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts the root so effect destroys run.
func (t *RootTester) Cleanup() {
	t.root.Unmount()
	t.FlushAll()
}

// Clock returns the fake clock driving the scheduler.
func (t *RootTester) Clock() *FakeClock {
	return t.clock
}

// Reconciler returns the reconciler under test.
func (t *RootTester) Reconciler() *core.Reconciler {
	return t.r
}

// Root returns the root the tester renders into.
func (t *RootTester) Root() *core.Root {
	return t.root
}

// Host returns the in-memory host.
func (t *RootTester) Host() *memhost.Host {
	return t.host
}

// Scheduler returns the tester's scheduler.
func (t *RootTester) Scheduler() *scheduler.Scheduler {
	return t.sched
}

// Render renders node and flushes all resulting work. It returns the render
// error raised during the flush, if any.
func (t *RootTester) Render(node element.Node) error {
	return t.Act(func() { t.root.Render(node) })
}

// Act runs fn, typically a state update, and flushes all resulting work.
func (t *RootTester) Act(fn func()) error {
	before := t.r.LastRenderError()
	fn()
	if err := t.FlushAll(); err != nil {
		return err
	}
	if after := t.r.LastRenderError(); after != nil && after != before {
		return after
	}
	return nil
}

// FlushMicrotasks runs pending microtasks, which commits synchronous work.
func (t *RootTester) FlushMicrotasks() {
	t.sched.FlushMicrotasks()
}

// FlushSlice runs one scheduler slice and reports whether work remains.
func (t *RootTester) FlushSlice() bool {
	return t.sched.RunSlice()
}

// FlushAll runs the scheduler until no task or microtask is left.
func (t *RootTester) FlushAll() error {
	for i := 0; i < maxFlushSlices; i++ {
		more := t.sched.RunSlice()
		if !more && !t.sched.HasMicrotasks() && t.sched.FirstScheduled() == nil {
			return nil
		}
	}
	return ErrSettleTimeout
}

// Commits returns every commit observed so far.
func (t *RootTester) Commits() []core.CommitInfo {
	return t.commits
}

// ResetCommits clears the commit log.
func (t *RootTester) ResetCommits() {
	t.commits = nil
}

// String renders the host tree as indented markup.
func (t *RootTester) String() string {
	return t.host.String()
}

// Digest fingerprints the host tree.
func (t *RootTester) Digest() uint64 {
	return t.host.Digest()
}

// Ops returns the host mutations recorded since the last ResetOps.
func (t *RootTester) Ops() []memhost.Op {
	return t.host.Ops()
}

// ResetOps clears the host op log and returns what it held.
func (t *RootTester) ResetOps() []memhost.Op {
	return t.host.ResetOps()
}

// Find evaluates finder against the committed host tree.
func (t *RootTester) Find(finder Finder) FinderResult {
	return FinderResult{nodes: finder.Evaluate(t.host.Container()), finder: finder}
}
