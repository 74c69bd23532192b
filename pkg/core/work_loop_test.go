package core

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/fiber/pkg/element"
	"github.com/go-drift/fiber/pkg/lanes"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// slowRows renders n rows, each advancing the clock by a millisecond.
func slowRows(clock *manualClock, n int) element.Node {
	row := func(hk *Hooks, props element.Props) element.Node {
		clock.Advance(time.Millisecond)
		return element.New("row", element.Props{"n": props.Get("n")}, props.Get("n"))
	}
	rows := make([]element.Node, n)
	for i := range rows {
		rows[i] = element.New(row, element.Props{"key": i, "n": i})
	}
	return element.New("table", nil, rows...)
}

func TestTimeSlicedRenderMatchesSync(t *testing.T) {
	syncH := newHarness(t)
	syncH.render(slowRows(syncH.clock, 30))

	sliced := newHarness(t)
	sliced.r.StartTransition(func() {
		sliced.root.Render(slowRows(sliced.clock, 30))
	})
	slices := sliced.sched.RunUntilIdle()
	if slices < 2 {
		t.Errorf("transition rendered in %d slice, want several", slices)
	}
	if diff := cmp.Diff(syncH.tree(), sliced.tree()); diff != "" {
		t.Errorf("tree mismatch (-sync +sliced):\n%s", diff)
	}
	if syncH.host.Digest() != sliced.host.Digest() {
		t.Error("digests differ")
	}
	if diff := cmp.Diff([]lanes.Lane{lanes.TransitionLane}, sliced.commits); diff != "" {
		t.Errorf("commit lanes mismatch (-want +got):\n%s", diff)
	}
}

func TestYieldKeepsCommittedTree(t *testing.T) {
	h := newHarness(t)
	h.render(element.New("table", nil))
	before := h.tree()

	h.r.StartTransition(func() { h.root.Render(slowRows(h.clock, 30)) })
	if more := h.sched.RunSlice(); !more {
		t.Fatal("RunSlice() = false, want the transition to yield")
	}
	if h.tree() != before {
		t.Errorf("tree changed before the transition finished: %q", h.tree())
	}
	if h.root.CallbackPriority() != lanes.TransitionLane {
		t.Errorf("CallbackPriority() = %v, want transition", h.root.CallbackPriority())
	}
	h.flush()
	if got := strings.Count(h.tree(), "<row"); got != 30 {
		t.Errorf("rows = %d, want 30", got)
	}
}

func TestSyncUpdateInterruptsTransition(t *testing.T) {
	h := newHarness(t)
	var setLabel *Setter[string]
	var setCount *Setter[int]
	item := func(hk *Hooks, props element.Props) element.Node {
		h.clock.Advance(time.Millisecond)
		return element.New("item", nil, props.Get("label"))
	}
	app := func(hk *Hooks, _ element.Props) element.Node {
		label, sl := UseState(hk, "a")
		count, sc := UseState(hk, 0)
		setLabel, setCount = sl, sc
		items := make([]element.Node, 20)
		for i := range items {
			items[i] = element.New(item, element.Props{"key": i, "label": label})
		}
		return element.New("list", element.Props{"count": count}, items...)
	}
	h.render(element.New(app, nil))
	h.commits = nil

	h.r.StartTransition(func() { setLabel.Set("b") })
	if !h.sched.RunSlice() {
		t.Fatal("transition finished in one slice")
	}

	setCount.Set(1)
	h.sched.FlushMicrotasks()
	tree := h.tree()
	if !strings.Contains(tree, "<list count=1>") || strings.Count(tree, `"a"`) != 20 {
		t.Errorf("after the sync update tree = %q, want count 1 and label a", tree)
	}

	h.flush()
	tree = h.tree()
	if !strings.Contains(tree, "<list count=1>") || strings.Count(tree, `"b"`) != 20 {
		t.Errorf("after the transition tree = %q, want count 1 and label b", tree)
	}
	if diff := cmp.Diff([]lanes.Lane{lanes.SyncLane, lanes.TransitionLane}, h.commits); diff != "" {
		t.Errorf("commit lanes mismatch (-want +got):\n%s", diff)
	}
}

func TestExpiredTransitionRendersWithoutYielding(t *testing.T) {
	h := newHarness(t)
	h.r.StartTransition(func() { h.root.Render(slowRows(h.clock, 10)) })
	h.clock.Advance(scheduler.LowPriority.Timeout() + time.Millisecond)

	h.sched.RunSlice()
	if len(h.commits) != 1 {
		t.Errorf("commits = %d after one slice, want the expired render to finish", len(h.commits))
	}
}

func TestRenderPanicDiscardsTree(t *testing.T) {
	h := newHarness(t)
	h.render(element.New("ok", nil))
	before := h.tree()
	h.ops()

	boom := func(hk *Hooks, _ element.Props) element.Node {
		panic("boom")
	}
	h.render(element.New("wrap", nil, element.New("child", nil), element.New(boom, nil)))

	if h.tree() != before {
		t.Errorf("tree = %q, want the last committed tree", h.tree())
	}
	if len(h.reports.renders) != 1 {
		t.Fatalf("render errors = %d, want 1", len(h.reports.renders))
	}
	if got := h.reports.renders[0].Recovered; got != "boom" {
		t.Errorf("Recovered = %v, want boom", got)
	}
	if h.reports.renders[0].Err != nil {
		t.Errorf("Err = %v, want nil for a non-error panic", h.reports.renders[0].Err)
	}
	for _, op := range h.host.Ops() {
		if op.Parent != "" {
			t.Errorf("failed render touched the container: %s", op)
		}
	}
}

func TestRenderErrorUnwraps(t *testing.T) {
	h := newHarness(t)
	sentinel := errors.New("bad input")
	h.render(element.New(func(hk *Hooks, _ element.Props) element.Node {
		panic(sentinel)
	}, nil))
	if h.r.LastRenderError() == nil || !errors.Is(h.r.LastRenderError(), sentinel) {
		t.Errorf("LastRenderError() = %v, want it to wrap the panic value", h.r.LastRenderError())
	}
}

func TestRenderErrorRetriesBeforeGivingUp(t *testing.T) {
	h := newHarness(t)
	calls := 0
	flaky := func(hk *Hooks, _ element.Props) element.Node {
		calls++
		if calls == 1 {
			panic("transient")
		}
		return element.New("ok", nil)
	}
	h.render(element.New(flaky, nil))

	if h.tree() != "<ok />\n" {
		t.Errorf("tree = %q, want the retried render committed", h.tree())
	}
	if len(h.reports.renders) != 0 {
		t.Errorf("render errors = %d, want none once a retry succeeds", len(h.reports.renders))
	}
	if h.r.LastRenderError() != nil {
		t.Errorf("LastRenderError() = %v, want nil", h.r.LastRenderError())
	}
	if len(h.commits) != 1 || h.commits[0] != lanes.SyncLane {
		t.Errorf("commits = %v, want one sync commit", h.commits)
	}
}

func TestRenderErrorGivesUpAfterRetryLimit(t *testing.T) {
	h := newHarness(t)
	calls := 0
	h.render(element.New(func(hk *Hooks, _ element.Props) element.Node {
		calls++
		panic("always")
	}, nil))

	if calls != renderRetryLimit+1 {
		t.Errorf("render attempts = %d, want %d", calls, renderRetryLimit+1)
	}
	if len(h.reports.renders) != 1 {
		t.Errorf("render errors = %d, want 1", len(h.reports.renders))
	}
	if h.root.PendingLanes() != lanes.NoLanes {
		t.Errorf("PendingLanes() = %v, want the failed lane cleared", h.root.PendingLanes())
	}
	if h.root.renderRetries != 0 {
		t.Errorf("renderRetries = %d after giving up, want 0", h.root.renderRetries)
	}
}

func TestNestedUpdateLimit(t *testing.T) {
	h := newHarness(t)
	loop := func(hk *Hooks, _ element.Props) element.Node {
		n, set := UseState(hk, 0)
		set.Set(n + 1)
		return element.New("n", nil, n)
	}
	h.render(element.New(loop, nil))

	if len(h.commits) != nestedUpdateLimit+1 {
		t.Errorf("commits = %d, want %d", len(h.commits), nestedUpdateLimit+1)
	}
	if len(h.reports.errors) != 1 || !errors.Is(h.reports.errors[0], ErrUpdateDepthExceeded) {
		t.Fatalf("errors = %v, want one update depth error", h.reports.errors)
	}
	if want := "<n>\n  \"" + strconv.Itoa(nestedUpdateLimit) + "\"\n</n>\n"; h.tree() != want {
		t.Errorf("tree = %q, want %q", h.tree(), want)
	}
}

func TestRenderPhaseUpdateIsNotLost(t *testing.T) {
	h := newHarness(t)
	comp := func(hk *Hooks, _ element.Props) element.Node {
		n, set := UseState(hk, 0)
		if n < 3 {
			set.Set(n + 1)
		}
		return element.New("n", nil, n)
	}
	h.render(element.New(comp, nil))
	if h.tree() != "<n>\n  \"3\"\n</n>\n" {
		t.Errorf("tree = %q", h.tree())
	}
	if len(h.reports.errors) != 0 {
		t.Errorf("errors = %v", h.reports.errors)
	}
}

func TestPriorityLaneMapping(t *testing.T) {
	tests := []struct {
		p    scheduler.Priority
		lane lanes.Lane
	}{
		{scheduler.ImmediatePriority, lanes.SyncLane},
		{scheduler.UserBlockingPriority, lanes.InputContinuousLane},
		{scheduler.NormalPriority, lanes.DefaultLane},
		{scheduler.LowPriority, lanes.TransitionLane},
		{scheduler.IdlePriority, lanes.IdleLane},
	}
	for _, tt := range tests {
		if got := priorityToLane(tt.p); got != tt.lane {
			t.Errorf("priorityToLane(%v) = %v, want %v", tt.p, got, tt.lane)
		}
		if got := laneToPriority(tt.lane); got != tt.p {
			t.Errorf("laneToPriority(%v) = %v, want %v", tt.lane, got, tt.p)
		}
	}
}

func TestFlushSync(t *testing.T) {
	h := newHarness(t)
	h.root.Render(element.New("now", nil))
	h.r.FlushSync()
	if h.tree() != "<now />\n" {
		t.Errorf("tree = %q after FlushSync", h.tree())
	}
}

func TestMultipleRoots(t *testing.T) {
	h := newHarness(t)
	other := h.r.CreateRoot(h.host.Container())
	h.root.Render(element.New("a", nil))
	other.Render(element.New("b", nil))
	h.flush()
	if h.tree() != "<a />\n<b />\n" {
		t.Errorf("tree = %q", h.tree())
	}
	if len(h.commits) != 2 {
		t.Errorf("commits = %d, want one per root", len(h.commits))
	}
}
