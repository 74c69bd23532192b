package testing

import (
	"errors"
	"testing"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/element"
	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/lanes"
	"github.com/go-drift/fiber/pkg/scheduler"
	"github.com/go-drift/fiber/pkg/testing/internal/testbed"
)

func TestNewRootTester_Defaults(t *testing.T) {
	tester := NewRootTesterWithT(t)

	if tester.clock == nil {
		t.Fatal("expected fake clock to be set")
	}
	if tester.Root().Container() != tester.Host().Container() {
		t.Error("expected the root to render into the host container")
	}
	if tester.String() != "" {
		t.Errorf("expected an empty tree, got %q", tester.String())
	}
}

func TestRender_MountsTree(t *testing.T) {
	tester := NewRootTesterWithT(t)

	if err := tester.Render(element.New("p", nil, "hello")); err != nil {
		t.Fatal(err)
	}
	if tester.String() != "<p>\n  \"hello\"\n</p>\n" {
		t.Errorf("unexpected tree %q", tester.String())
	}
	commits := tester.Commits()
	if len(commits) != 1 || commits[0].Lane != lanes.SyncLane {
		t.Errorf("expected one sync commit, got %v", commits)
	}
}

func TestRender_ReturnsRenderError(t *testing.T) {
	fibererrors.SetHandler(&silentHandler{})
	t.Cleanup(func() { fibererrors.SetHandler(nil) })

	tester := NewRootTesterWithT(t)
	sentinel := errors.New("broken")
	err := tester.Render(element.New(func(h *core.Hooks, _ element.Props) element.Node {
		panic(sentinel)
	}, nil))
	if !errors.Is(err, sentinel) {
		t.Errorf("expected the render error to wrap the panic value, got %v", err)
	}

	if err := tester.Render(element.New("ok", nil)); err != nil {
		t.Errorf("expected no error from a good render, got %v", err)
	}
}

func TestTap_UpdatesState(t *testing.T) {
	tester := NewRootTesterWithT(t)
	var taps []int
	tester.Render(element.New(testbed.Counter, element.Props{
		"initial": 1,
		"onTap":   func(n int) { taps = append(taps, n) },
	}))

	for i := 0; i < 2; i++ {
		if err := tester.Tap(ByKind("button")); err != nil {
			t.Fatal(err)
		}
	}
	if got := tester.Find(ByKind("button")).Text(); got != "3" {
		t.Errorf("expected count 3, got %q", got)
	}
	if len(taps) != 2 || taps[1] != 3 {
		t.Errorf("expected onTap with 2 then 3, got %v", taps)
	}
}

func TestFire_Errors(t *testing.T) {
	tester := NewRootTesterWithT(t)
	tester.Render(element.New("box", element.Props{"title": "x"}))

	if err := tester.Fire(ByKind("missing"), "onTap"); err == nil {
		t.Error("expected an error for a missing node")
	}
	if err := tester.Fire(ByKind("box"), "onTap"); err == nil {
		t.Error("expected an error for a missing handler")
	}
	if err := tester.Fire(ByKind("box"), "title"); err == nil {
		t.Error("expected an error for a non-handler prop")
	}
}

func TestFire_PassesArgument(t *testing.T) {
	tester := NewRootTesterWithT(t)
	var got any
	tester.Render(element.New("input", element.Props{"onChange": func(v any) { got = v }}))

	if err := tester.Fire(ByKind("input"), "onChange", "typed"); err != nil {
		t.Fatal(err)
	}
	if got != "typed" {
		t.Errorf("expected handler argument %q, got %v", "typed", got)
	}
}

func TestCleanup_RunsEffectDestroys(t *testing.T) {
	var log []string
	tester := NewRootTester()
	tester.Render(element.New(testbed.Ticker, element.Props{"name": "a", "log": &log}))
	tester.Cleanup()

	want := []string{"start a", "stop a"}
	if len(log) != 2 || log[0] != want[0] || log[1] != want[1] {
		t.Errorf("expected %v, got %v", want, log)
	}
	if tester.String() != "" {
		t.Errorf("expected an empty tree after cleanup, got %q", tester.String())
	}
}

func TestFlushAll_SettleTimeout(t *testing.T) {
	tester := NewRootTester()
	var spin scheduler.Callback
	spin = func(bool) scheduler.Callback { return spin }
	tester.Scheduler().Schedule(scheduler.NormalPriority, spin)

	if err := tester.FlushAll(); !errors.Is(err, ErrSettleTimeout) {
		t.Errorf("expected ErrSettleTimeout, got %v", err)
	}
}

// silentHandler drops every report.
type silentHandler struct{}

func (silentHandler) HandleError(*fibererrors.FiberError)        {}
func (silentHandler) HandlePanic(*fibererrors.PanicError)        {}
func (silentHandler) HandleRenderError(*fibererrors.RenderError) {}
func (silentHandler) HandleWarning(string, string)               {}
