package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/fiber/pkg/element"
	"github.com/go-drift/fiber/pkg/host/memhost"
	"github.com/go-drift/fiber/pkg/lanes"
)

func TestSuspenseKeepsHiddenState(t *testing.T) {
	h := newHarness(t)
	var setN *Setter[int]
	mounted := 0
	counter := func(hk *Hooks, _ element.Props) element.Node {
		n, set := UseState(hk, 0)
		setN = set
		UseEffect(hk, func() func() {
			mounted++
			return func() { mounted-- }
		}, []any{})
		return element.New("span", nil, n)
	}
	view := func(suspended bool) element.Node {
		return element.New("box", nil, element.Suspense("loading", suspended, element.New(counter, nil)))
	}

	h.render(view(false))
	setN.Set(5)
	h.flush()
	h.ops()

	h.render(view(true))
	want := "<box>\n  <span hidden>\n    \"5\"\n  </span>\n  \"loading\"\n</box>\n"
	if diff := cmp.Diff(want, h.tree()); diff != "" {
		t.Errorf("suspended tree mismatch (-want +got):\n%s", diff)
	}
	got := h.ops()
	if got[memhost.OpHide] != 1 || got[memhost.OpRemove] != 0 {
		t.Errorf("ops = %v, want one hide and no removals", got)
	}

	h.render(view(false))
	want = "<box>\n  <span>\n    \"5\"\n  </span>\n</box>\n"
	if diff := cmp.Diff(want, h.tree()); diff != "" {
		t.Errorf("resumed tree mismatch (-want +got):\n%s", diff)
	}
	got = h.ops()
	if got[memhost.OpUnhide] != 1 || got[memhost.OpRemove] != 1 || got[memhost.OpCreate] != 0 {
		t.Errorf("ops = %v, want one unhide, one removal and no creates", got)
	}
	if mounted != 1 {
		t.Errorf("mounted = %d, want the counter to stay mounted", mounted)
	}
}

func TestSuspenseMountsSuspended(t *testing.T) {
	h := newHarness(t)
	comp := func(hk *Hooks, _ element.Props) element.Node {
		return element.New("content", nil)
	}
	h.render(element.Suspense(element.New("spinner", nil), true, element.New(comp, nil)))
	if h.tree() != "<spinner />\n" {
		t.Errorf("tree = %q, want only the fallback", h.tree())
	}

	h.render(element.Suspense(element.New("spinner", nil), false, element.New(comp, nil)))
	if h.tree() != "<content />\n" {
		t.Errorf("tree = %q, want only the content", h.tree())
	}
}

func TestSuspenseWithoutPropShowsChildren(t *testing.T) {
	h := newHarness(t)
	h.render(element.New(element.SuspenseType, element.Props{"fallback": element.New("spinner", nil)},
		element.New("content", nil)))
	if h.tree() != "<content />\n" {
		t.Errorf("tree = %q, want the children when suspended is unset", h.tree())
	}
}

func TestSuspenseUpdateWhileHidden(t *testing.T) {
	h := newHarness(t)
	var setN *Setter[int]
	counter := func(hk *Hooks, _ element.Props) element.Node {
		n, set := UseState(hk, 0)
		setN = set
		return element.New("span", nil, n)
	}
	view := func(suspended bool) element.Node {
		return element.Suspense("wait", suspended, element.New(counter, nil))
	}
	h.render(view(false))
	h.render(view(true))

	setN.Set(9)
	h.flush()
	if h.tree() != "<span hidden>\n  \"0\"\n</span>\n\"wait\"\n" {
		t.Errorf("hidden subtree re-rendered: %q", h.tree())
	}

	h.render(view(false))
	if h.tree() != "<span>\n  \"9\"\n</span>\n" {
		t.Errorf("tree = %q, want the update applied once visible", h.tree())
	}
}

func TestSuspenseHiddenUpdateSurvivesTransitionReveal(t *testing.T) {
	h := newHarness(t)
	var setN *Setter[int]
	counter := func(hk *Hooks, _ element.Props) element.Node {
		n, set := UseState(hk, 0)
		setN = set
		return element.New("span", nil, n)
	}
	view := func(suspended bool) element.Node {
		return element.Suspense("wait", suspended, element.New(counter, nil))
	}
	h.render(view(false))
	h.render(view(true))

	setN.Set(9)
	h.flush()

	h.r.StartTransition(func() { h.root.Render(view(false)) })
	h.flush()

	if want := "<span>\n  \"9\"\n</span>\n"; h.tree() != want {
		t.Errorf("tree = %q, want %q", h.tree(), want)
	}
	if pending := h.root.PendingLanes(); pending != lanes.NoLanes {
		t.Errorf("pending = %v, want none", pending)
	}
	want := []lanes.Lane{lanes.SyncLane, lanes.SyncLane, lanes.SyncLane, lanes.TransitionLane, lanes.SyncLane}
	if diff := cmp.Diff(want, h.commits); diff != "" {
		t.Errorf("commit lanes mismatch (-want +got):\n%s", diff)
	}
}
