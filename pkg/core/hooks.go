package core

import (
	"math"
	"reflect"

	"github.com/go-drift/fiber/pkg/element"
	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/lanes"
	"github.com/go-drift/fiber/pkg/update"
)

// Component renders props into a child description. Hooks must be called
// unconditionally and in the same order on every render.
type Component func(h *Hooks, props element.Props) element.Node

// Hooks gives a component access to per-instance state while it renders.
// It is only valid during the call it was passed to.
type Hooks struct {
	r     *Reconciler
	fiber *fiber
}

type hookKind uint8

const (
	hookRoot hookKind = iota
	hookState
	hookEffect
	hookRef
	hookTransition
)

func (k hookKind) String() string {
	switch k {
	case hookRoot:
		return "root"
	case hookState:
		return "state"
	case hookEffect:
		return "effect"
	case hookRef:
		return "ref"
	case hookTransition:
		return "transition"
	default:
		return "unknown"
	}
}

// hook is one slot in a fiber's hook list.
type hook struct {
	kind          hookKind
	memoizedState any
	baseState     any
	queue         *update.Queue[any]
	baseQueue     *update.Update[any]
	// setter is the stable change function handed to the component.
	setter any
	next   *hook
}

type effectTag uint8

const (
	effectPassive effectTag = 1 << iota
	effectHasEffect
)

type effect struct {
	tag     effectTag
	create  func() func()
	destroy func()
	deps    []any
	next    *effect
}

// effectQueue is the circular effect list of a function component.
type effectQueue struct {
	lastEffect *effect
}

func (q *effectQueue) each(fn func(*effect)) {
	if q == nil || q.lastEffect == nil {
		return
	}
	first := q.lastEffect.next
	e := first
	for {
		fn(e)
		e = e.next
		if e == first {
			return
		}
	}
}

// hookRenderState tracks the component being rendered.
type hookRenderState struct {
	fiber       *fiber
	currentHook *hook
	wipHook     *hook
	index       int
	lane        lanes.Lanes
}

func (r *Reconciler) renderWithHooks(wip *fiber, component Component, props element.Props, renderLane lanes.Lanes) element.Node {
	wip.memoizedState = nil
	wip.updateQueue = nil
	r.hooks = hookRenderState{fiber: wip, lane: renderLane}
	defer func() { r.hooks = hookRenderState{} }()

	h := &Hooks{r: r, fiber: wip}
	children := component(h, props)
	h.fiber = nil

	if current := wip.alternate; current != nil {
		var remaining *hook
		if r.hooks.currentHook != nil {
			remaining = r.hooks.currentHook.next
		} else {
			remaining, _ = current.memoizedState.(*hook)
		}
		if remaining != nil {
			panic(&fibererrors.HookError{
				Component: componentName(wip),
				Index:     r.hooks.index,
				Reason:    "rendered fewer hooks than during the previous render",
			})
		}
	}
	return children
}

func (h *Hooks) check() {
	if h == nil || h.fiber == nil || h.r.hooks.fiber != h.fiber {
		panic("core: hooks can only be called while their component renders")
	}
}

// nextHook returns the next slot of the rendering component, mounting a new
// one on first render and cloning the previous generation's otherwise.
func (r *Reconciler) nextHook(kind hookKind) (hk *hook, mounting bool) {
	st := &r.hooks
	wip := st.fiber
	current := wip.alternate

	if current == nil {
		hk = &hook{kind: kind}
		mounting = true
	} else {
		var prev *hook
		if st.currentHook == nil {
			prev, _ = current.memoizedState.(*hook)
		} else {
			prev = st.currentHook.next
		}
		if prev == nil {
			panic(&fibererrors.HookError{
				Component: componentName(wip),
				Index:     st.index,
				Reason:    "rendered more hooks than during the previous render",
			})
		}
		if prev.kind != kind {
			panic(&fibererrors.HookError{
				Component: componentName(wip),
				Index:     st.index,
				Reason:    "expected " + prev.kind.String() + " hook, got " + kind.String() + " hook",
			})
		}
		st.currentHook = prev
		clone := *prev
		clone.next = nil
		hk = &clone
	}

	if st.wipHook == nil {
		wip.memoizedState = hk
	} else {
		st.wipHook.next = hk
	}
	st.wipHook = hk
	st.index++
	return hk, mounting
}

// processHookQueue moves pending updates onto the base queue of the
// committed hook, so they survive a discarded render, and replays the base
// queue at lane. Lanes of skipped updates are kept for the commit to put back
// on the root.
func (r *Reconciler) processHookQueue(hk, current *hook, lane lanes.Lanes) {
	baseQueue := hk.baseQueue
	if pending := hk.queue.TakePending(); pending != nil {
		baseQueue = update.Merge(baseQueue, pending)
		if current != nil {
			current.baseQueue = baseQueue
		}
	}
	if baseQueue == nil {
		return
	}
	res := update.Process(hk.baseState, baseQueue, lane)
	hk.memoizedState = res.MemoizedState
	hk.baseState = res.BaseState
	hk.baseQueue = res.BaseQueue
	r.skippedLanes = lanes.Merge(r.skippedLanes, res.SkippedLanes)
}

// Setter changes the value of a state hook. A component receives the same
// *Setter on every render.
type Setter[T any] struct {
	r     *Reconciler
	fiber *fiber
	queue *update.Queue[any]
}

// Set schedules the state to become v.
func (s *Setter[T]) Set(v T) {
	s.dispatch(update.Replace[any](v))
}

// Update schedules the state to become fn applied to the state it has when
// the update is processed.
func (s *Setter[T]) Update(fn func(T) T) {
	s.dispatch(update.Transform(func(prev any) any {
		p, _ := prev.(T)
		return fn(p)
	}))
}

func (s *Setter[T]) dispatch(action update.Action[any]) {
	lane := s.r.requestUpdateLane()
	s.queue.Enqueue(update.New(action, lane))
	s.r.scheduleUpdateOnFiber(s.fiber, lane)
}

// UseState returns the current value of a state slot and its setter.
func UseState[T any](h *Hooks, initial T) (T, *Setter[T]) {
	return UseStateFunc(h, func() T { return initial })
}

// UseStateFunc is like UseState but computes the initial value only on
// mount.
func UseStateFunc[T any](h *Hooks, initial func() T) (T, *Setter[T]) {
	h.check()
	r := h.r
	hk, mounting := r.nextHook(hookState)
	if mounting {
		v := initial()
		hk.memoizedState = v
		hk.baseState = v
		hk.queue = update.NewQueue[any]()
		hk.setter = &Setter[T]{r: r, fiber: h.fiber, queue: hk.queue}
	} else {
		r.processHookQueue(hk, r.hooks.currentHook, r.hooks.lane)
	}
	setter, ok := hk.setter.(*Setter[T])
	if !ok {
		panic(&fibererrors.HookError{
			Component: componentName(h.fiber),
			Index:     r.hooks.index - 1,
			Reason:    "state hook changed its value type",
		})
	}
	v, _ := hk.memoizedState.(T)
	return v, setter
}

// UseEffect runs create after the render is committed. The function create
// returns, if any, runs before the next create and when the component
// unmounts. With nil deps the effect runs after every render; otherwise only
// when some dependency changed identity.
func UseEffect(h *Hooks, create func() func(), deps []any) {
	h.check()
	r := h.r
	hk, mounting := r.nextHook(hookEffect)
	wip := h.fiber
	if mounting {
		wip.flags |= Passive
		hk.memoizedState = pushEffect(wip, effectPassive|effectHasEffect, create, nil, deps)
		return
	}
	prev := r.hooks.currentHook.memoizedState.(*effect)
	if deps != nil && depsEqual(deps, prev.deps) {
		hk.memoizedState = pushEffect(wip, effectPassive, create, prev.destroy, deps)
		return
	}
	wip.flags |= Passive
	hk.memoizedState = pushEffect(wip, effectPassive|effectHasEffect, create, prev.destroy, deps)
}

func pushEffect(f *fiber, tag effectTag, create func() func(), destroy func(), deps []any) *effect {
	e := &effect{tag: tag, create: create, destroy: destroy, deps: deps}
	if f.updateQueue == nil {
		f.updateQueue = &effectQueue{}
	}
	q := f.updateQueue
	if q.lastEffect == nil {
		e.next = e
	} else {
		e.next = q.lastEffect.next
		q.lastEffect.next = e
	}
	q.lastEffect = e
	return e
}

// depsEqual compares dependency lists element by element by identity. Lists
// of different length are never equal.
func depsEqual(next, prev []any) bool {
	if prev == nil || len(next) != len(prev) {
		return false
	}
	for i := range next {
		if !identical(next[i], prev[i]) {
			return false
		}
	}
	return true
}

// identical reports whether a and b are the same value. Functions, maps and
// slices are compared by pointer; NaN is identical to itself.
func identical(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return !va.IsValid() && !vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice:
		return va.Pointer() == vb.Pointer() && (va.Kind() != reflect.Slice || va.Len() == vb.Len())
	case reflect.Float32, reflect.Float64:
		fa, fb := va.Float(), vb.Float()
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	}
	if !va.Type().Comparable() {
		return false
	}
	return a == b
}

// UseRef returns a cell that keeps its identity for the component's
// lifetime. Passing it as an element's "ref" prop attaches the host instance.
func UseRef(h *Hooks, initial any) *element.Ref {
	h.check()
	hk, mounting := h.r.nextHook(hookRef)
	if mounting {
		hk.memoizedState = &element.Ref{Current: initial}
	}
	return hk.memoizedState.(*element.Ref)
}

// UseContext returns the value of the nearest enclosing provider of ctx, or
// its default.
func UseContext(h *Hooks, ctx *element.Context) any {
	h.check()
	return h.r.readContext(ctx)
}

// UseTransition returns whether a transition started by this component is
// pending, and a function that runs its callback with updates marked as a
// transition.
func UseTransition(h *Hooks) (bool, func(func())) {
	isPending, setPending := UseState(h, false)
	hk, mounting := h.r.nextHook(hookTransition)
	if mounting {
		r := h.r
		hk.memoizedState = func(cb func()) {
			r.startTransition(setPending, cb)
		}
	}
	return isPending, hk.memoizedState.(func(func()))
}

func (r *Reconciler) startTransition(setPending *Setter[bool], cb func()) {
	setPending.Set(true)
	prev := r.updateLane
	r.updateLane = lanes.TransitionLane
	defer func() { r.updateLane = prev }()
	cb()
	setPending.Set(false)
}
