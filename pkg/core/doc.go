// Package core is the reconciler: it turns element trees into host
// mutations through a double-buffered fiber tree.
//
// # Roots and rendering
//
// A Reconciler is created with a host adapter and a scheduler. Each Root
// renders into one host container:
//
//	r := core.NewReconciler(core.Config{Host: h, Scheduler: sched})
//	root := r.CreateRoot(h.Container())
//	root.Render(element.New(App, nil))
//
// Render does not touch the host immediately. Updates are tagged with a lane
// (see package lanes); synchronous work is flushed from a host microtask and
// other lanes run as scheduler tasks that yield between fibers when their
// time slice is used up. A render builds a work-in-progress tree off-screen
// and the commit applies it to the host in one step that never yields.
//
// # Components and hooks
//
// A component is a function of its props:
//
//	func Counter(h *core.Hooks, props element.Props) element.Node {
//	    n, set := core.UseState(h, 0)
//	    core.UseEffect(h, func() func() {
//	        log.Printf("count is %d", n)
//	        return nil
//	    }, []any{n})
//	    return element.New("button", element.Props{"onClick": func() { set.Set(n + 1) }}, n)
//	}
//
// Hooks must be called in the same order on every render. A render whose
// hook calls do not line up with the previous one is aborted with a
// *errors.HookError and the committed tree stays as it was.
//
// # Priorities
//
// Updates default to the sync lane. RunWithPriority and StartTransition (or
// the UseTransition hook) select a different lane for the updates their
// callback requests. A more urgent update arriving while a transition is
// rendering discards the unfinished tree; the transition restarts afterwards
// from the new committed state.
package core
