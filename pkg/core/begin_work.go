package core

import (
	"github.com/go-drift/fiber/pkg/element"
	"github.com/go-drift/fiber/pkg/lanes"
)

const (
	offscreenVisible = "visible"
	offscreenHidden  = "hidden"
)

// beginWork computes the children of wip and returns the first of them, or
// nil when wip has no children to visit.
func (r *Reconciler) beginWork(wip *fiber, renderLane lanes.Lanes) *fiber {
	switch wip.tag {
	case HostRoot:
		return r.updateHostRoot(wip, renderLane)
	case HostComponent:
		markRef(wip)
		return r.reconcileChildren(wip, wip.pendingProps.Children())
	case HostText:
		return nil
	case FunctionComponent:
		return r.updateFunctionComponent(wip, renderLane)
	case Fragment:
		return r.reconcileChildren(wip, wip.pendingProps.Children())
	case ContextProvider:
		provider := wip.typ.(*element.Provider)
		r.contexts.push(provider.Context(), wip.pendingProps.Get("value"))
		return r.reconcileChildren(wip, wip.pendingProps.Children())
	case SuspenseComponent:
		return r.updateSuspenseComponent(wip)
	case OffscreenComponent:
		return r.reconcileChildren(wip, wip.pendingProps.Children())
	default:
		r.warn("core.beginWork", "unknown fiber tag %d", wip.tag)
		return nil
	}
}

func (r *Reconciler) reconcileChildren(wip *fiber, children element.Node) *fiber {
	current := wip.alternate
	if current == nil {
		wip.child = childReconciler{r: r}.reconcile(wip, nil, children)
	} else {
		wip.child = childReconciler{r: r, trackEffects: true}.reconcile(wip, current.child, children)
	}
	return wip.child
}

// updateHostRoot replays the root's update queue to find the element the
// root should now show.
func (r *Reconciler) updateHostRoot(wip *fiber, renderLane lanes.Lanes) *fiber {
	current, _ := wip.alternate.memoizedState.(*hook)
	clone := *current
	hk := &clone
	r.processHookQueue(hk, current, renderLane)
	wip.memoizedState = hk
	return r.reconcileChildren(wip, hk.memoizedState)
}

func (r *Reconciler) updateFunctionComponent(wip *fiber, renderLane lanes.Lanes) *fiber {
	var component Component
	switch fn := wip.typ.(type) {
	case Component:
		component = fn
	case func(*Hooks, element.Props) element.Node:
		component = fn
	}
	children := r.renderWithHooks(wip, component, wip.pendingProps, renderLane)
	return r.reconcileChildren(wip, children)
}

// updateSuspenseComponent keeps the primary children under an offscreen
// fiber. While suspended the offscreen fiber is hidden and not visited, so
// its subtree and state stay as last committed, and the fallback is rendered
// as its sibling.
func (r *Reconciler) updateSuspenseComponent(wip *fiber) *fiber {
	props := wip.pendingProps
	suspended, _ := props.Get("suspended").(bool)
	mode := offscreenVisible
	if suspended {
		mode = offscreenHidden
	}
	primaryProps := element.Props{"mode": mode, "children": props.Get("children")}
	fallbackChildren := []element.Node{props.Get("fallback")}

	current := wip.alternate
	var primary, currentFallback *fiber
	if current == nil || current.child == nil {
		primary = createFiberFromOffscreen(primaryProps)
		if current != nil {
			primary.flags |= Placement
		}
	} else {
		currentPrimary := current.child
		currentFallback = currentPrimary.sibling
		primary = createWorkInProgress(currentPrimary, primaryProps)
	}
	primary.parent = wip
	primary.sibling = nil
	primary.index = 0
	wip.child = primary

	if !suspended {
		if currentFallback != nil {
			wip.deletions = append(wip.deletions, currentFallback)
			wip.flags |= ChildDeletion
		}
		return primary
	}

	var fallback *fiber
	if currentFallback != nil {
		fallback = createWorkInProgress(currentFallback, element.Props{"children": fallbackChildren})
	} else {
		fallback = createFiberFromFragment(fallbackChildren, "", false)
		if current != nil {
			fallback.flags |= Placement
		}
	}
	fallback.parent = wip
	fallback.sibling = nil
	fallback.index = 1
	primary.sibling = fallback
	// The hidden primary fiber is never begun, so prepare it here as
	// completeWork would.
	primary.memoizedProps = primaryProps
	return fallback
}

func offscreenMode(props element.Props) string {
	if mode, _ := props.Get("mode").(string); mode == offscreenHidden {
		return offscreenHidden
	}
	return offscreenVisible
}

// markRef flags wip when its ref must be attached or replaced at commit.
func markRef(wip *fiber) {
	current := wip.alternate
	if (current == nil && wip.ref != nil) || (current != nil && !identical(current.ref, wip.ref)) {
		wip.flags |= Ref
	}
}
