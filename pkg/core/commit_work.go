package core

import (
	"github.com/go-drift/fiber/pkg/element"
	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/lanes"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// pendingPassiveEffects are the function components whose effects run in
// the next passive flush.
type pendingPassiveEffects struct {
	unmount []*effectQueue
	update  []*effectQueue
}

// commitRoot applies a finished tree to the host. It never yields.
func (r *Reconciler) commitRoot(root *Root) {
	finished := root.finishedWork
	if finished == nil {
		return
	}
	lane := root.finishedLane
	root.finishedWork = nil
	root.finishedLane = lanes.NoLane
	start := r.sched.Now()

	// Updates skipped by this render, such as ones inside a subtree that was
	// hidden when they were made, stay owed after their lane is cleared.
	remaining := lanes.Merge(root.interleavedLanes, r.skippedLanes)
	root.pendingLanes = lanes.Merge(lanes.Remove(root.pendingLanes, lane), remaining)
	root.interleavedLanes = lanes.NoLanes
	r.skippedLanes = lanes.NoLanes
	root.renderRetries = 0

	if (finished.flags|finished.subtreeFlags)&PassiveMask != 0 && root.passiveTask == nil {
		root.passiveTask = r.sched.Schedule(scheduler.NormalPriority, func(bool) scheduler.Callback {
			r.flushPassiveEffects(root)
			return nil
		})
	}

	r.execution |= commitContext
	if (finished.flags|finished.subtreeFlags)&(MutationMask|PassiveMask) != 0 {
		r.commitMutationEffects(root, finished)
		root.current = finished
		r.commitLayoutEffects(finished)
	} else {
		root.current = finished
	}
	r.execution &^= commitContext

	if root.callbackNode != nil && root.callbackNode != r.sched.Current() {
		r.sched.Cancel(root.callbackNode)
	}
	root.callbackNode = nil
	root.callbackPriority = lanes.NoLane

	r.checkNestedUpdates(root)
	if r.onCommit != nil {
		r.notifyCommit(CommitInfo{Root: root, Lane: lane, Duration: r.sched.Now().Sub(start)})
	}
	r.ensureRootIsScheduled(root)
}

// commitMutationEffects applies deletions first, then the children, then
// the fiber's own placement, update, ref detach and visibility flags. It
// also collects the fibers whose effects must run.
func (r *Reconciler) commitMutationEffects(root *Root, f *fiber) {
	for _, deleted := range f.deletions {
		r.commitDeletion(root, f, deleted)
	}
	f.deletions = nil

	if f.subtreeFlags&(MutationMask|PassiveMask) != 0 {
		for child := f.child; child != nil; child = child.sibling {
			r.commitMutationEffects(root, child)
		}
	}

	flags := f.flags
	if flags&Placement != 0 {
		r.commitPlacement(root, f)
		f.flags &^= Placement
	}
	if flags&Update != 0 {
		r.commitUpdate(f)
		f.flags &^= Update
	}
	if flags&ChildDeletion != 0 {
		f.flags &^= ChildDeletion
	}
	if flags&Ref != 0 && f.alternate != nil {
		detachRef(f.alternate.ref)
	}
	if flags&Visibility != 0 {
		r.commitVisibility(f, offscreenMode(f.memoizedProps) == offscreenHidden)
		f.flags &^= Visibility
	}
	if flags&Passive != 0 && f.updateQueue != nil {
		root.pendingPassive.update = append(root.pendingPassive.update, f.updateQueue)
	}
}

func (r *Reconciler) notifyCommit(info CommitInfo) {
	defer fibererrors.Recover("core.onCommit")
	r.onCommit(info)
}

func (r *Reconciler) commitUpdate(f *fiber) {
	current := f.alternate
	switch f.tag {
	case HostComponent:
		var old element.Props
		if current != nil {
			old = current.memoizedProps
		}
		r.host.CommitUpdate(f.stateNode, f.typ.(string), hostProps(old), hostProps(f.memoizedProps))
	case HostText:
		var old string
		if current != nil {
			old, _ = current.memoizedProps.Get("content").(string)
		}
		text, _ := f.memoizedProps.Get("content").(string)
		r.host.CommitTextUpdate(f.stateNode, old, text)
	}
}

func isHostParent(f *fiber) bool {
	return f.tag == HostComponent || f.tag == HostRoot
}

// hostParentOf returns the instance the host nodes of f are children of.
func hostParentOf(root *Root, f *fiber) any {
	for p := f.parent; p != nil; p = p.parent {
		switch p.tag {
		case HostComponent:
			return p.stateNode
		case HostRoot:
			return root.container
		}
	}
	return root.container
}

// hostSibling finds the host instance f's nodes must be inserted before: the
// first following host node that is not itself being placed.
func hostSibling(f *fiber) any {
	node := f
siblings:
	for {
		for node.sibling == nil {
			if node.parent == nil || isHostParent(node.parent) {
				return nil
			}
			node = node.parent
		}
		node.sibling.parent = node.parent
		node = node.sibling
		for node.tag != HostComponent && node.tag != HostText {
			if node.flags&Placement != 0 || node.child == nil {
				continue siblings
			}
			node.child.parent = node
			node = node.child
		}
		if node.flags&Placement == 0 {
			return node.stateNode
		}
	}
}

func (r *Reconciler) commitPlacement(root *Root, f *fiber) {
	parent := hostParentOf(root, f)
	before := hostSibling(f)
	r.insertOrAppend(f, before, parent)
}

func (r *Reconciler) insertOrAppend(f *fiber, before, parent any) {
	if f.tag == HostComponent || f.tag == HostText {
		if before != nil {
			r.host.InsertBefore(parent, f.stateNode, before)
		} else {
			r.host.AppendChild(parent, f.stateNode)
		}
		return
	}
	for child := f.child; child != nil; child = child.sibling {
		r.insertOrAppend(child, before, parent)
	}
}

// commitVisibility hides or shows the topmost host nodes below an offscreen
// fiber. Nested hidden offscreen subtrees keep their own state.
func (r *Reconciler) commitVisibility(offscreen *fiber, hidden bool) {
	var walk func(f *fiber)
	walk = func(f *fiber) {
		for child := f.child; child != nil; child = child.sibling {
			switch {
			case child.tag == HostComponent || child.tag == HostText:
				if hidden {
					r.host.HideInstance(child.stateNode)
				} else {
					r.host.UnhideInstance(child.stateNode)
				}
			case child.tag == OffscreenComponent && offscreenMode(child.memoizedProps) == offscreenHidden:
			default:
				walk(child)
			}
		}
	}
	walk(offscreen)
}

// commitDeletion unmounts the subtree rooted at deleted: its effects are
// queued for destruction, its refs detached, its topmost host nodes removed
// from the host, and finally its fibers are unlinked.
func (r *Reconciler) commitDeletion(root *Root, parentFiber, deleted *fiber) {
	var hostNodes []any
	var walk func(f *fiber, underHost bool)
	walk = func(f *fiber, underHost bool) {
		switch f.tag {
		case HostComponent, HostText:
			if !underHost {
				hostNodes = append(hostNodes, f.stateNode)
			}
			detachRef(f.ref)
			underHost = true
		case FunctionComponent:
			if f.updateQueue != nil {
				root.pendingPassive.unmount = append(root.pendingPassive.unmount, f.updateQueue)
			}
		}
		for child := f.child; child != nil; child = child.sibling {
			walk(child, underHost)
		}
	}
	walk(deleted, false)

	if len(hostNodes) > 0 {
		var parent any
		if isHostParent(parentFiber) {
			if parentFiber.tag == HostRoot {
				parent = root.container
			} else {
				parent = parentFiber.stateNode
			}
		} else {
			parent = hostParentOf(root, parentFiber)
		}
		for _, inst := range hostNodes {
			r.host.RemoveChild(parent, inst)
		}
	}
	detachSubtree(deleted)
}

// detachSubtree unlinks every fiber below and including f, in both
// generations, so updates to them are recognised as unmounted.
func detachSubtree(f *fiber) {
	child := f.child
	for child != nil {
		next := child.sibling
		detachSubtree(child)
		child = next
	}
	if alt := f.alternate; alt != nil {
		alt.parent = nil
		alt.child = nil
		alt.sibling = nil
		alt.alternate = nil
	}
	f.parent = nil
	f.child = nil
	f.sibling = nil
	f.alternate = nil
}

// commitLayoutEffects attaches refs on the committed tree.
func (r *Reconciler) commitLayoutEffects(f *fiber) {
	if f.subtreeFlags&LayoutMask != 0 {
		for child := f.child; child != nil; child = child.sibling {
			r.commitLayoutEffects(child)
		}
	}
	if f.flags&Ref != 0 && f.tag == HostComponent {
		attachRef(f.ref, f.stateNode)
		f.flags &^= Ref
	}
}

func attachRef(ref, inst any) {
	switch ref := ref.(type) {
	case *element.Ref:
		ref.Current = inst
	case func(any):
		defer fibererrors.RecoverWithCallback("core.attachRef", reportAs("core.attachRef", fibererrors.KindCommit))
		ref(inst)
	}
}

func detachRef(ref any) {
	switch ref := ref.(type) {
	case *element.Ref:
		ref.Current = nil
	case func(any):
		defer fibererrors.RecoverWithCallback("core.detachRef", reportAs("core.detachRef", fibererrors.KindCommit))
		ref(nil)
	}
}

// flushPassiveEffects runs every queued destroy, then every queued create,
// for root. Updates scheduled by effects use the default lane. It reports
// whether anything ran. A flush run ahead of its scheduled task cancels it.
func (r *Reconciler) flushPassiveEffects(root *Root) bool {
	if task := root.passiveTask; task != nil {
		if task != r.sched.Current() {
			r.sched.Cancel(task)
		}
		root.passiveTask = nil
	}
	pending := root.pendingPassive
	root.pendingPassive = pendingPassiveEffects{}
	if len(pending.unmount) == 0 && len(pending.update) == 0 {
		return false
	}

	prev := r.updateLane
	r.updateLane = lanes.DefaultLane

	for _, q := range pending.unmount {
		q.each(func(e *effect) {
			if e.tag&effectPassive != 0 {
				runDestroy(e)
			}
		})
	}
	for _, q := range pending.update {
		q.each(func(e *effect) {
			if e.tag&(effectPassive|effectHasEffect) == effectPassive|effectHasEffect {
				runDestroy(e)
			}
		})
	}
	for _, q := range pending.update {
		q.each(func(e *effect) {
			if e.tag&(effectPassive|effectHasEffect) == effectPassive|effectHasEffect {
				runCreate(e)
			}
		})
	}
	r.updateLane = prev
	r.flushSyncCallbacks()
	return true
}

func runDestroy(e *effect) {
	destroy := e.destroy
	e.destroy = nil
	if destroy == nil {
		return
	}
	defer fibererrors.RecoverWithCallback("core.effectDestroy", reportAs("core.effectDestroy", fibererrors.KindEffect))
	destroy()
}

func runCreate(e *effect) {
	if e.create == nil {
		return
	}
	defer fibererrors.RecoverWithCallback("core.effectCreate", reportAs("core.effectCreate", fibererrors.KindEffect))
	e.destroy = e.create()
}

// reportAs returns a recovery callback that reports a panic raised in op as
// a FiberError of kind wrapping the panic.
func reportAs(op string, kind fibererrors.ErrorKind) func(any) {
	return func(rec any) {
		fibererrors.Report(&fibererrors.FiberError{
			Op:         op,
			Kind:       kind,
			Err:        &fibererrors.PanicError{Op: op, Value: rec},
			StackTrace: fibererrors.CaptureStack(),
		})
	}
}
