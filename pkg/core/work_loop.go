package core

import (
	"errors"
	"fmt"

	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/lanes"
	"github.com/go-drift/fiber/pkg/scheduler"
)

type exitStatus uint8

const (
	rootIncomplete exitStatus = iota
	rootCompleted
	rootErrored
)

type executionContext uint8

const (
	renderContext executionContext = 1 << iota
	commitContext
)

// nestedUpdateLimit bounds how many synchronous commits in a row may leave
// more synchronous work behind on the same root.
const nestedUpdateLimit = 50

// ErrUpdateDepthExceeded is reported when a component keeps scheduling
// synchronous updates from render or commit.
var ErrUpdateDepthExceeded = errors.New("maximum update depth exceeded")

// requestUpdateLane returns the lane for an update requested now.
func (r *Reconciler) requestUpdateLane() lanes.Lane {
	if r.updateLane != lanes.NoLane {
		return r.updateLane
	}
	return lanes.SyncLane
}

// RunWithPriority runs fn with updates it requests assigned to the lane of
// priority p.
func (r *Reconciler) RunWithPriority(p scheduler.Priority, fn func()) {
	prev := r.updateLane
	r.updateLane = priorityToLane(p)
	defer func() { r.updateLane = prev }()
	fn()
}

// StartTransition runs fn with updates it requests marked as a transition,
// which renders in time slices and yields to more urgent work.
func (r *Reconciler) StartTransition(fn func()) {
	r.RunWithPriority(scheduler.LowPriority, fn)
}

func priorityToLane(p scheduler.Priority) lanes.Lane {
	switch p {
	case scheduler.ImmediatePriority:
		return lanes.SyncLane
	case scheduler.UserBlockingPriority:
		return lanes.InputContinuousLane
	case scheduler.LowPriority:
		return lanes.TransitionLane
	case scheduler.IdlePriority:
		return lanes.IdleLane
	default:
		return lanes.DefaultLane
	}
}

func laneToPriority(lane lanes.Lane) scheduler.Priority {
	switch lanes.HighestPriority(lane) {
	case lanes.SyncLane:
		return scheduler.ImmediatePriority
	case lanes.InputContinuousLane:
		return scheduler.UserBlockingPriority
	case lanes.DefaultLane:
		return scheduler.NormalPriority
	case lanes.TransitionLane:
		return scheduler.LowPriority
	default:
		return scheduler.IdlePriority
	}
}

// scheduleUpdateOnFiber records lane on the root that owns f and makes sure
// the root has a callback for its most urgent work.
func (r *Reconciler) scheduleUpdateOnFiber(f *fiber, lane lanes.Lane) {
	root := rootOf(f)
	if root == nil {
		r.warn("core.scheduleUpdateOnFiber", "update on an unmounted component %s", componentName(f))
		return
	}
	root.pendingLanes = lanes.Merge(root.pendingLanes, lane)
	if r.wipRoot == root && r.workInProgress != nil {
		// The update may land on a fiber this render already passed, so its
		// lane must outlive the commit that clears the rendered lanes.
		root.interleavedLanes = lanes.Merge(root.interleavedLanes, lane)
	}
	r.ensureRootIsScheduled(root)
}

// ensureRootIsScheduled schedules (or keeps) one callback for the most
// urgent pending lane of root. Calls made while rendering or committing are
// deferred until that work returns.
func (r *Reconciler) ensureRootIsScheduled(root *Root) {
	if r.execution != 0 {
		r.deferRoot(root)
		return
	}
	lane := lanes.HighestPriority(root.pendingLanes)
	existing := root.callbackNode

	if lane == lanes.NoLane {
		if existing != nil {
			r.sched.Cancel(existing)
		}
		root.callbackNode = nil
		root.callbackPriority = lanes.NoLane
		return
	}
	if lane == root.callbackPriority {
		return
	}
	if existing != nil {
		r.sched.Cancel(existing)
	}

	var task *scheduler.Task
	if lane == lanes.SyncLane {
		r.scheduleSyncCallback(func() { r.performSyncWorkOnRoot(root) })
		r.host.ScheduleMicrotask(r.flushSyncCallbacks)
	} else {
		task = r.sched.Schedule(laneToPriority(lane), r.concurrentCallback(root))
	}
	root.callbackNode = task
	root.callbackPriority = lane
}

func (r *Reconciler) deferRoot(root *Root) {
	for _, d := range r.deferred {
		if d == root {
			return
		}
	}
	r.deferred = append(r.deferred, root)
}

func (r *Reconciler) flushDeferredRoots() {
	for len(r.deferred) > 0 && r.execution == 0 {
		root := r.deferred[0]
		r.deferred = r.deferred[1:]
		r.ensureRootIsScheduled(root)
	}
}

func (r *Reconciler) scheduleSyncCallback(cb func()) {
	r.syncQueue = append(r.syncQueue, cb)
}

// flushSyncCallbacks runs queued synchronous work, including work queued
// while it runs. Nested calls return immediately.
func (r *Reconciler) flushSyncCallbacks() {
	if r.flushingSync {
		return
	}
	r.flushingSync = true
	defer func() { r.flushingSync = false }()
	for len(r.syncQueue) > 0 {
		queue := r.syncQueue
		r.syncQueue = nil
		for _, cb := range queue {
			cb()
		}
	}
}

func (r *Reconciler) concurrentCallback(root *Root) scheduler.Callback {
	return func(didTimeout bool) scheduler.Callback {
		return r.performConcurrentWorkOnRoot(root, didTimeout)
	}
}

// performConcurrentWorkOnRoot is the scheduler task for non-sync lanes. It
// renders in time slices unless the task expired, and returns itself as a
// continuation when it yields with the same work still most urgent.
func (r *Reconciler) performConcurrentWorkOnRoot(root *Root, didTimeout bool) scheduler.Callback {
	defer r.flushDeferredRoots()

	original := root.callbackNode
	if r.flushPassiveEffects(root) && root.callbackNode != original {
		return nil
	}

	lane := lanes.HighestPriority(root.pendingLanes)
	if lane == lanes.NoLane {
		return nil
	}
	shouldTimeSlice := lane != lanes.SyncLane && !didTimeout
	status := r.renderRoot(root, lane, shouldTimeSlice)

	switch status {
	case rootIncomplete:
		r.ensureRootIsScheduled(root)
		if root.callbackNode == original {
			return r.concurrentCallback(root)
		}
	case rootCompleted:
		r.finishRender(root, lane)
	case rootErrored:
		root.callbackNode = nil
		root.callbackPriority = lanes.NoLane
		r.ensureRootIsScheduled(root)
	}
	return nil
}

// performSyncWorkOnRoot renders and commits the sync lane without yielding.
func (r *Reconciler) performSyncWorkOnRoot(root *Root) {
	defer r.flushDeferredRoots()

	r.flushPassiveEffects(root)
	if lanes.HighestPriority(root.pendingLanes) != lanes.SyncLane {
		r.ensureRootIsScheduled(root)
		return
	}
	switch r.renderRoot(root, lanes.SyncLane, false) {
	case rootCompleted:
		r.finishRender(root, lanes.SyncLane)
	case rootErrored:
		root.callbackNode = nil
		root.callbackPriority = lanes.NoLane
		r.ensureRootIsScheduled(root)
	}
}

func (r *Reconciler) finishRender(root *Root, lane lanes.Lane) {
	root.finishedWork = root.current.alternate
	root.finishedLane = lane
	r.wipRoot = nil
	r.wipRootRenderLane = lanes.NoLane
	r.commitRoot(root)
}

// prepareFreshStack discards any unfinished tree and starts a new one from
// the committed tree of root.
func (r *Reconciler) prepareFreshStack(root *Root, lane lanes.Lane) {
	root.finishedWork = nil
	root.finishedLane = lanes.NoLane
	root.interleavedLanes = lanes.NoLanes
	r.skippedLanes = lanes.NoLanes
	r.contexts.reset()
	r.workInProgress = createWorkInProgress(root.current, nil)
	r.wipRoot = root
	r.wipRootRenderLane = lane
}

// renderRoot runs the work loop for lane. A render of a different root or
// lane than the unfinished one starts over from the committed tree.
func (r *Reconciler) renderRoot(root *Root, lane lanes.Lane, shouldTimeSlice bool) exitStatus {
	if r.wipRoot != root || r.wipRootRenderLane != lane || r.workInProgress == nil {
		r.prepareFreshStack(root, lane)
	}

	r.execution |= renderContext
	err := r.runWorkLoop(shouldTimeSlice)
	r.execution &^= renderContext

	if err != nil {
		r.handleRenderError(root, lane, err)
		return rootErrored
	}
	if r.workInProgress != nil {
		return rootIncomplete
	}
	return rootCompleted
}

// runWorkLoop converts a panic in a component into an error. The fiber that
// failed is left in r.workInProgress.
func (r *Reconciler) runWorkLoop(shouldTimeSlice bool) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &fibererrors.RenderError{
				Component:  componentName(r.workInProgress),
				Recovered:  rec,
				Err:        asError(rec),
				StackTrace: fibererrors.CaptureStack(),
			}
		}
	}()
	if shouldTimeSlice {
		r.workLoopConcurrent()
	} else {
		r.workLoopSync()
	}
	return nil
}

func asError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}

// renderRetryLimit is how many times a failed lane is rendered again from the
// committed tree before it is given up.
const renderRetryLimit = 3

// handleRenderError drops the unfinished tree. The committed tree stays
// visible and the failed lane stays pending, so the next scheduled render
// retries it from scratch. After renderRetryLimit retries the error is
// reported and the lane is cleared; its updates remain queued and are
// replayed by the next render that includes them.
func (r *Reconciler) handleRenderError(root *Root, lane lanes.Lane, err error) {
	r.workInProgress = nil
	r.wipRoot = nil
	r.wipRootRenderLane = lanes.NoLane
	r.hooks = hookRenderState{}
	r.contexts.reset()
	r.skippedLanes = lanes.NoLanes

	if root.renderRetries < renderRetryLimit {
		root.renderRetries++
		return
	}
	root.renderRetries = 0

	var renderErr *fibererrors.RenderError
	if !errors.As(err, &renderErr) {
		renderErr = &fibererrors.RenderError{Component: "<unknown>", Err: err}
	}
	renderErr.Lane = lane.String()
	fibererrors.ReportRenderError(renderErr)

	// Interleaved updates at the failed lane were made after the render
	// started and still get their own attempt.
	root.pendingLanes = lanes.Merge(lanes.Remove(root.pendingLanes, lane), root.interleavedLanes)
	root.interleavedLanes = lanes.NoLanes
	r.lastRenderError = renderErr
}

func (r *Reconciler) workLoopSync() {
	for r.workInProgress != nil {
		r.performUnitOfWork(r.workInProgress)
	}
}

func (r *Reconciler) workLoopConcurrent() {
	for r.workInProgress != nil && !r.sched.ShouldYield() {
		r.performUnitOfWork(r.workInProgress)
	}
}

func (r *Reconciler) performUnitOfWork(f *fiber) {
	next := r.beginWork(f, r.wipRootRenderLane)
	f.memoizedProps = f.pendingProps
	if next == nil {
		r.completeUnitOfWork(f)
	} else {
		r.workInProgress = next
	}
}

func (r *Reconciler) completeUnitOfWork(f *fiber) {
	node := f
	for node != nil {
		r.completeWork(node)
		if node.sibling != nil {
			r.workInProgress = node.sibling
			return
		}
		node = node.parent
		r.workInProgress = node
	}
}

// checkNestedUpdates counts back-to-back commits that leave sync work on the
// same root and reports when the count passes nestedUpdateLimit.
func (r *Reconciler) checkNestedUpdates(root *Root) {
	if !lanes.Includes(root.pendingLanes, lanes.SyncLane) {
		r.nestedUpdateCount = 0
		r.nestedUpdateRoot = nil
		return
	}
	if root != r.nestedUpdateRoot {
		r.nestedUpdateRoot = root
		r.nestedUpdateCount = 0
	}
	r.nestedUpdateCount++
	if r.nestedUpdateCount > nestedUpdateLimit {
		fibererrors.Report(&fibererrors.FiberError{
			Op:   "core.commitRoot",
			Kind: fibererrors.KindSchedule,
			Err:  fmt.Errorf("%w: %d synchronous re-renders", ErrUpdateDepthExceeded, r.nestedUpdateCount),
		})
		root.pendingLanes = lanes.Remove(root.pendingLanes, lanes.SyncLane)
		r.nestedUpdateCount = 0
		r.nestedUpdateRoot = nil
	}
}
