package core

import (
	"time"

	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/element"
	"github.com/go-drift/fiber/pkg/host"
	"github.com/go-drift/fiber/pkg/lanes"
	"github.com/go-drift/fiber/pkg/scheduler"
	"github.com/go-drift/fiber/pkg/update"
)

// Config configures a Reconciler.
type Config struct {
	// Host applies committed mutations. Required.
	Host host.Config
	// Scheduler runs non-synchronous renders and passive effects. When nil
	// a scheduler on the system clock is created; the caller must then drive
	// it through Reconciler.Scheduler.
	Scheduler *scheduler.Scheduler
	// OnCommit, if set, is called after every commit.
	OnCommit func(CommitInfo)
}

// CommitInfo describes one commit.
type CommitInfo struct {
	Root     *Root
	Lane     lanes.Lane
	Duration time.Duration
}

// Reconciler owns the render state shared by its roots. It is not safe for
// concurrent use: all calls, including state setters, must come from the
// goroutine driving its scheduler.
type Reconciler struct {
	host     host.Config
	sched    *scheduler.Scheduler
	onCommit func(CommitInfo)

	workInProgress    *fiber
	wipRoot           *Root
	wipRootRenderLane lanes.Lane
	// skippedLanes collects the lanes of updates the render in flight left
	// unprocessed.
	skippedLanes lanes.Lanes
	execution         executionContext
	deferred          []*Root

	syncQueue    []func()
	flushingSync bool

	updateLane lanes.Lane
	hooks      hookRenderState
	contexts   contextStack

	nestedUpdateCount int
	nestedUpdateRoot  *Root
	lastRenderError   *fibererrors.RenderError
}

// NewReconciler creates a reconciler.
func NewReconciler(cfg Config) *Reconciler {
	if cfg.Host == nil {
		panic("core: Config.Host is required")
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = scheduler.New(scheduler.Options{})
	}
	return &Reconciler{
		host:     cfg.Host,
		sched:    cfg.Scheduler,
		onCommit: cfg.OnCommit,
	}
}

// Scheduler returns the scheduler the reconciler schedules work on.
func (r *Reconciler) Scheduler() *scheduler.Scheduler {
	return r.sched
}

// FlushSync runs any pending synchronous work now instead of waiting for the
// host microtask.
func (r *Reconciler) FlushSync() {
	r.flushSyncCallbacks()
}

// LastRenderError returns the most recent render failure, or nil.
func (r *Reconciler) LastRenderError() *fibererrors.RenderError {
	return r.lastRenderError
}

// Root is a tree rendered into one host container.
type Root struct {
	r         *Reconciler
	container any
	current   *fiber

	finishedWork     *fiber
	finishedLane     lanes.Lane
	pendingLanes     lanes.Lanes
	interleavedLanes lanes.Lanes

	callbackNode     *scheduler.Task
	callbackPriority lanes.Lane
	// renderRetries counts failed renders since the last commit.
	renderRetries int

	pendingPassive   pendingPassiveEffects
	// passiveTask is the scheduled passive effect flush, if any.
	passiveTask *scheduler.Task
}

// CreateRoot creates an empty root rendering into container.
func (r *Reconciler) CreateRoot(container any) *Root {
	root := &Root{r: r, container: container}
	hostRoot := newFiber(HostRoot, nil, "", false)
	hostRoot.stateNode = root
	hostRoot.memoizedState = &hook{kind: hookRoot, queue: update.NewQueue[any]()}
	root.current = hostRoot
	return root
}

// Render schedules the root to show node. With the default lane the commit
// happens in the next host microtask.
func (root *Root) Render(node element.Node) {
	r := root.r
	lane := r.requestUpdateLane()
	hk := root.current.memoizedState.(*hook)
	hk.queue.Enqueue(update.New(update.Replace[any](node), lane))
	r.scheduleUpdateOnFiber(root.current, lane)
}

// Unmount schedules the root to render nothing, which runs every effect
// destroy in the tree.
func (root *Root) Unmount() {
	root.Render(nil)
}

// Container returns the host container of the root.
func (root *Root) Container() any {
	return root.container
}

// PendingLanes returns the lanes with work not yet committed.
func (root *Root) PendingLanes() lanes.Lanes {
	return root.pendingLanes
}

// CallbackPriority returns the lane of the currently scheduled callback.
func (root *Root) CallbackPriority() lanes.Lane {
	return root.callbackPriority
}

// HasPendingPassiveEffects reports whether effects await their flush.
func (root *Root) HasPendingPassiveEffects() bool {
	return len(root.pendingPassive.unmount)+len(root.pendingPassive.update) > 0
}
