// Package update implements the per-slot pending update queue and the
// priority-aware replay that turns a queue into state.
//
// Updates form a circular singly linked list addressed by its tail, so
// appending is O(1) and traversal starts at tail.Next(). When a render skips
// an update whose lane is not being rendered, Process keeps it (and every
// update after it) in a base queue and freezes the base state at the value
// computed before the first skip, so a later render that includes the skipped
// lane replays from a consistent point and reaches the same final state as an
// uninterrupted run.
package update

import "github.com/go-drift/fiber/pkg/lanes"

// Action is either a replacement value or a pure transform of the previous
// state.
type Action[S any] struct {
	value     S
	transform func(S) S
}

// Replace returns an action that sets the state to value.
func Replace[S any](value S) Action[S] {
	return Action[S]{value: value}
}

// Transform returns an action that derives the next state from the previous.
func Transform[S any](fn func(S) S) Action[S] {
	return Action[S]{transform: fn}
}

// Apply returns the state produced by applying a to prev.
func (a Action[S]) Apply(prev S) S {
	if a.transform != nil {
		return a.transform(prev)
	}
	return a.value
}

// IsTransform reports whether a derives its result from the previous state.
func (a Action[S]) IsTransform() bool {
	return a.transform != nil
}

// Update is a single pending state change tagged with the lane it was
// requested at.
type Update[S any] struct {
	Action Action[S]
	Lane   lanes.Lane
	next   *Update[S]
}

// New creates a detached update.
func New[S any](action Action[S], lane lanes.Lane) *Update[S] {
	return &Update[S]{Action: action, Lane: lane}
}

// Next returns the following update in the circular list.
func (u *Update[S]) Next() *Update[S] {
	return u.next
}

// Queue holds the pending updates for one stateful slot.
//
// Queue is not safe for concurrent use; updates must be enqueued from the
// goroutine that drives the reconciler.
type Queue[S any] struct {
	pending *Update[S]
}

// NewQueue returns an empty queue.
func NewQueue[S any]() *Queue[S] {
	return &Queue[S]{}
}

// Enqueue appends u at the tail of the pending list.
func (q *Queue[S]) Enqueue(u *Update[S]) {
	if q.pending == nil {
		u.next = u
	} else {
		u.next = q.pending.next
		q.pending.next = u
	}
	q.pending = u
}

// Pending returns the tail of the pending list, or nil.
func (q *Queue[S]) Pending() *Update[S] {
	return q.pending
}

// TakePending detaches and returns the pending list.
func (q *Queue[S]) TakePending() *Update[S] {
	pending := q.pending
	q.pending = nil
	return pending
}

// Merge splices the circular list pending after base and returns the new
// tail. Either argument may be nil.
func Merge[S any](base, pending *Update[S]) *Update[S] {
	if base == nil {
		return pending
	}
	if pending == nil {
		return base
	}
	baseFirst := base.next
	pendingFirst := pending.next
	base.next = pendingFirst
	pending.next = baseFirst
	return pending
}

// Slice returns the updates of a circular list in application order.
func Slice[S any](tail *Update[S]) []*Update[S] {
	if tail == nil {
		return nil
	}
	var out []*Update[S]
	for u := tail.next; ; u = u.next {
		out = append(out, u)
		if u == tail {
			break
		}
	}
	return out
}

// Result is the outcome of replaying a queue at one render lane.
type Result[S any] struct {
	// MemoizedState is the state for this render, reflecting only the
	// updates whose lanes were included.
	MemoizedState S
	// BaseState is the state the next replay starts from.
	BaseState S
	// BaseQueue is the tail of the updates still to be replayed, or nil.
	BaseQueue *Update[S]
	// SkippedLanes is the union of the lanes of the updates that were not
	// applied. Work at those lanes is still owed.
	SkippedLanes lanes.Lanes
}

// Process replays the circular list ending at pending on top of baseState,
// applying only updates whose lane is contained in renderLane. It does not
// modify its input list.
func Process[S any](baseState S, pending *Update[S], renderLane lanes.Lanes) Result[S] {
	result := Result[S]{MemoizedState: baseState, BaseState: baseState}
	if pending == nil {
		return result
	}

	newState := baseState
	newBaseState := baseState
	var baseFirst, baseLast *Update[S]

	first := pending.next
	u := first
	for {
		if !lanes.IsSubset(renderLane, u.Lane) {
			clone := New(u.Action, u.Lane)
			if baseLast == nil {
				baseFirst = clone
				newBaseState = newState
			} else {
				baseLast.next = clone
			}
			baseLast = clone
			result.SkippedLanes = lanes.Merge(result.SkippedLanes, u.Lane)
		} else {
			if baseLast != nil {
				// NoLane is a subset of every render lane, so this copy is
				// applied by whichever render replays the base queue.
				clone := New(u.Action, lanes.NoLane)
				baseLast.next = clone
				baseLast = clone
			}
			newState = u.Action.Apply(newState)
		}
		u = u.next
		if u == first {
			break
		}
	}

	if baseLast == nil {
		newBaseState = newState
	} else {
		baseLast.next = baseFirst
	}

	result.MemoizedState = newState
	result.BaseState = newBaseState
	result.BaseQueue = baseLast
	return result
}
