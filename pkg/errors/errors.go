// Package errors provides structured error reporting for the fiber reconciler.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindCommit indicates a failure while applying a commit, such as a
	// panicking ref callback.
	KindCommit
	// KindEffect indicates a failing effect create or destroy callback.
	KindEffect
	// KindSchedule indicates an update that could not be scheduled.
	KindSchedule
)

func (k ErrorKind) String() string {
	switch k {
	case KindCommit:
		return "commit"
	case KindEffect:
		return "effect"
	case KindSchedule:
		return "schedule"
	default:
		return "unknown"
	}
}

// FiberError represents a structured error raised by the reconciler.
type FiberError struct {
	// Op is the operation that failed (e.g., "core.commitMutationEffects").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *FiberError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *FiberError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "core.flushPassiveEffects").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// RenderError represents a render that was aborted. The work-in-progress tree
// is discarded and the committed tree stays visible.
type RenderError struct {
	// Component is the name of the component that failed.
	Component string
	// Lane names the lanes being rendered.
	Lane string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error (nil for panics that were not errors).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error rendering %s at lane %s: %v", e.Component, e.Lane, e.Err)
	}
	if e.Recovered != nil {
		return fmt.Sprintf("panic rendering %s at lane %s: %v", e.Component, e.Lane, e.Recovered)
	}
	return fmt.Sprintf("unknown error rendering %s at lane %s", e.Component, e.Lane)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// HookError reports a component whose hook calls differ from its previous
// render.
type HookError struct {
	Component string
	// Index is the position of the first mismatching hook.
	Index  int
	Reason string
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %d in %s: %s", e.Index, e.Component, e.Reason)
}

// ErrorHandler receives errors reported by the reconciler.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *FiberError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleRenderError is called when a render is aborted.
	HandleRenderError(err *RenderError)
	// HandleWarning is called for development warnings.
	HandleWarning(op, msg string)
}
