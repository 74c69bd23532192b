// Package host defines the capabilities the reconciler needs from a
// concrete rendering target.
//
// The reconciler never inspects instances; it only hands back what
// CreateInstance and CreateTextInstance returned. A container is the
// instance a root renders into.
package host

// Instance is an opaque handle owned by the host.
type Instance = any

// Config is implemented by a rendering target.
type Config interface {
	// CreateInstance creates a detached instance of the given kind.
	CreateInstance(kind string, props map[string]any) Instance
	// CreateTextInstance creates a detached text instance.
	CreateTextInstance(text string) Instance
	// AppendInitialChild appends child to a parent that is not yet attached.
	AppendInitialChild(parent, child Instance)
	// AppendChild appends child to parent, moving it if already present.
	// parent may be a container.
	AppendChild(parent, child Instance)
	// InsertBefore inserts child into parent ahead of before, moving it if
	// already present.
	InsertBefore(parent, child, before Instance)
	// RemoveChild detaches child from parent.
	RemoveChild(parent, child Instance)
	// CommitUpdate applies a props change to an instance.
	CommitUpdate(inst Instance, kind string, oldProps, newProps map[string]any)
	// CommitTextUpdate replaces the content of a text instance.
	CommitTextUpdate(inst Instance, oldText, newText string)
	// HideInstance and UnhideInstance toggle visibility without detaching.
	HideInstance(inst Instance)
	UnhideInstance(inst Instance)
	// ScheduleMicrotask runs fn after the current task and before the next.
	ScheduleMicrotask(fn func())
}
