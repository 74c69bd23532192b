package core

import (
	"reflect"

	"github.com/go-drift/fiber/pkg/element"
)

// fiber is one generation of a node in the work tree. Every logical node has
// at most two fibers, the committed one and the work-in-progress one, linked
// through alternate.
type fiber struct {
	tag    Tag
	key    string
	hasKey bool
	typ    any
	// stateNode is the host instance for host fibers and the *Root for the
	// host root.
	stateNode any
	ref       any

	parent  *fiber
	child   *fiber
	sibling *fiber
	index   int

	pendingProps  element.Props
	memoizedProps element.Props
	// memoizedState is the hook list for function components and the root
	// update hook for the host root.
	memoizedState any
	// updateQueue holds the effect list of a function component.
	updateQueue *effectQueue

	alternate    *fiber
	flags        Flags
	subtreeFlags Flags
	deletions    []*fiber
}

func newFiber(tag Tag, props element.Props, key string, hasKey bool) *fiber {
	return &fiber{tag: tag, pendingProps: props, key: key, hasKey: hasKey}
}

// createWorkInProgress returns the alternate of current prepared for a new
// render with props. The alternate is reused when it exists.
func createWorkInProgress(current *fiber, props element.Props) *fiber {
	wip := current.alternate
	if wip == nil {
		wip = newFiber(current.tag, props, current.key, current.hasKey)
		wip.typ = current.typ
		wip.stateNode = current.stateNode
		wip.alternate = current
		current.alternate = wip
	} else {
		wip.pendingProps = props
		wip.flags = NoFlags
		wip.subtreeFlags = NoFlags
		wip.deletions = nil
	}
	wip.typ = current.typ
	wip.ref = current.ref
	wip.child = current.child
	wip.memoizedProps = current.memoizedProps
	wip.memoizedState = current.memoizedState
	wip.updateQueue = current.updateQueue
	return wip
}

func createFiberFromElement(el *element.Element) (*fiber, bool) {
	var tag Tag
	props := el.Props
	switch t := el.Type.(type) {
	case string:
		tag = HostComponent
	case *element.Provider:
		tag = ContextProvider
	default:
		switch {
		case t == nil:
			return nil, false
		case el.Type == element.FragmentType:
			tag = Fragment
		case el.Type == element.SuspenseType:
			tag = SuspenseComponent
		case isComponent(el.Type):
			tag = FunctionComponent
		default:
			return nil, false
		}
	}
	f := newFiber(tag, props, el.Key, el.HasKey)
	f.typ = el.Type
	f.ref = el.Ref
	return f, true
}

func createFiberFromFragment(children []element.Node, key string, hasKey bool) *fiber {
	return newFiber(Fragment, element.Props{"children": children}, key, hasKey)
}

func createFiberFromText(text string) *fiber {
	return newFiber(HostText, textProps(text), "", false)
}

func createFiberFromOffscreen(props element.Props) *fiber {
	return newFiber(OffscreenComponent, props, "", false)
}

func textProps(text string) element.Props {
	return element.Props{"content": text}
}

func isComponent(typ any) bool {
	switch typ.(type) {
	case Component, func(*Hooks, element.Props) element.Node:
		return true
	}
	return false
}

// sameType reports whether a fiber created for typ a can be reused for an
// element of type b. Functions are compared by code pointer.
func sameType(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Func || vb.Kind() == reflect.Func {
		return va.Kind() == vb.Kind() && va.Pointer() == vb.Pointer()
	}
	if !va.IsValid() || !vb.IsValid() {
		return !va.IsValid() && !vb.IsValid()
	}
	if !va.Type().Comparable() || va.Type() != vb.Type() {
		return false
	}
	return a == b
}

// componentName names the fiber for diagnostics.
func componentName(f *fiber) string {
	if f == nil {
		return "<unknown>"
	}
	switch f.tag {
	case HostRoot:
		return "HostRoot"
	case HostText:
		return "#text"
	case OffscreenComponent:
		return "Offscreen"
	}
	return element.TypeName(f.typ)
}

// rootOf walks up from f and returns the root it is mounted in, or nil.
func rootOf(f *fiber) *Root {
	node := f
	for node.parent != nil {
		node = node.parent
	}
	if node.tag == HostRoot {
		root, _ := node.stateNode.(*Root)
		return root
	}
	return nil
}
