package core

import (
	"github.com/go-drift/fiber/pkg/element"
)

// completeWork finishes wip once all of its children are complete: host
// fibers get their instances, and every fiber folds its children's flags into
// subtreeFlags.
func (r *Reconciler) completeWork(wip *fiber) {
	current := wip.alternate
	props := wip.pendingProps

	switch wip.tag {
	case HostComponent:
		if current != nil && wip.stateNode != nil {
			if !propsEqual(current.memoizedProps, props) {
				wip.flags |= Update
			}
		} else {
			inst := r.host.CreateInstance(wip.typ.(string), hostProps(props))
			r.appendAllChildren(inst, wip)
			wip.stateNode = inst
		}
	case HostText:
		text, _ := props.Get("content").(string)
		if current != nil && wip.stateNode != nil {
			if old, _ := current.memoizedProps.Get("content").(string); old != text {
				wip.flags |= Update
			}
		} else {
			wip.stateNode = r.host.CreateTextInstance(text)
		}
	case ContextProvider:
		r.contexts.pop()
	case SuspenseComponent:
		primary := wip.child
		if primary != nil && primary.alternate != nil {
			if offscreenMode(primary.memoizedProps) != offscreenMode(primary.alternate.memoizedProps) {
				primary.flags |= Visibility
			}
		}
	case HostRoot, FunctionComponent, Fragment, OffscreenComponent:
	default:
		r.warn("core.completeWork", "unknown fiber tag %d", wip.tag)
	}
	bubbleProperties(wip)
}

// appendAllChildren attaches the topmost host instances below wip to parent.
// Fibers without an instance are walked through into their children.
func (r *Reconciler) appendAllChildren(parent any, wip *fiber) {
	node := wip.child
	for node != nil {
		if node.tag == HostComponent || node.tag == HostText {
			r.host.AppendInitialChild(parent, node.stateNode)
		} else if node.child != nil {
			node.child.parent = node
			node = node.child
			continue
		}
		if node == wip {
			return
		}
		for node.sibling == nil {
			if node.parent == nil || node.parent == wip {
				return
			}
			node = node.parent
		}
		node.sibling.parent = node.parent
		node = node.sibling
	}
}

func bubbleProperties(wip *fiber) {
	var subtree Flags
	for child := wip.child; child != nil; child = child.sibling {
		subtree |= child.subtreeFlags | child.flags
		child.parent = wip
	}
	wip.subtreeFlags = subtree
}

// hostProps strips the children entry, which the reconciler owns.
func hostProps(props element.Props) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k != "children" {
			out[k] = v
		}
	}
	return out
}

// propsEqual compares host props shallowly by identity, ignoring children.
func propsEqual(a, b element.Props) bool {
	count := 0
	for k, av := range a {
		if k == "children" {
			continue
		}
		count++
		bv, ok := b[k]
		if !ok || !identical(av, bv) {
			return false
		}
	}
	for k := range b {
		if k != "children" {
			count--
		}
	}
	return count == 0
}
