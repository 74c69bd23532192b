package core

import (
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/go-drift/fiber/pkg/element"
)

// childReconciler diffs a new child description against the committed child
// list of returnFiber. When trackEffects is false (the parent itself is being
// mounted) no placement or deletion is recorded: the whole subtree is built
// off-screen and attached by its topmost placement.
type childReconciler struct {
	r            *Reconciler
	trackEffects bool
}

func (c childReconciler) reconcile(returnFiber, currentFirstChild *fiber, newChild element.Node) *fiber {
	if el, ok := newChild.(*element.Element); ok && el != nil && el.Type == element.FragmentType && !el.HasKey {
		newChild = el.Props.Children()
	}
	switch child := newChild.(type) {
	case *element.Element:
		if child != nil {
			return c.placeSingleChild(c.reconcileSingleElement(returnFiber, currentFirstChild, child))
		}
	case []element.Node:
		return c.reconcileChildrenArray(returnFiber, currentFirstChild, child)
	default:
		if element.IsText(child) {
			return c.placeSingleChild(c.reconcileSingleTextNode(returnFiber, currentFirstChild, element.Text(child)))
		}
		if child != nil {
			if _, ok := child.(bool); !ok {
				c.r.warn("core.reconcileChildren", "unsupported child %T in %s", child, componentName(returnFiber))
			}
		}
	}
	c.deleteRemainingChildren(returnFiber, currentFirstChild)
	return nil
}

func (c childReconciler) deleteChild(returnFiber, child *fiber) {
	if !c.trackEffects {
		return
	}
	returnFiber.deletions = append(returnFiber.deletions, child)
	returnFiber.flags |= ChildDeletion
}

func (c childReconciler) deleteRemainingChildren(returnFiber, first *fiber) {
	for child := first; child != nil; child = child.sibling {
		c.deleteChild(returnFiber, child)
	}
}

func (c childReconciler) placeSingleChild(f *fiber) *fiber {
	if f != nil && c.trackEffects && f.alternate == nil {
		f.flags |= Placement
	}
	return f
}

func useFiber(f *fiber, props element.Props) *fiber {
	clone := createWorkInProgress(f, props)
	clone.index = 0
	clone.sibling = nil
	return clone
}

func (c childReconciler) reconcileSingleElement(returnFiber, currentFirstChild *fiber, el *element.Element) *fiber {
	for child := currentFirstChild; child != nil; child = child.sibling {
		if child.hasKey != el.HasKey || child.key != el.Key {
			c.deleteChild(returnFiber, child)
			continue
		}
		if canReuse(child, el) {
			c.deleteRemainingChildren(returnFiber, child.sibling)
			existing := useFiber(child, propsFor(el))
			existing.ref = el.Ref
			existing.parent = returnFiber
			return existing
		}
		c.deleteRemainingChildren(returnFiber, child)
		break
	}
	f := c.createFromElement(el)
	if f != nil {
		f.parent = returnFiber
	}
	return f
}

func (c childReconciler) reconcileSingleTextNode(returnFiber, currentFirstChild *fiber, text string) *fiber {
	if currentFirstChild != nil && currentFirstChild.tag == HostText {
		c.deleteRemainingChildren(returnFiber, currentFirstChild.sibling)
		existing := useFiber(currentFirstChild, textProps(text))
		existing.parent = returnFiber
		return existing
	}
	c.deleteRemainingChildren(returnFiber, currentFirstChild)
	f := createFiberFromText(text)
	f.parent = returnFiber
	return f
}

func (c childReconciler) createFromElement(el *element.Element) *fiber {
	if el.Type == element.FragmentType {
		return createFiberFromFragment(el.Props.Children(), el.Key, el.HasKey)
	}
	f, ok := createFiberFromElement(el)
	if !ok {
		c.r.warn("core.createFiberFromElement", "unknown element type %T", el.Type)
		return nil
	}
	return f
}

// propsFor returns the props a fiber of el's type receives.
func propsFor(el *element.Element) element.Props {
	if el.Type == element.FragmentType {
		return element.Props{"children": el.Props.Children()}
	}
	return el.Props
}

func canReuse(f *fiber, el *element.Element) bool {
	if el.Type == element.FragmentType {
		return f.tag == Fragment
	}
	return f.tag != Fragment && sameType(f.typ, el.Type)
}

// slotKey identifies a child among its siblings: its explicit key, or its
// position when it has none.
func slotKey(hasKey bool, key string, index int) string {
	if hasKey {
		return "k:" + key
	}
	return "i:" + strconv.Itoa(index)
}

func childKey(n element.Node, index int) (string, bool) {
	if el, ok := n.(*element.Element); ok && el != nil && el.HasKey {
		return slotKey(true, el.Key, index), true
	}
	return slotKey(false, "", index), false
}

// updateSlot reuses old for n when their kinds agree and otherwise creates a
// new fiber. It returns nil for children that render nothing.
func (c childReconciler) updateSlot(old *fiber, n element.Node) *fiber {
	switch child := n.(type) {
	case *element.Element:
		if child == nil {
			return nil
		}
		if old != nil && canReuse(old, child) {
			f := useFiber(old, propsFor(child))
			f.ref = child.Ref
			return f
		}
		return c.createFromElement(child)
	case []element.Node:
		if old != nil && old.tag == Fragment && !old.hasKey {
			return useFiber(old, element.Props{"children": child})
		}
		return createFiberFromFragment(child, "", false)
	default:
		if !element.IsText(child) {
			if child != nil {
				if _, ok := child.(bool); !ok {
					c.r.warn("core.reconcileChildren", "unsupported child %T", child)
				}
			}
			return nil
		}
		text := element.Text(child)
		if old != nil && old.tag == HostText {
			return useFiber(old, textProps(text))
		}
		return createFiberFromText(text)
	}
}

// reconcileChildrenArray matches new children to old fibers by key (or by
// position for unkeyed children), deletes old fibers nothing matched, and
// flags for placement only the reused fibers outside the longest run that
// kept its relative order.
func (c childReconciler) reconcileChildrenArray(returnFiber, currentFirstChild *fiber, newChildren []element.Node) *fiber {
	existing := make(map[string]*fiber)
	for old := currentFirstChild; old != nil; old = old.sibling {
		key := slotKey(old.hasKey, old.key, old.index)
		if _, dup := existing[key]; !dup {
			existing[key] = old
		}
	}
	matched := make(map[*fiber]bool)

	seen := mapset.NewThreadUnsafeSet[string]()
	created := make([]*fiber, 0, len(newChildren))
	for i, n := range newChildren {
		key, keyed := childKey(n, i)
		if keyed && !seen.Add(key) {
			c.r.warn("core.reconcileChildrenArray", "duplicate key %q in %s", key[2:], componentName(returnFiber))
		}
		old := existing[key]
		f := c.updateSlot(old, n)
		if f == nil {
			continue
		}
		if old != nil && f.alternate == old {
			delete(existing, key)
			matched[old] = true
		}
		f.index = i
		f.parent = returnFiber
		created = append(created, f)
	}

	for old := currentFirstChild; old != nil; old = old.sibling {
		if !matched[old] {
			c.deleteChild(returnFiber, old)
		}
	}

	if c.trackEffects {
		var reused []int
		var oldIndices []int
		for i, f := range created {
			if f.alternate == nil {
				f.flags |= Placement
				continue
			}
			reused = append(reused, i)
			oldIndices = append(oldIndices, f.alternate.index)
		}
		stay := longestIncreasingSubsequence(oldIndices)
		for j, i := range reused {
			if !stay[j] {
				created[i].flags |= Placement
			}
		}
	}

	for i := 0; i+1 < len(created); i++ {
		created[i].sibling = created[i+1]
	}
	if len(created) == 0 {
		return nil
	}
	created[len(created)-1].sibling = nil
	return created[0]
}

// longestIncreasingSubsequence marks the members of one longest strictly
// increasing subsequence of seq.
func longestIncreasingSubsequence(seq []int) []bool {
	in := make([]bool, len(seq))
	if len(seq) == 0 {
		return in
	}
	// tails[k] is the index in seq of the smallest tail of an increasing run
	// of length k+1.
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			prev[i] = tails[lo-1]
		} else {
			prev[i] = -1
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		in[i] = true
	}
	return in
}
