// Package memhost is an in-memory host that keeps a plain node tree and a
// log of every mutation applied to it. Tests and the fiberctl tool use it to
// observe commits.
package memhost

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/go-drift/fiber/pkg/host"
)

// Node is an instance in the in-memory tree.
type Node struct {
	ID       int
	Kind     string
	Text     string
	IsText   bool
	Props    map[string]any
	Hidden   bool
	Children []*Node

	parent *Node
}

// Parent returns the node's parent, or nil when detached.
func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) label() string {
	if n.IsText {
		return fmt.Sprintf("#text%d", n.ID)
	}
	return fmt.Sprintf("%s%d", n.Kind, n.ID)
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) detach(child *Node) {
	if i := n.indexOf(child); i >= 0 {
		n.Children = append(n.Children[:i], n.Children[i+1:]...)
	}
	child.parent = nil
}

// OpType names a host mutation.
type OpType string

const (
	OpCreate OpType = "create"
	OpAppend OpType = "append"
	OpInsert OpType = "insert"
	OpRemove OpType = "remove"
	OpUpdate OpType = "update"
	OpText   OpType = "text"
	OpHide   OpType = "hide"
	OpUnhide OpType = "unhide"
)

// Op is one recorded mutation.
type Op struct {
	Type   OpType
	Node   string
	Parent string
	Before string
}

func (o Op) String() string {
	switch {
	case o.Before != "":
		return fmt.Sprintf("%s %s into %s before %s", o.Type, o.Node, o.Parent, o.Before)
	case o.Parent != "":
		return fmt.Sprintf("%s %s into %s", o.Type, o.Node, o.Parent)
	default:
		return fmt.Sprintf("%s %s", o.Type, o.Node)
	}
}

// Options configures a Host.
type Options struct {
	// Microtask schedules a callback after the current task. When nil the
	// host queues microtasks itself and FlushMicrotasks runs them.
	Microtask func(fn func())
}

// Host is a host.Config backed by an in-memory tree.
type Host struct {
	opts       Options
	container  *Node
	nextID     int
	ops        []Op
	microtasks []func()
}

var _ host.Config = (*Host)(nil)

// New creates a host with an empty container.
func New(opts Options) *Host {
	return &Host{
		opts:      opts,
		container: &Node{Kind: "root"},
	}
}

// Container returns the root node a reconciler root renders into.
func (h *Host) Container() *Node {
	return h.container
}

func (h *Host) newNode(n *Node) *Node {
	h.nextID++
	n.ID = h.nextID
	return n
}

func (h *Host) record(op Op) {
	h.ops = append(h.ops, op)
}

// CreateInstance creates a detached element node.
func (h *Host) CreateInstance(kind string, props map[string]any) host.Instance {
	n := h.newNode(&Node{Kind: kind, Props: copyProps(props)})
	h.record(Op{Type: OpCreate, Node: n.label()})
	return n
}

// CreateTextInstance creates a detached text node.
func (h *Host) CreateTextInstance(text string) host.Instance {
	n := h.newNode(&Node{IsText: true, Text: text})
	h.record(Op{Type: OpCreate, Node: n.label()})
	return n
}

// AppendInitialChild appends child to a parent that is still detached. It
// is not recorded as an op; the subtree becomes visible when its root is
// appended or inserted.
func (h *Host) AppendInitialChild(parent, child host.Instance) {
	p, c := parent.(*Node), child.(*Node)
	if c.parent != nil {
		c.parent.detach(c)
	}
	c.parent = p
	p.Children = append(p.Children, c)
}

// AppendChild appends child to parent, moving it if it is already attached.
func (h *Host) AppendChild(parent, child host.Instance) {
	p, c := parent.(*Node), child.(*Node)
	if c.parent != nil {
		c.parent.detach(c)
	}
	c.parent = p
	p.Children = append(p.Children, c)
	h.record(Op{Type: OpAppend, Node: c.label(), Parent: p.label()})
}

// InsertBefore inserts child ahead of before, moving it if it is already
// attached. It panics if before is not a child of parent.
func (h *Host) InsertBefore(parent, child, before host.Instance) {
	p, c, b := parent.(*Node), child.(*Node), before.(*Node)
	if c.parent != nil {
		c.parent.detach(c)
	}
	i := p.indexOf(b)
	if i < 0 {
		panic(fmt.Sprintf("memhost: %s is not a child of %s", b.label(), p.label()))
	}
	c.parent = p
	p.Children = append(p.Children, nil)
	copy(p.Children[i+1:], p.Children[i:])
	p.Children[i] = c
	h.record(Op{Type: OpInsert, Node: c.label(), Parent: p.label(), Before: b.label()})
}

// RemoveChild detaches child from parent.
func (h *Host) RemoveChild(parent, child host.Instance) {
	p, c := parent.(*Node), child.(*Node)
	p.detach(c)
	h.record(Op{Type: OpRemove, Node: c.label(), Parent: p.label()})
}

// CommitUpdate replaces an element node's props.
func (h *Host) CommitUpdate(inst host.Instance, kind string, oldProps, newProps map[string]any) {
	n := inst.(*Node)
	n.Props = copyProps(newProps)
	h.record(Op{Type: OpUpdate, Node: n.label()})
}

// CommitTextUpdate replaces a text node's content.
func (h *Host) CommitTextUpdate(inst host.Instance, oldText, newText string) {
	n := inst.(*Node)
	n.Text = newText
	h.record(Op{Type: OpText, Node: n.label()})
}

// HideInstance marks a node hidden.
func (h *Host) HideInstance(inst host.Instance) {
	n := inst.(*Node)
	n.Hidden = true
	h.record(Op{Type: OpHide, Node: n.label()})
}

// UnhideInstance clears a node's hidden mark.
func (h *Host) UnhideInstance(inst host.Instance) {
	n := inst.(*Node)
	n.Hidden = false
	h.record(Op{Type: OpUnhide, Node: n.label()})
}

// ScheduleMicrotask forwards to Options.Microtask or queues fn locally.
func (h *Host) ScheduleMicrotask(fn func()) {
	if h.opts.Microtask != nil {
		h.opts.Microtask(fn)
		return
	}
	h.microtasks = append(h.microtasks, fn)
}

// FlushMicrotasks runs locally queued microtasks until none remain.
func (h *Host) FlushMicrotasks() {
	for len(h.microtasks) > 0 {
		batch := h.microtasks
		h.microtasks = nil
		for _, fn := range batch {
			fn()
		}
	}
}

// PendingMicrotasks returns the number of locally queued microtasks.
func (h *Host) PendingMicrotasks() int {
	return len(h.microtasks)
}

// Ops returns the mutations recorded since the last ResetOps.
func (h *Host) Ops() []Op {
	return h.ops
}

// ResetOps clears the op log and returns what it held.
func (h *Host) ResetOps() []Op {
	ops := h.ops
	h.ops = nil
	return ops
}

// CountOps tallies ops by type.
func CountOps(ops []Op) map[OpType]int {
	counts := make(map[OpType]int)
	for _, op := range ops {
		counts[op.Type]++
	}
	return counts
}

// String renders the container's children as indented markup. Props are
// sorted by name; the children prop is omitted.
func (h *Host) String() string {
	var sb strings.Builder
	for _, c := range h.container.Children {
		writeNode(&sb, c, 0)
	}
	return sb.String()
}

// Digest returns a fingerprint of String.
func (h *Host) Digest() uint64 {
	return xxhash.Sum64String(h.String())
}

func writeNode(sb *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsText {
		fmt.Fprintf(sb, "%s%q", indent, n.Text)
		if n.Hidden {
			sb.WriteString(" hidden")
		}
		sb.WriteByte('\n')
		return
	}
	sb.WriteString(indent)
	sb.WriteByte('<')
	sb.WriteString(n.Kind)
	names := make([]string, 0, len(n.Props))
	for name := range n.Props {
		if name != "children" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(sb, " %s=%s", name, formatValue(n.Props[name]))
	}
	if n.Hidden {
		sb.WriteString(" hidden")
	}
	if len(n.Children) == 0 {
		sb.WriteString(" />\n")
		return
	}
	sb.WriteString(">\n")
	for _, c := range n.Children {
		writeNode(sb, c, depth+1)
	}
	fmt.Fprintf(sb, "%s</%s>\n", indent, n.Kind)
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case nil:
		return "nil"
	case fmt.Stringer:
		return fmt.Sprintf("%q", v.String())
	}
	if reflect.ValueOf(v).Kind() == reflect.Func {
		return "func"
	}
	return fmt.Sprintf("%v", v)
}

func copyProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k == "children" {
			continue
		}
		out[k] = v
	}
	return out
}
