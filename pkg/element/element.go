// Package element defines the immutable UI descriptions the reconciler
// consumes.
//
// An [Element] is a {type, key, ref, props} record. The type is one of:
//
//   - a string, naming a host instance kind ("div", "list", ...)
//   - a component function, invoked by the reconciler with hooks active
//   - [FragmentType], grouping children without a host instance
//   - [SuspenseType], choosing between primary children and a fallback
//   - a [*Provider], supplying a [Context] value to its subtree
//
// A [Node] is anything that may appear as a child: an *Element, a string or
// number (rendered as a text instance), a []Node, or nil/bool (rendered as
// nothing).
//
//	element.New("list", element.Props{"class": "todo"},
//	    element.New("item", element.Props{"key": "a"}, "Buy milk"),
//	    element.New("item", element.Props{"key": "b"}, "Walk dog"),
//	)
package element

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Node is a child description.
type Node = any

// Props are the attributes of an element. The "children" entry holds the
// element's child nodes.
type Props map[string]any

// Children returns the child nodes stored under "children".
func (p Props) Children() []Node {
	switch c := p["children"].(type) {
	case nil:
		return nil
	case []Node:
		return c
	default:
		return []Node{c}
	}
}

// Get returns the prop stored under name, or nil.
func (p Props) Get(name string) any {
	if p == nil {
		return nil
	}
	return p[name]
}

// Element is an immutable UI description.
type Element struct {
	Type any
	// Key identifies the element among its siblings. It is only meaningful
	// when HasKey is true.
	Key    string
	HasKey bool
	// Ref is a *Ref or a func(any), attached to the host instance at commit.
	Ref   any
	Props Props
}

// New creates an element. The "key" and "ref" props are lifted out of props
// into the element; children, when given, replace props["children"].
// The props map passed in is not modified.
func New(typ any, props Props, children ...Node) *Element {
	el := &Element{Type: typ, Props: make(Props, len(props)+1)}
	for name, v := range props {
		switch name {
		case "key":
			if v != nil {
				el.Key = fmt.Sprint(v)
				el.HasKey = true
			}
		case "ref":
			el.Ref = v
		default:
			el.Props[name] = v
		}
	}
	switch len(children) {
	case 0:
	case 1:
		el.Props["children"] = children[0]
	default:
		el.Props["children"] = children
	}
	return el
}

// Keyed returns a copy of el with key set.
func (el *Element) Keyed(key any) *Element {
	c := *el
	c.Key = fmt.Sprint(key)
	c.HasKey = true
	return &c
}

func (el *Element) String() string {
	if el == nil {
		return "<nil>"
	}
	if el.HasKey {
		return fmt.Sprintf("<%s key=%q>", TypeName(el.Type), el.Key)
	}
	return fmt.Sprintf("<%s>", TypeName(el.Type))
}

type marker struct {
	name string
}

func (m *marker) String() string {
	return m.name
}

var (
	// FragmentType is the type of elements created by [Fragment].
	FragmentType any = &marker{name: "Fragment"}
	// SuspenseType is the type of elements created by [Suspense].
	SuspenseType any = &marker{name: "Suspense"}
)

// Fragment groups children without a host instance of its own.
func Fragment(children ...Node) *Element {
	return New(FragmentType, nil, children...)
}

// Suspense shows fallback while suspended is true and children otherwise.
// The boundary is driven entirely by the suspended prop: nothing suspends on
// its own and there is no asynchronous resolution, so the caller re-renders
// with suspended set to false to reveal the children. A boundary built with
// New(SuspenseType, ...) and no suspended prop shows its children.
// The children stay mounted while hidden, so their state survives.
func Suspense(fallback Node, suspended bool, children ...Node) *Element {
	return New(SuspenseType, Props{"fallback": fallback, "suspended": suspended}, children...)
}

// Ref is a mutable cell that receives a host instance at commit.
type Ref struct {
	Current any
}

// NewRef returns an empty ref.
func NewRef() *Ref {
	return &Ref{}
}

// IsText reports whether n renders as a text instance.
func IsText(n Node) bool {
	switch n.(type) {
	case string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// Text returns the text content of a text node.
func Text(n Node) string {
	if s, ok := n.(string); ok {
		return s
	}
	return fmt.Sprint(n)
}

// TypeName returns a readable name for an element type.
func TypeName(typ any) string {
	switch t := typ.(type) {
	case nil:
		return "nil"
	case string:
		return t
	case *marker:
		return t.name
	case *Provider:
		return t.ctx.String() + ".Provider"
	}
	v := reflect.ValueOf(typ)
	if v.Kind() == reflect.Func {
		if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
			name := fn.Name()
			if i := strings.LastIndexByte(name, '/'); i >= 0 {
				name = name[i+1:]
			}
			return name
		}
	}
	return fmt.Sprintf("%T", typ)
}
