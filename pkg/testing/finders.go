package testing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-drift/fiber/pkg/host/memhost"
)

// Finder locates nodes in the host tree.
type Finder interface {
	// Evaluate returns all matching nodes under root (depth-first pre-order).
	// The root itself is never matched.
	Evaluate(root *memhost.Node) []*memhost.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*memhost.Node
	finder Finder
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *memhost.Node {
	if len(r.nodes) == 0 {
		panic(fmt.Sprintf("Finder found no nodes: %s", r.description()))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *memhost.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *memhost.Node {
	if index < 0 || index >= len(r.nodes) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), r.description()))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*memhost.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

// Text returns the concatenated text below the first match. Panics if no
// matches.
func (r FinderResult) Text() string {
	return TextOf(r.First())
}

// TextOf concatenates the text nodes below n in document order.
func TextOf(n *memhost.Node) string {
	var sb strings.Builder
	walkTree(n, func(node *memhost.Node) bool {
		if node.IsText {
			sb.WriteString(node.Text)
		}
		return true
	})
	return sb.String()
}

// --- Concrete finders ---

// kindFinder matches element nodes of a host kind.
type kindFinder struct {
	kind string
}

func (f *kindFinder) Evaluate(root *memhost.Node) []*memhost.Node {
	return collectMatches(root, func(n *memhost.Node) bool {
		return !n.IsText && n.Kind == f.kind
	})
}

func (f *kindFinder) Description() string {
	return fmt.Sprintf("ByKind(%q)", f.kind)
}

// ByKind returns a finder that matches element nodes of the given kind.
func ByKind(kind string) Finder {
	return &kindFinder{kind: kind}
}

// propFinder matches element nodes whose prop equals value.
type propFinder struct {
	name  string
	value any
}

func (f *propFinder) Evaluate(root *memhost.Node) []*memhost.Node {
	return collectMatches(root, func(n *memhost.Node) bool {
		v, ok := n.Props[f.name]
		if !ok {
			return false
		}
		// Guard against non-comparable types (slices, maps, funcs).
		if v == nil || f.value == nil || !reflect.TypeOf(v).Comparable() || !reflect.TypeOf(f.value).Comparable() {
			return reflect.DeepEqual(v, f.value)
		}
		return v == f.value
	})
}

func (f *propFinder) Description() string {
	return fmt.Sprintf("ByProp(%s=%v)", f.name, f.value)
}

// ByProp returns a finder that matches element nodes whose prop name equals
// value. The "key" prop is not kept on host nodes.
func ByProp(name string, value any) Finder {
	return &propFinder{name: name, value: value}
}

// textFinder matches text nodes by exact content.
type textFinder struct {
	text string
}

func (f *textFinder) Evaluate(root *memhost.Node) []*memhost.Node {
	return collectMatches(root, func(n *memhost.Node) bool {
		return n.IsText && n.Text == f.text
	})
}

func (f *textFinder) Description() string {
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText returns a finder that matches text nodes with exact content.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

// textContainingFinder matches text nodes containing a substring.
type textContainingFinder struct {
	substring string
}

func (f *textContainingFinder) Evaluate(root *memhost.Node) []*memhost.Node {
	return collectMatches(root, func(n *memhost.Node) bool {
		return n.IsText && strings.Contains(n.Text, f.substring)
	})
}

func (f *textContainingFinder) Description() string {
	return fmt.Sprintf("ByTextContaining(%q)", f.substring)
}

// ByTextContaining returns a finder that matches text nodes containing the
// given substring.
func ByTextContaining(substring string) Finder {
	return &textContainingFinder{substring: substring}
}

// predicateFinder matches nodes satisfying a predicate.
type predicateFinder struct {
	fn   func(*memhost.Node) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *memhost.Node) []*memhost.Node {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches nodes satisfying fn.
func ByPredicate(fn func(*memhost.Node) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds nodes matching 'matching' that are descendants
// of nodes matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *memhost.Node) []*memhost.Node {
	var results []*memhost.Node
	seen := make(map[*memhost.Node]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		for _, match := range f.matching.Evaluate(ancestor) {
			if !seen[match] {
				seen[match] = true
				results = append(results, match)
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches nodes satisfying 'matching'
// that are descendants of nodes matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds nodes matching 'matching' that are ancestors of
// nodes matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(root *memhost.Node) []*memhost.Node {
	candidates := f.matching.Evaluate(root)
	if len(candidates) == 0 {
		return nil
	}
	match := make(map[*memhost.Node]bool, len(candidates))
	for _, c := range candidates {
		match[c] = true
	}
	found := make(map[*memhost.Node]bool)
	for _, desc := range f.of.Evaluate(root) {
		for p := desc.Parent(); p != nil && p != root; p = p.Parent() {
			if match[p] {
				found[p] = true
			}
		}
	}
	// Keep traversal order.
	var results []*memhost.Node
	for _, c := range candidates {
		if found[c] {
			results = append(results, c)
		}
	}
	return results
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches nodes satisfying 'matching'
// that are ancestors of nodes matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

// collectMatches performs depth-first pre-order traversal below root,
// collecting nodes that satisfy the predicate.
func collectMatches(root *memhost.Node, predicate func(*memhost.Node) bool) []*memhost.Node {
	var results []*memhost.Node
	for _, child := range root.Children {
		walkTree(child, func(n *memhost.Node) bool {
			if predicate(n) {
				results = append(results, n)
			}
			return true
		})
	}
	return results
}

// walkTree performs a depth-first pre-order traversal of the host tree.
// The visitor returns false to skip a node's children.
func walkTree(root *memhost.Node, visitor func(*memhost.Node) bool) {
	if !visitor(root) {
		return
	}
	for _, child := range root.Children {
		walkTree(child, visitor)
	}
}
