package testing

import (
	"fmt"
)

// Fire calls the handler stored under prop on the first node matched by
// finder, passing args, and flushes all resulting work. The handler must be a
// func() or a func(any).
func (t *RootTester) Fire(finder Finder, prop string, args ...any) error {
	result := t.Find(finder)
	if !result.Exists() {
		return fmt.Errorf("fire %s: no node found for %s", prop, finder.Description())
	}
	node := result.First()
	handler, ok := node.Props[prop]
	if !ok {
		return fmt.Errorf("fire %s: node %s has no such prop", prop, node.Kind)
	}
	var call func()
	switch fn := handler.(type) {
	case func():
		call = fn
	case func(any):
		var arg any
		if len(args) > 0 {
			arg = args[0]
		}
		call = func() { fn(arg) }
	default:
		return fmt.Errorf("fire %s: prop of %s is %T, not a handler", prop, node.Kind, handler)
	}
	return t.Act(call)
}

// Tap fires the "onTap" handler of the first node matched by finder.
func (t *RootTester) Tap(finder Finder) error {
	return t.Fire(finder, "onTap")
}
