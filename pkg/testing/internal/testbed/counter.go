// Package testbed provides internal test components for the testing
// framework.
package testbed

import (
	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/element"
)

// Counter displays a count in a button that increments on tap. Props:
// "initial" (int) and "onTap" (func(int)), called with the new count.
func Counter(h *core.Hooks, props element.Props) element.Node {
	initial, _ := props.Get("initial").(int)
	onTap, _ := props.Get("onTap").(func(int))
	count, set := core.UseState(h, initial)
	return element.New("button", element.Props{
		"onTap": func() {
			set.Set(count + 1)
			if onTap != nil {
				onTap(count + 1)
			}
		},
	}, count)
}
