package testbed

import (
	"time"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/element"
)

// Clock is advanced by SlowRow while it renders.
type Clock interface {
	Advance(d time.Duration)
}

// SlowRow renders its "label" prop and advances the "clock" prop by
// "cost" (a time.Duration).
func SlowRow(h *core.Hooks, props element.Props) element.Node {
	if clk, ok := props.Get("clock").(Clock); ok {
		cost, _ := props.Get("cost").(time.Duration)
		clk.Advance(cost)
	}
	return element.New("row", nil, props.Get("label"))
}

// Rows returns a list of n keyed SlowRows labelled with label.
func Rows(clk Clock, n int, cost time.Duration, label string) *element.Element {
	rows := make([]element.Node, n)
	for i := range rows {
		rows[i] = element.New(SlowRow, element.Props{
			"key":   i,
			"label": label,
			"clock": clk,
			"cost":  cost,
		})
	}
	return element.New("list", nil, rows...)
}

// Ticker records its effect lifecycle into the "log" prop, a *[]string.
func Ticker(h *core.Hooks, props element.Props) element.Node {
	log, _ := props.Get("log").(*[]string)
	name, _ := props.Get("name").(string)
	core.UseEffect(h, func() func() {
		*log = append(*log, "start "+name)
		return func() { *log = append(*log, "stop "+name) }
	}, []any{name})
	return element.New("tick", nil, name)
}
