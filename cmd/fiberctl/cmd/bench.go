package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/element"
	"github.com/go-drift/fiber/pkg/scheduler"
)

const (
	rowsKey       = "rows"
	iterationsKey = "iterations"
	sliceKey      = "slice"
	onlyKey       = "only"
)

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Time keyed list and counter updates",
		Description: `Runs every workload twice: once at the sync lane, rendered without
yielding, and once as a transition, rendered in time slices. Each iteration
is timed from the update request until the scheduler is idle.`,
		Flags: append(commonFlags(),
			&cli.IntFlag{
				Name:  rowsKey,
				Usage: "Number of rows in each tree",
				Value: 1000,
			},
			&cli.IntFlag{
				Name:  iterationsKey,
				Usage: "Timed updates per workload and mode",
				Value: 100,
			},
			&cli.DurationFlag{
				Name:  sliceKey,
				Usage: "Scheduler time slice",
				Value: scheduler.DefaultTimeSlice,
			},
			&cli.StringFlag{
				Name:  onlyKey,
				Usage: "Run only the named workload",
			},
		),
		Action: runBench,
	}
}

// benchMode is a priority updates are requested at.
type benchMode struct {
	name     string
	priority scheduler.Priority
}

var benchModes = []benchMode{
	{name: "sync", priority: scheduler.ImmediatePriority},
	{name: "sliced", priority: scheduler.LowPriority},
}

// workload mounts a tree and returns the update timed on each iteration.
type workload struct {
	name    string
	prepare func(s *session, rows int) func(i int)
}

var workloads = []workload{
	{name: "keyed-reverse", prepare: prepareReverse},
	{name: "keyed-rotate", prepare: prepareRotate},
	{name: "counter", prepare: prepareCounter},
}

// benchResult is the timing of one workload in one mode.
type benchResult struct {
	workload string
	mode     string
	metrics  *tachymeter.Metrics
	ops      int
	commits  int
	slices   int
}

func runBench(ctx context.Context, cmd *cli.Command) error {
	configure(cmd)

	rows := int(cmd.Int(rowsKey))
	iters := int(cmd.Int(iterationsKey))
	if rows <= 0 || iters <= 0 {
		return fmt.Errorf("--%s and --%s must be positive", rowsKey, iterationsKey)
	}
	slice := cmd.Duration(sliceKey)
	only := cmd.String(onlyKey)

	var results []benchResult
	for _, wl := range workloads {
		if only != "" && wl.name != only {
			continue
		}
		for _, mode := range benchModes {
			res, err := benchmark(ctx, wl, mode, rows, iters, slice)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", wl.name, mode.name, err)
			}
			results = append(results, res)
		}
	}
	if len(results) == 0 {
		return fmt.Errorf("unknown workload %q", only)
	}

	tbl := table.NewWriter()
	tbl.SetTitle(fmt.Sprintf("%s rows, %s iterations", humanize.Comma(int64(rows)), humanize.Comma(int64(iters))))
	tbl.SetOutputMirror(writer(cmd))
	tbl.AppendHeader(table.Row{"workload", "mode", "avg", "min", "p75", "p99", "max", "ops/iter", "slices/iter"})
	for _, res := range results {
		calc := res.metrics
		tbl.AppendRow(table.Row{
			res.workload,
			res.mode,
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
			humanize.Comma(int64(res.ops / iters)),
			humanize.Comma(int64(res.slices / iters)),
		})
	}
	tbl.Render()
	return nil
}

func benchmark(ctx context.Context, wl workload, mode benchMode, rows, iters int, slice time.Duration) (benchResult, error) {
	s := newSession(scheduler.SystemClock(), slice)
	step := wl.prepare(s, rows)
	if err := s.settle(ctx); err != nil {
		return benchResult{}, err
	}
	if err := s.r.LastRenderError(); err != nil {
		return benchResult{}, err
	}
	s.host.ResetOps()
	s.takeCommits()
	s.slices = 0

	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	for i := 0; i < iters; i++ {
		start := time.Now()
		if err := s.act(ctx, func() {
			s.r.RunWithPriority(mode.priority, func() { step(i) })
		}); err != nil {
			return benchResult{}, err
		}
		tach.AddTime(time.Since(start))
	}

	return benchResult{
		workload: wl.name,
		mode:     mode.name,
		metrics:  tach.Calc(),
		ops:      len(s.host.ResetOps()),
		commits:  len(s.takeCommits()),
		slices:   s.slices,
	}, nil
}

func keyedRows(order []int) *element.Element {
	children := make([]element.Node, len(order))
	for i, id := range order {
		children[i] = element.New("row", element.Props{"key": id, "id": id}, fmt.Sprint("row ", id))
	}
	return element.New("list", nil, children...)
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func prepareReverse(s *session, rows int) func(int) {
	order := identityOrder(rows)
	s.root.Render(keyedRows(order))
	return func(int) {
		next := make([]int, len(order))
		for i, id := range order {
			next[len(order)-1-i] = id
		}
		order = next
		s.root.Render(keyedRows(order))
	}
}

func prepareRotate(s *session, rows int) func(int) {
	order := identityOrder(rows)
	s.root.Render(keyedRows(order))
	return func(int) {
		next := make([]int, 0, len(order))
		next = append(next, order[len(order)-1])
		next = append(next, order[:len(order)-1]...)
		order = next
		s.root.Render(keyedRows(order))
	}
}

// benchCounter renders a count above a static list. The list re-renders on
// every increment.
func benchCounter(h *core.Hooks, props element.Props) element.Node {
	count, set := core.UseState(h, 0)
	if out, ok := props.Get("setter").(**core.Setter[int]); ok {
		*out = set
	}
	rows, _ := props.Get("rows").(int)
	return element.New("counter", element.Props{"value": count},
		element.New("label", nil, fmt.Sprint("count ", count)),
		keyedRows(identityOrder(rows)),
	)
}

func prepareCounter(s *session, rows int) func(int) {
	var setter *core.Setter[int]
	s.root.Render(element.New(benchCounter, element.Props{"setter": &setter, "rows": rows}))
	return func(int) {
		if setter == nil {
			return
		}
		setter.Update(func(n int) int { return n + 1 })
	}
}
