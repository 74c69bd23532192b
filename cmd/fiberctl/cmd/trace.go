package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/go-drift/fiber/cmd/fiberctl/internal/scenario"
	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/host/memhost"
	"github.com/go-drift/fiber/pkg/lanes"
	"github.com/go-drift/fiber/pkg/scheduler"
)

const (
	treeKey = "tree"
	opsKey  = "ops"
)

func traceCommand() *cli.Command {
	return &cli.Command{
		Name:  "trace",
		Usage: "Replay a scenario and print every commit",
		Description: `Renders each step of a YAML scenario into an in-memory host and prints
one row per step: the lanes committed, the host operations applied and the
tree digest afterwards.

Without an argument the scenario is read from ./` + scenario.FileName + `.`,
		ArgsUsage: "[scenario.yaml]",
		Flags: append(commonFlags(),
			&cli.BoolFlag{
				Name:  treeKey,
				Usage: "Print the final tree",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  opsKey,
				Usage: "Print the host operations of every step",
			},
		),
		Action: runTrace,
	}
}

// stepResult is what one scenario step did to the host.
type stepResult struct {
	Label   string
	Lane    lanes.Lane
	Commits []core.CommitInfo
	Ops     []memhost.Op
	Digest  uint64
	Err     error
}

func runTrace(ctx context.Context, cmd *cli.Command) error {
	configure(cmd)

	sc, err := loadScenario(cmd.Args().First())
	if err != nil {
		return err
	}

	s := newSession(scheduler.SystemClock(), sc.TimeSlice)
	results, err := replay(ctx, s, sc)
	if err != nil {
		return err
	}

	w := writer(cmd)
	name := sc.Name
	if name == "" {
		name = "scenario"
	}
	fmt.Fprintf(w, "%s (%s, %d steps)\n", name, sc.Version, len(sc.Steps))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"step", "lane", "commits", "ops", "commit time", "digest", "error"})
	for _, res := range results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		table.Append([]string{
			res.Label,
			res.Lane.String(),
			commitLanes(res.Commits),
			humanize.Comma(int64(len(res.Ops))),
			commitDuration(res.Commits).String(),
			fmt.Sprintf("%016x", res.Digest),
			errText,
		})
	}
	table.Render()

	if cmd.Bool(opsKey) {
		for _, res := range results {
			fmt.Fprintf(w, "\n%s: %s\n", res.Label, opSummary(res.Ops))
			for _, op := range res.Ops {
				fmt.Fprintf(w, "  %s\n", op)
			}
		}
	}

	tree := s.host.String()
	if cmd.Bool(treeKey) {
		fmt.Fprintf(w, "\n%s", tree)
		if !strings.HasSuffix(tree, "\n") {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "\ndigest %016x (%s)\n", s.host.Digest(), humanize.Bytes(uint64(len(tree))))
	return nil
}

func loadScenario(path string) (*scenario.Scenario, error) {
	if path != "" {
		return scenario.Load(path)
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	sc, err := scenario.LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, fmt.Errorf("no scenario given and no %s in %s", scenario.FileName, dir)
	}
	return sc, nil
}

// replay runs every step of sc on s. Render errors are recorded on the step
// and do not stop the replay.
func replay(ctx context.Context, s *session, sc *scenario.Scenario) ([]stepResult, error) {
	results := make([]stepResult, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		p, err := step.Priority()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Label(i), err)
		}
		lane, _ := step.LaneOf()

		s.host.ResetOps()
		s.takeCommits()
		err = s.render(ctx, p, step.Element())
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		results = append(results, stepResult{
			Label:   step.Label(i),
			Lane:    lane,
			Commits: s.takeCommits(),
			Ops:     s.host.ResetOps(),
			Digest:  s.host.Digest(),
			Err:     err,
		})
	}
	return results, nil
}

func commitLanes(commits []core.CommitInfo) string {
	if len(commits) == 0 {
		return "-"
	}
	names := make([]string, len(commits))
	for i, c := range commits {
		names[i] = c.Lane.String()
	}
	return strings.Join(names, ",")
}

func commitDuration(commits []core.CommitInfo) time.Duration {
	var total time.Duration
	for _, c := range commits {
		total += c.Duration
	}
	return total
}

// opSummary renders op counts by type in a stable order.
func opSummary(ops []memhost.Op) string {
	counts := memhost.CountOps(ops)
	if len(counts) == 0 {
		return "no host operations"
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = fmt.Sprintf("%s=%s", t, humanize.Comma(int64(counts[memhost.OpType(t)])))
	}
	return strings.Join(parts, " ")
}
