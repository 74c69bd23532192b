package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/fiber/cmd/fiberctl/internal/scenario"
	"github.com/go-drift/fiber/pkg/core"
	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/lanes"
	"github.com/go-drift/fiber/pkg/scheduler"
)

const suspenseScenario = `
version: v1.0.0
name: suspense
steps:
  - name: mount
    tree:
      kind: suspense
      fallback: {kind: spinner}
      children:
        - {kind: item, key: a, text: A}
  - name: suspend
    lane: default
    tree:
      kind: suspense
      props: {suspended: true}
      fallback: {kind: spinner}
      children:
        - {kind: item, key: a, text: A}
  - name: resume
    lane: transition
    tree:
      kind: suspense
      fallback: {kind: spinner}
      children:
        - {kind: item, key: a, text: B}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		fibererrors.SetHandler(nil)
		core.SetDebugMode(true)
	})
	var out, errOut bytes.Buffer
	app := New()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(context.Background(), append([]string{"fiberctl"}, args...))
	return out.String(), err
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReplay_Suspense(t *testing.T) {
	sc, err := scenario.Parse([]byte(suspenseScenario))
	require.NoError(t, err)

	s := newSession(scheduler.SystemClock(), sc.TimeSlice)
	results, err := replay(context.Background(), s, sc)
	require.NoError(t, err)
	require.Len(t, results, 3)

	mount, suspend, resume := results[0], results[1], results[2]
	require.Len(t, mount.Commits, 1)
	assert.Equal(t, lanes.SyncLane, mount.Commits[0].Lane)

	require.Len(t, suspend.Commits, 1)
	assert.Equal(t, lanes.DefaultLane, suspend.Commits[0].Lane)
	assert.Contains(t, opSummary(suspend.Ops), "hide=1")

	require.Len(t, resume.Commits, 1)
	assert.Equal(t, lanes.TransitionLane, resume.Commits[0].Lane)
	assert.Contains(t, opSummary(resume.Ops), "unhide=1")
	assert.NotEqual(t, mount.Digest, resume.Digest)
	assert.Contains(t, s.host.String(), `"B"`)
}

func TestReplay_SameTreeSameDigest(t *testing.T) {
	body := `
version: v1.0.0
steps:
  - tree: {kind: list, children: [{kind: item, key: a, text: A}]}
  - lane: idle
    tree: {kind: list, children: [{kind: item, key: a, text: A}]}
`
	sc, err := scenario.Parse([]byte(body))
	require.NoError(t, err)

	s := newSession(scheduler.SystemClock(), sc.TimeSlice)
	results, err := replay(context.Background(), s, sc)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Digest, results[1].Digest)
	assert.Empty(t, results[1].Ops)
	assert.Equal(t, "no host operations", opSummary(results[1].Ops))
}

func TestReplay_Cancelled(t *testing.T) {
	sc, err := scenario.Parse([]byte(suspenseScenario))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = replay(ctx, newSession(scheduler.SystemClock(), sc.TimeSlice), sc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTraceCommand(t *testing.T) {
	path := writeScenario(t, suspenseScenario)

	out, err := run(t, "trace", path)
	require.NoError(t, err)
	assert.Contains(t, out, "suspense (v1.0.0, 3 steps)")
	assert.Contains(t, out, "transition")
	assert.Contains(t, out, "<item>")
	assert.Contains(t, out, "digest ")
}

func TestTraceCommand_Ops(t *testing.T) {
	path := writeScenario(t, suspenseScenario)

	out, err := run(t, "trace", "--tree=false", "--ops", path)
	require.NoError(t, err)
	assert.Contains(t, out, "\nsuspend: ")
	assert.Contains(t, out, "hide item")
	assert.NotContains(t, out, "<item>")
}

func TestTraceCommand_MissingFile(t *testing.T) {
	_, err := run(t, "trace", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBenchCommand(t *testing.T) {
	out, err := run(t, "bench", "--rows", "20", "--iterations", "3", "--only", "keyed-reverse")
	require.NoError(t, err)
	assert.Contains(t, out, "keyed-reverse")
	assert.Contains(t, out, "sync")
	assert.Contains(t, out, "sliced")
	assert.NotContains(t, out, "counter")
}

func TestBenchCommand_Errors(t *testing.T) {
	_, err := run(t, "bench", "--only", "nope", "--rows", "5", "--iterations", "1")
	assert.EqualError(t, err, `unknown workload "nope"`)

	_, err = run(t, "bench", "--rows", "0")
	assert.Error(t, err)
}

func TestBenchmark_Counter(t *testing.T) {
	t.Cleanup(func() { fibererrors.SetHandler(nil) })
	res, err := benchmark(context.Background(), workloads[2], benchModes[0], 10, 4, scheduler.DefaultTimeSlice)
	require.NoError(t, err)
	assert.Equal(t, "counter", res.workload)
	assert.Equal(t, 4, res.commits)
	assert.Equal(t, 4, res.metrics.Count)
	// Each increment rewrites the counter prop and its label text.
	assert.Equal(t, 8, res.ops)
}

func TestBenchmark_ReverseMovesAllButOne(t *testing.T) {
	res, err := benchmark(context.Background(), workloads[0], benchModes[1], 6, 1, scheduler.DefaultTimeSlice)
	require.NoError(t, err)
	assert.Equal(t, 1, res.commits)
	assert.Equal(t, 5, res.ops)
}
