package testing

import (
	"testing"
	"time"

	"github.com/go-drift/fiber/pkg/testing/internal/testbed"
)

func TestFakeClock_Advance(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()

	clk.Advance(100 * time.Millisecond)
	elapsed := clk.Now().Sub(start)

	if elapsed != 100*time.Millisecond {
		t.Errorf("expected 100ms elapsed, got %v", elapsed)
	}
}

func TestFakeClock_Set(t *testing.T) {
	clk := NewFakeClock()
	target := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	clk.Set(target)
	if !clk.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, clk.Now())
	}
}

func TestRootTester_Clock(t *testing.T) {
	tester := NewRootTesterWithT(t)
	clk := tester.Clock()

	start := tester.Scheduler().Now()
	clk.Advance(500 * time.Millisecond)
	if tester.Scheduler().Now().Sub(start) != 500*time.Millisecond {
		t.Error("clock advancement not reflected in the scheduler")
	}
}

func TestTransition_YieldsOnClock(t *testing.T) {
	tester := NewRootTesterWithT(t)
	tester.Render(testbed.Rows(tester.Clock(), 3, 0, "old"))
	tester.ResetCommits()

	tester.Reconciler().StartTransition(func() {
		tester.Root().Render(testbed.Rows(tester.Clock(), 20, time.Millisecond, "new"))
	})

	slices := 0
	for tester.FlushSlice() {
		slices++
		if len(tester.Commits()) == 0 && tester.Find(ByText("new")).Exists() {
			t.Fatal("partial transition became visible")
		}
	}
	if slices < 3 {
		t.Errorf("expected the transition to yield several times, got %d slices", slices)
	}
	if got := tester.Find(ByText("new")).Count(); got != 20 {
		t.Errorf("expected 20 new rows, got %d", got)
	}
}

func TestTransition_ExpiresWithoutYielding(t *testing.T) {
	tester := NewRootTesterWithT(t)
	tester.Reconciler().StartTransition(func() {
		tester.Root().Render(testbed.Rows(tester.Clock(), 20, time.Millisecond, "late"))
	})
	tester.Clock().Advance(time.Minute)

	if more := tester.FlushSlice(); more {
		t.Error("expected the expired transition to finish in one slice")
	}
	if len(tester.Commits()) != 1 {
		t.Errorf("expected 1 commit, got %d", len(tester.Commits()))
	}
}
