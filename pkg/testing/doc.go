// Package testing provides a harness for testing components against the
// reconciler without a real host.
//
// # Quick Start
//
// Create a tester, render a tree, and make assertions:
//
//	func TestCounter(t *testing.T) {
//	    tester := fibertest.NewRootTesterWithT(t)
//	    tester.Render(element.New(Counter, nil))
//
//	    tester.Tap(fibertest.ByKind("button"))
//
//	    if !tester.Find(fibertest.ByText("1")).Exists() {
//	        t.Error("expected count 1")
//	    }
//	}
//
// The tester renders into an in-memory host and drives its own scheduler
// on a fake clock. Render, Act and Tap flush all resulting work, including
// passive effects and the updates they schedule, before returning.
//
// # Time slicing
//
// FlushSlice runs one scheduler slice, so a test can observe a transition
// that yielded part way through:
//
//	tester.Reconciler().StartTransition(func() { tester.Root().Render(tree) })
//	tester.FlushSlice()
//
// Components advance time with tester.Clock().Advance.
//
// # Snapshot Testing
//
// Compare the host tree with a golden file:
//
//	tester.CaptureSnapshot().MatchesFile(t, "testdata/counter.snapshot")
//
// Update snapshots with:
//
//	FIBER_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import fibertest "github.com/go-drift/fiber/pkg/testing"
package testing
