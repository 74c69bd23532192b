package testing

import (
	"testing"

	"github.com/go-drift/fiber/pkg/element"
	"github.com/go-drift/fiber/pkg/host/memhost"
	"github.com/go-drift/fiber/pkg/testing/internal/testbed"
)

func renderMenu(t *testing.T) *RootTester {
	tester := NewRootTesterWithT(t)
	tester.Render(element.New("menu", element.Props{"id": "main"},
		element.New("item", element.Props{"id": "open"}, "Open file"),
		element.New("group", nil,
			element.New("item", element.Props{"id": "save"}, "Save"),
			element.New("item", element.Props{"id": "quit"}, "Quit"),
		),
		element.New(testbed.Counter, element.Props{"initial": 42}),
	))
	return tester
}

func TestByKind(t *testing.T) {
	tester := renderMenu(t)

	result := tester.Find(ByKind("item"))
	if result.Count() != 3 {
		t.Fatalf("expected 3 items, got %d", result.Count())
	}
	if got := result.At(1).Props["id"]; got != "save" {
		t.Errorf("expected pre-order traversal, item 1 is %v", got)
	}
}

func TestByText(t *testing.T) {
	tester := renderMenu(t)

	if !tester.Find(ByText("42")).Exists() {
		t.Error("expected to find text '42'")
	}
	if tester.Find(ByText("99")).Exists() {
		t.Error("should not find text '99'")
	}
}

func TestByTextContaining(t *testing.T) {
	tester := renderMenu(t)

	if got := tester.Find(ByTextContaining("file")).Count(); got != 1 {
		t.Errorf("expected 1 text containing 'file', got %d", got)
	}
}

func TestByProp(t *testing.T) {
	tester := renderMenu(t)

	result := tester.Find(ByProp("id", "quit"))
	if !result.Exists() {
		t.Fatal("expected to find id=quit")
	}
	if got := result.Text(); got != "Quit" {
		t.Errorf("expected text Quit, got %q", got)
	}
	if tester.Find(ByProp("id", 7)).Exists() {
		t.Error("should not match a prop of another type")
	}
}

func TestByPredicate(t *testing.T) {
	tester := renderMenu(t)

	result := tester.Find(ByPredicate(func(n *memhost.Node) bool {
		return len(n.Children) == 2
	}))
	if result.Count() != 1 || result.First().Kind != "group" {
		t.Errorf("expected only the group to have two children, got %d matches", result.Count())
	}
}

func TestDescendant(t *testing.T) {
	tester := renderMenu(t)

	result := tester.Find(Descendant(ByKind("group"), ByKind("item")))
	if result.Count() != 2 {
		t.Errorf("expected 2 items inside the group, got %d", result.Count())
	}
}

func TestAncestor(t *testing.T) {
	tester := renderMenu(t)

	result := tester.Find(Ancestor(ByText("Save"), ByPredicate(func(n *memhost.Node) bool { return !n.IsText })))
	var kinds []string
	for _, n := range result.All() {
		kinds = append(kinds, n.Kind)
	}
	if len(kinds) != 3 || kinds[0] != "menu" || kinds[1] != "group" || kinds[2] != "item" {
		t.Errorf("expected ancestors [menu group item], got %v", kinds)
	}
}

func TestFinderResult_Empty(t *testing.T) {
	tester := renderMenu(t)
	result := tester.Find(ByKind("nothing"))

	if result.FirstOrNil() != nil {
		t.Error("expected FirstOrNil to return nil")
	}
	defer func() {
		r := recover()
		if r == nil {
			t.Error("expected First to panic")
		}
	}()
	result.First()
}

func TestFinderResult_AtOutOfRange(t *testing.T) {
	tester := renderMenu(t)
	defer func() {
		if recover() == nil {
			t.Error("expected At to panic")
		}
	}()
	tester.Find(ByKind("item")).At(5)
}
