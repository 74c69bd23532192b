package element

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewLiftsKeyAndRef(t *testing.T) {
	ref := NewRef()
	props := Props{"key": 7, "ref": ref, "class": "row"}
	el := New("item", props, "a", "b")

	if !el.HasKey || el.Key != "7" {
		t.Errorf("key = (%q, %v), want (\"7\", true)", el.Key, el.HasKey)
	}
	if el.Ref != ref {
		t.Error("ref was not lifted onto the element")
	}
	if _, ok := el.Props["key"]; ok {
		t.Error("key should not remain in props")
	}
	if _, ok := props["children"]; ok {
		t.Error("New must not modify the caller's props")
	}
	if diff := cmp.Diff([]Node{"a", "b"}, el.Props.Children()); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestChildrenNormalization(t *testing.T) {
	tests := []struct {
		name  string
		props Props
		want  []Node
	}{
		{"none", Props{}, nil},
		{"single", Props{"children": "x"}, []Node{"x"}},
		{"slice", Props{"children": []Node{1, 2}}, []Node{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.props.Children()); diff != "" {
				t.Errorf("Children() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKeyedCopies(t *testing.T) {
	el := New("item", nil)
	k := el.Keyed("a")
	if el.HasKey {
		t.Error("Keyed modified the original")
	}
	if k.Key != "a" || !k.HasKey {
		t.Errorf("Keyed key = %q", k.Key)
	}
}

func TestSuspenseProps(t *testing.T) {
	el := Suspense("loading", true, "content")
	if el.Type != SuspenseType {
		t.Fatalf("type = %v", el.Type)
	}
	if el.Props["fallback"] != "loading" || el.Props["suspended"] != true {
		t.Errorf("props = %v", el.Props)
	}
}

func TestContextProvide(t *testing.T) {
	theme := NewNamedContext("Theme", "light")
	el := theme.Provide("dark", "child")
	p, ok := el.Type.(*Provider)
	if !ok || p.Context() != theme {
		t.Fatalf("provider type = %T", el.Type)
	}
	if el.Props["value"] != "dark" {
		t.Errorf("value = %v", el.Props["value"])
	}
	if theme.Default() != "light" {
		t.Errorf("default = %v", theme.Default())
	}
	if got := TypeName(el.Type); got != "Theme.Provider" {
		t.Errorf("TypeName = %q", got)
	}
}

func Greeting(props Props) Node { return nil }

func TestTypeName(t *testing.T) {
	tests := []struct {
		typ  any
		want string
	}{
		{"div", "div"},
		{FragmentType, "Fragment"},
		{SuspenseType, "Suspense"},
		{Greeting, "element.Greeting"},
		{nil, "nil"},
		{42, "int"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.typ); got != tt.want {
			t.Errorf("TypeName(%v) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestIsText(t *testing.T) {
	for _, n := range []Node{"s", 1, 2.5, uint8(3)} {
		if !IsText(n) {
			t.Errorf("IsText(%v) = false", n)
		}
	}
	for _, n := range []Node{nil, true, New("x", nil), []Node{}} {
		if IsText(n) {
			t.Errorf("IsText(%v) = true", n)
		}
	}
	if Text(3) != "3" {
		t.Errorf("Text(3) = %q", Text(3))
	}
}
