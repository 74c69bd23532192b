// Package scenario loads the YAML files replayed by fiberctl.
//
// A scenario is a list of steps, each rendering a tree at one lane:
//
//	version: v1.0.0
//	name: reorder
//	steps:
//	  - name: mount
//	    tree:
//	      kind: list
//	      children:
//	        - {kind: item, key: a, text: A}
//	        - {kind: item, key: b, text: B}
//	  - name: reverse
//	    lane: transition
//	    tree:
//	      kind: list
//	      children:
//	        - {kind: item, key: b, text: B}
//	        - {kind: item, key: a, text: A}
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/fiber/pkg/element"
	"github.com/go-drift/fiber/pkg/lanes"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// FileName is the scenario file looked up by LoadOptional.
const FileName = "fiberctl.yaml"

// SupportedMajor is the major scenario format version this build reads.
const SupportedMajor = "v1"

// Special node kinds.
const (
	KindFragment = "fragment"
	KindSuspense = "suspense"
)

var (
	// ErrNoVersion is returned for a scenario without a version field.
	ErrNoVersion = errors.New("scenario has no version")
	// ErrNoSteps is returned for a scenario without steps.
	ErrNoSteps = errors.New("scenario has no steps")
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Version   string        `yaml:"version"`
	Name      string        `yaml:"name,omitempty"`
	TimeSlice time.Duration `yaml:"timeSlice,omitempty"`
	Steps     []Step        `yaml:"steps"`
}

// Step renders Tree at Lane, or unmounts the root when Unmount is set.
type Step struct {
	Name    string `yaml:"name,omitempty"`
	Lane    string `yaml:"lane,omitempty"`
	Unmount bool   `yaml:"unmount,omitempty"`
	Tree    *Node  `yaml:"tree,omitempty"`
}

// Node describes one element. A node with only Text is a text child.
type Node struct {
	Kind     string         `yaml:"kind,omitempty"`
	Key      string         `yaml:"key,omitempty"`
	Text     string         `yaml:"text,omitempty"`
	Props    map[string]any `yaml:"props,omitempty"`
	Fallback *Node          `yaml:"fallback,omitempty"`
	Children []*Node        `yaml:"children,omitempty"`
}

// Load reads and validates the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return sc, nil
}

// LoadOptional reads fiberctl.yaml from dir if present. A missing file
// yields nil and no error.
func LoadOptional(dir string) (*Scenario, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", FileName, err)
	}
	return Load(path)
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if sc.TimeSlice <= 0 {
		sc.TimeSlice = scheduler.DefaultTimeSlice
	}
	return &sc, nil
}

// Validate checks the version and every step.
func (sc *Scenario) Validate() error {
	v := strings.TrimSpace(sc.Version)
	if v == "" {
		return ErrNoVersion
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid scenario version %q", sc.Version)
	}
	if major := semver.Major(v); major != SupportedMajor {
		return fmt.Errorf("unsupported scenario version %s (want %s.x)", v, SupportedMajor)
	}
	sc.Version = semver.Canonical(v)

	if len(sc.Steps) == 0 {
		return ErrNoSteps
	}
	for i, step := range sc.Steps {
		if _, err := step.Priority(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Unmount && step.Tree != nil {
			return fmt.Errorf("step %d: unmount step cannot have a tree", i+1)
		}
		if step.Tree != nil {
			if err := step.Tree.validate(); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// Label returns the step name, or its one-based position.
func (s Step) Label(i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("step %d", i+1)
}

// LaneOf returns the lane the step renders at. Steps default to the sync lane.
func (s Step) LaneOf() (lanes.Lane, error) {
	if s.Lane == "" {
		return lanes.SyncLane, nil
	}
	lane, ok := lanes.Parse(s.Lane)
	if !ok || lanes.Count(lane) != 1 {
		return lanes.NoLane, fmt.Errorf("unknown lane %q", s.Lane)
	}
	return lane, nil
}

// Priority returns the scheduler priority whose updates are assigned the
// step's lane.
func (s Step) Priority() (scheduler.Priority, error) {
	lane, err := s.LaneOf()
	if err != nil {
		return scheduler.NormalPriority, err
	}
	switch lane {
	case lanes.SyncLane:
		return scheduler.ImmediatePriority, nil
	case lanes.InputContinuousLane:
		return scheduler.UserBlockingPriority, nil
	case lanes.TransitionLane:
		return scheduler.LowPriority, nil
	case lanes.IdleLane:
		return scheduler.IdlePriority, nil
	default:
		return scheduler.NormalPriority, nil
	}
}

// Element returns the step's tree as an element, or nil.
func (s Step) Element() element.Node {
	if s.Tree == nil {
		return nil
	}
	return s.Tree.Element()
}

func (n *Node) validate() error {
	if n.Kind == "" && n.Text == "" {
		return errors.New("node needs a kind or text")
	}
	if n.Kind == "" && (len(n.Children) > 0 || n.Key != "") {
		return fmt.Errorf("text node %q cannot have a key or children", n.Text)
	}
	if n.Fallback != nil {
		if n.Kind != KindSuspense {
			return fmt.Errorf("%s: only suspense nodes take a fallback", n.Kind)
		}
		if err := n.Fallback.validate(); err != nil {
			return err
		}
	}
	for _, child := range n.Children {
		if child == nil {
			return fmt.Errorf("%s: empty child", n.Kind)
		}
		if err := child.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Element converts n into the element the reconciler renders.
func (n *Node) Element() element.Node {
	if n.Kind == "" {
		return n.Text
	}
	children := make([]element.Node, 0, len(n.Children)+1)
	if n.Text != "" {
		children = append(children, n.Text)
	}
	for _, child := range n.Children {
		children = append(children, child.Element())
	}

	var el *element.Element
	switch n.Kind {
	case KindFragment:
		el = element.Fragment(children...)
	case KindSuspense:
		suspended, _ := n.Props["suspended"].(bool)
		var fallback element.Node
		if n.Fallback != nil {
			fallback = n.Fallback.Element()
		}
		el = element.Suspense(fallback, suspended, children...)
	default:
		props := make(element.Props, len(n.Props))
		for k, v := range n.Props {
			props[k] = v
		}
		el = element.New(n.Kind, props, children...)
	}
	if n.Key != "" {
		el = el.Keyed(n.Key)
	}
	return el
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	count := 1
	for _, child := range n.Children {
		count += child.Count()
	}
	return count + n.Fallback.Count()
}
