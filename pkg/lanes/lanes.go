// Package lanes implements the bitmask priority model used by the reconciler.
//
// A Lane is a single power-of-two bit; smaller bits are more urgent. A set of
// lanes (Lanes) is the bitwise OR of its members, so a root can track several
// pending priorities at once and a single render can service a merged set.
package lanes

import (
	"math/bits"
	"strings"
)

// Lane is a single priority bit. Lanes is a set of them; both share the same
// representation so a Lane can be used anywhere a Lanes is expected.
type Lane uint32

// Lanes is a union of Lane bits.
type Lanes = Lane

const (
	NoLane  Lane  = 0b00000
	NoLanes Lanes = 0b00000

	// SyncLane is the most urgent lane. Work at this lane is flushed from a
	// microtask and never time-sliced.
	SyncLane Lane = 0b00001
	// InputContinuousLane is used for continuous user input such as drags.
	InputContinuousLane Lane = 0b00010
	// DefaultLane is used for work without an explicit priority, including
	// updates raised while passive effects are flushed.
	DefaultLane Lane = 0b00100
	// TransitionLane is used for updates raised inside a transition.
	TransitionLane Lane = 0b01000
	// IdleLane is used for work that may be deferred indefinitely.
	IdleLane Lane = 0b10000
)

// Merge returns the union of a and b.
func Merge(a, b Lanes) Lanes {
	return a | b
}

// Remove returns set with every bit of subset cleared.
func Remove(set, subset Lanes) Lanes {
	return set &^ subset
}

// HighestPriority returns the most urgent lane in set, or NoLane if set is
// empty. It isolates the lowest set bit with the two's-complement trick.
func HighestPriority(set Lanes) Lane {
	return set & -set
}

// IsSubset reports whether every bit of subset is contained in set. The
// reconciler uses it to decide whether an update belongs to the lanes being
// rendered; NoLane is a subset of every set.
func IsSubset(set, subset Lanes) bool {
	return set&subset == subset
}

// Includes reports whether set and other share at least one lane.
func Includes(set, other Lanes) bool {
	return set&other != NoLanes
}

// Count returns the number of lanes in set.
func Count(set Lanes) int {
	return bits.OnesCount32(uint32(set))
}

var laneNames = []struct {
	lane Lane
	name string
}{
	{SyncLane, "sync"},
	{InputContinuousLane, "input"},
	{DefaultLane, "default"},
	{TransitionLane, "transition"},
	{IdleLane, "idle"},
}

// String returns a "|" separated list of lane names.
func (l Lane) String() string {
	if l == NoLane {
		return "none"
	}
	var parts []string
	rest := l
	for _, entry := range laneNames {
		if l&entry.lane != 0 {
			parts = append(parts, entry.name)
			rest &^= entry.lane
		}
	}
	if rest != 0 {
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, "|")
}

// Parse returns the lane for a name produced by String. It reports false for
// unknown names.
func Parse(name string) (Lane, bool) {
	for _, entry := range laneNames {
		if entry.name == name {
			return entry.lane, true
		}
	}
	return NoLane, false
}
