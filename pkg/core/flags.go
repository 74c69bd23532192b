package core

import "strings"

// Flags mark the commit work a fiber needs.
type Flags uint16

const (
	NoFlags   Flags = 0
	Placement Flags = 1 << (iota - 1)
	Update
	ChildDeletion
	Ref
	Visibility
	Passive
)

const (
	MutationMask = Placement | Update | ChildDeletion | Ref | Visibility
	LayoutMask   = Ref
	// PassiveMask includes deletions because unmounting a function
	// component runs its effect destroys in the passive flush.
	PassiveMask = Passive | ChildDeletion
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{Placement, "placement"},
	{Update, "update"},
	{ChildDeletion, "deletion"},
	{Ref, "ref"},
	{Visibility, "visibility"},
	{Passive, "passive"},
}

func (f Flags) String() string {
	if f == NoFlags {
		return "none"
	}
	var parts []string
	for _, n := range flagNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
