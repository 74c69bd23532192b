package core

// Tag identifies what kind of node a fiber represents.
type Tag uint8

const (
	HostRoot Tag = iota
	HostComponent
	HostText
	FunctionComponent
	Fragment
	ContextProvider
	SuspenseComponent
	OffscreenComponent
)

func (t Tag) String() string {
	switch t {
	case HostRoot:
		return "HostRoot"
	case HostComponent:
		return "HostComponent"
	case HostText:
		return "HostText"
	case FunctionComponent:
		return "FunctionComponent"
	case Fragment:
		return "Fragment"
	case ContextProvider:
		return "ContextProvider"
	case SuspenseComponent:
		return "Suspense"
	case OffscreenComponent:
		return "Offscreen"
	default:
		return "Unknown"
	}
}
