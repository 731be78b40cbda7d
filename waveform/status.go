package waveform

import "fmt"

// State is the controller state.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is a point-in-time snapshot of the controller.
type Status struct {
	State State
	// Source is the name of the current audio source, if any.
	Source string
	// Duration is the decoded length in seconds once Ready.
	Duration float64
	Playing  bool
	// LoadErr is the LoadFailed error of the current lifecycle, if any.
	LoadErr error
	// Generation increments every time a surface is built.
	Generation uint64
}
