// Package state implements the lifecycle of a runtime.
package state

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidState is returned if the event cannot be handled in the
// current state.
var ErrInvalidState = errors.New("invalid state")

// State identifies one of the lifecycle states.
type State uint

// Lifecycle states.
const (
	Built State = iota + 1
	Compiled
	Running
	Paused
	Stopped
)

// Event triggers a state change.
type Event uint

// Lifecycle events.
const (
	Compile Event = iota + 1
	Run
	Pause
	Resume
	Stop
)

func (s State) String() string {
	switch s {
	case Built:
		return "state.Built"
	case Compiled:
		return "state.Compiled"
	case Running:
		return "state.Running"
	case Paused:
		return "state.Paused"
	case Stopped:
		return "state.Stopped"
	default:
		return "state.Unknown"
	}
}

func (e Event) String() string {
	switch e {
	case Compile:
		return "event.Compile"
	case Run:
		return "event.Run"
	case Pause:
		return "event.Pause"
	case Resume:
		return "event.Resume"
	case Stop:
		return "event.Stop"
	default:
		return "event.Unknown"
	}
}

// transition returns the state reached from s after e.
func transition(s State, e Event) (State, error) {
	switch s {
	case Built:
		switch e {
		case Compile:
			return Compiled, nil
		}
	case Compiled, Stopped:
		switch e {
		case Run:
			return Running, nil
		}
	case Running:
		switch e {
		case Pause:
			return Paused, nil
		case Stop:
			return Stopped, nil
		}
	case Paused:
		switch e {
		case Resume:
			return Running, nil
		case Stop:
			return Stopped, nil
		}
	}
	return s, fmt.Errorf("%v in %v: %w", e, s, ErrInvalidState)
}

// Machine holds the current state. It's safe for concurrent use.
type Machine struct {
	mu    sync.Mutex
	state State
}

// New returns a machine in Built state.
func New() *Machine {
	return &Machine{state: Built}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Handle applies the event. The state is unchanged if an error is
// returned.
func (m *Machine) Handle(e Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := transition(m.state, e)
	if err != nil {
		return m.state, err
	}
	m.state = s
	return s, nil
}
