package job

import (
	"errors"
	"fmt"
	"slices"
)

// State is a step of a job.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSynthesizing
	StateAssembling
	StateCheckpointing
	StateFinalizing
	StateDone
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSynthesizing:
		return "synthesizing"
	case StateAssembling:
		return "assembling"
	case StateCheckpointing:
		return "checkpointing"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// ErrInvalidTransition is returned for a transition the job never makes.
var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State][]State{
	StateIdle:          {StateLoading, StateFailed},
	StateLoading:       {StateSynthesizing, StateFinalizing, StateDone, StateFailed},
	StateSynthesizing:  {StateAssembling, StateCheckpointing, StateFailed},
	StateAssembling:    {StateCheckpointing, StateFailed},
	StateCheckpointing: {StateSynthesizing, StateFinalizing, StateFailed},
	StateFinalizing:    {StateDone, StateFailed},
}

// StateMachine validates job state transitions.
type StateMachine struct {
	current State
	onEnter func(from, to State)
}

// NewStateMachine creates a machine in StateIdle. onEnter, if set, runs
// after every successful transition.
func NewStateMachine(onEnter func(from, to State)) *StateMachine {
	return &StateMachine{current: StateIdle, onEnter: onEnter}
}

// Transition moves to the given state.
func (sm *StateMachine) Transition(to State) error {
	if !slices.Contains(transitions[sm.current], to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, sm.current, to)
	}
	from := sm.current
	sm.current = to
	if sm.onEnter != nil {
		sm.onEnter(from, to)
	}
	return nil
}

// Current returns the current state.
func (sm *StateMachine) Current() State {
	return sm.current
}
