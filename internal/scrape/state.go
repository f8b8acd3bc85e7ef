package scrape

import "fmt"

// JobState is a scrape job's position in its lifecycle.
type JobState string

const (
	StateSubmitted JobState = "submitted"
	StateRunning   JobState = "running"
	StateSucceeded JobState = "succeeded"
	StateFailed    JobState = "failed"
	// StateTimedOut is client-side: the deadline passed before the backend
	// reported a terminal state.
	StateTimedOut JobState = "timed_out"
	// StateCancelled is client-side: the caller's context ended first.
	StateCancelled JobState = "cancelled"
)

var validTransitions = map[JobState][]JobState{
	StateSubmitted: {
		StateRunning,   // first poll saw the job queued or running
		StateSucceeded, // first poll saw it already finished
		StateFailed,
		StateTimedOut,
		StateCancelled,
	},
	StateRunning: {
		StateRunning, // still running on the next poll
		StateSucceeded,
		StateFailed,
		StateTimedOut,
		StateCancelled,
	},
	StateSucceeded: {},
	StateFailed:    {},
	StateTimedOut:  {},
	StateCancelled: {},
}

// ValidateStateTransition returns an error when from cannot move to to.
func ValidateStateTransition(from, to JobState) error {
	allowedStates, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown source state: %s", from)
	}

	for _, allowed := range allowedStates {
		if allowed == to {
			return nil
		}
	}

	return fmt.Errorf("invalid state transition from %s to %s", from, to)
}

// IsTerminalState reports whether no further transitions are possible.
func IsTerminalState(state JobState) bool {
	switch state {
	case StateSucceeded, StateFailed, StateTimedOut, StateCancelled:
		return true
	default:
		return false
	}
}
