package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/cooper/infrastructure/logger"
)

func TestStateTracker_TerminalStateIsFinal(t *testing.T) {
	t.Parallel()

	tracker := &stateTracker{state: StateSubmitted, log: logger.NewNop()}

	tracker.move(StateRunning)
	tracker.move(StateRunning)
	assert.Equal(t, StateRunning, tracker.state)

	tracker.move(StateSucceeded)
	assert.Equal(t, StateSucceeded, tracker.state)

	for _, to := range []JobState{StateRunning, StateFailed, StateTimedOut, StateCancelled} {
		tracker.move(to)
		assert.Equal(t, StateSucceeded, tracker.state, "moved to %s", to)
	}
}
