package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cooper/infrastructure/events"
)

func TestRunEvent_MarshalJSON(t *testing.T) {
	t.Parallel()

	event := events.RunEvent{
		EventID:   uuid.MustParse("550e8400-e29b-41d4-a716-446655440001"),
		EventType: events.StageCompleted,
		RunID:     uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Timestamp: time.Date(2026, 1, 29, 10, 30, 0, 0, time.UTC),
		Payload: events.RunPayload{
			Stage:      "scrape",
			Query:      "cooking",
			VideoCount: 2,
			DurationMS: 1500,
		},
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "STAGE_COMPLETED", decoded["event_type"])
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", decoded["run_id"])
	assert.Equal(t, "2026-01-29T10:30:00Z", decoded["timestamp"])

	payload, ok := decoded["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "scrape", payload["stage"])
	assert.InDelta(t, 2, payload["video_count"], 0)
	assert.NotContains(t, payload, "error")
	assert.NotContains(t, payload, "schedule")
}

func TestEventType_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, events.RunStarted.IsTerminal())
	assert.False(t, events.StageCompleted.IsTerminal())
	assert.False(t, events.StageFailed.IsTerminal())
	assert.True(t, events.RunCompleted.IsTerminal())
	assert.True(t, events.RunFailed.IsTerminal())
}
