// Package events provides the shared envelope for analysis run events
// published to Redis Streams.
package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream for run events.
const StreamName = "cooper-run-events"

// DefaultMaxLen caps the stream; trimming is approximate.
const DefaultMaxLen = 10000

// EventType represents the type of run event.
type EventType string

const (
	// RunStarted is published before the first stage.
	RunStarted EventType = "RUN_STARTED"
	// StageCompleted is published after each successful stage.
	StageCompleted EventType = "STAGE_COMPLETED"
	// StageFailed is published when a stage aborts the run.
	StageFailed EventType = "STAGE_FAILED"
	// RunCompleted is published with the finished report summary.
	RunCompleted EventType = "RUN_COMPLETED"
	// RunFailed is published when a run ends with an error.
	RunFailed EventType = "RUN_FAILED"
)

// RunEvent is the envelope for all run events.
type RunEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	RunID     uuid.UUID `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// RunPayload describes the run or stage an event refers to.
type RunPayload struct {
	Stage      string `json:"stage,omitempty"`
	Query      string `json:"query,omitempty"`
	URL        string `json:"url,omitempty"`
	VideoCount int    `json:"video_count,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
	// Schedule names the scheduler entry that started the run, if any.
	Schedule string `json:"schedule,omitempty"`
	// Insights is set on RUN_COMPLETED.
	Insights []string `json:"insights,omitempty"`
}

// IsTerminal reports whether t ends a run.
func (t EventType) IsTerminal() bool {
	return t == RunCompleted || t == RunFailed
}
