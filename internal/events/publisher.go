// Package events publishes analysis run events to Redis Streams.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	infraevents "github.com/jonesrussell/cooper/infrastructure/events"
	"github.com/jonesrussell/cooper/infrastructure/logger"
)

// publishTimeout bounds one XADD so a slow broker cannot stall a run.
const publishTimeout = 5 * time.Second

// Publisher publishes run events. A nil *Publisher is a no-op.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
	log    logger.Logger
}

// NewPublisher creates a publisher on stream. Returns nil if client is nil.
func NewPublisher(client *redis.Client, stream string, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if stream == "" {
		stream = infraevents.StreamName
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Publisher{
		client: client,
		stream: stream,
		maxLen: infraevents.DefaultMaxLen,
		log:    log,
	}
}

// Publish appends event to the stream. Failures are logged, never returned.
func (p *Publisher) Publish(ctx context.Context, event infraevents.RunEvent) {
	if p == nil {
		return
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if err := p.publish(ctx, event); err != nil {
		p.log.Error("Failed to publish run event",
			logger.String("event_type", string(event.EventType)),
			logger.String("run_id", event.RunID.String()),
			logger.Error(err),
		)
	}
}

func (p *Publisher) publish(ctx context.Context, event infraevents.RunEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// a cancelled run still reports how it ended
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"event": string(payload),
		},
	})
	if err := result.Err(); err != nil {
		return fmt.Errorf("publish to stream: %w", err)
	}

	p.log.Debug("Published run event",
		logger.String("event_type", string(event.EventType)),
		logger.String("run_id", event.RunID.String()),
		logger.String("stream_id", result.Val()),
	)
	return nil
}
