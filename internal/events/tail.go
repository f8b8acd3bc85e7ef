package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	infraevents "github.com/jonesrussell/cooper/infrastructure/events"
)

// LatestID starts a tail at new entries only.
const LatestID = "$"

const tailBlock = 2 * time.Second

// Handler receives each decoded event with its stream entry ID.
type Handler func(id string, event infraevents.RunEvent) error

// Tail reads stream from after startID until ctx ends or handler fails.
// Entries whose event field does not decode are skipped.
func Tail(ctx context.Context, client *redis.Client, stream, startID string, handler Handler) error {
	if stream == "" {
		stream = infraevents.StreamName
	}
	lastID := startID
	if lastID == "" {
		lastID = LatestID
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{stream, lastID},
			Count:   100,
			Block:   tailBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read stream %s: %w", stream, err)
		}

		for _, s := range res {
			for _, msg := range s.Messages {
				lastID = msg.ID

				event, ok := decode(msg)
				if !ok {
					continue
				}
				if err := handler(msg.ID, event); err != nil {
					return err
				}
			}
		}
	}
}

func decode(msg redis.XMessage) (infraevents.RunEvent, bool) {
	var event infraevents.RunEvent

	raw, ok := msg.Values["event"].(string)
	if !ok {
		return event, false
	}
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return event, false
	}
	return event, true
}
