package events

import (
	"context"

	infraevents "github.com/jonesrussell/cooper/infrastructure/events"
	"github.com/jonesrussell/cooper/infrastructure/sse"
)

// Sink receives run events. Publish never fails the run.
type Sink interface {
	Publish(ctx context.Context, event infraevents.RunEvent)
}

// Fanout publishes each event to every sink in order.
type Fanout []Sink

// Publish implements Sink.
func (f Fanout) Publish(ctx context.Context, event infraevents.RunEvent) {
	for _, s := range f {
		if s != nil {
			s.Publish(ctx, event)
		}
	}
}

// Relay forwards run events to live SSE subscribers. A nil *Relay is a
// no-op.
type Relay struct {
	broker *sse.Broker
}

// NewRelay creates a relay onto broker.
func NewRelay(broker *sse.Broker) *Relay {
	return &Relay{broker: broker}
}

// Publish implements Sink.
func (r *Relay) Publish(_ context.Context, event infraevents.RunEvent) {
	if r == nil || r.broker == nil {
		return
	}
	r.broker.Publish(sse.Event{
		Type: string(event.EventType),
		ID:   event.EventID.String(),
		Data: event,
	})
}
