package sse

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/cooper/infrastructure/logger"
)

type client struct {
	id     string
	events chan Event
	filter EventFilter
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.events) })
}

// Broker delivers published events to every subscribed client. A client
// whose buffer is full is disconnected rather than allowed to block
// Publish.
type Broker struct {
	log logger.Logger

	mu      sync.RWMutex
	clients map[string]*client
	closed  atomic.Bool

	clientBufferSize  int
	maxClients        int
	heartbeatInterval time.Duration
}

// NewBroker creates a Broker.
func NewBroker(log logger.Logger, opts ...Option) *Broker {
	if log == nil {
		log = logger.NewNop()
	}
	b := &Broker{
		log:               log.With(logger.String("component", "sse")),
		clients:           make(map[string]*client),
		clientBufferSize:  DefaultClientBufferSize,
		maxClients:        DefaultMaxClients,
		heartbeatInterval: DefaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish sends event to every client whose filter accepts it.
func (b *Broker) Publish(event Event) {
	if b == nil || b.closed.Load() {
		return
	}

	b.mu.RLock()
	var slow []string
	sent := 0
	for id, c := range b.clients {
		if c.filter != nil && !c.filter(event) {
			continue
		}
		select {
		case c.events <- event:
			sent++
		default:
			slow = append(slow, id)
		}
	}
	b.mu.RUnlock()

	for _, id := range slow {
		b.log.Warn("Client buffer full, disconnecting",
			logger.String("client_id", id),
			logger.String("event_type", event.Type),
		)
		b.remove(id)
	}

	if sent > 0 {
		b.log.Debug("Event broadcast",
			logger.String("event_type", event.Type),
			logger.Int("sent", sent),
		)
	}
}

// Subscribe registers a client until ctx ends or cleanup is called. The
// returned channel is closed when the subscription ends.
func (b *Broker) Subscribe(ctx context.Context, filter EventFilter) (<-chan Event, func(), error) {
	if b.closed.Load() {
		return nil, nil, ErrClosed
	}

	b.mu.Lock()
	if b.maxClients > 0 && len(b.clients) >= b.maxClients {
		count := len(b.clients)
		b.mu.Unlock()
		b.log.Warn("Max SSE clients reached", logger.Int("clients", count))
		return nil, nil, ErrTooManyClients
	}
	c := &client{
		id:     uuid.NewString(),
		events: make(chan Event, b.clientBufferSize),
		filter: filter,
	}
	b.clients[c.id] = c
	b.mu.Unlock()

	b.log.Debug("Client subscribed", logger.String("client_id", c.id))

	stop := context.AfterFunc(ctx, func() { b.remove(c.id) })
	cleanup := func() {
		stop()
		b.remove(c.id)
	}
	return c.events, cleanup, nil
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects every client. Later publishes are dropped.
func (b *Broker) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.mu.Lock()
	clients := b.clients
	b.clients = make(map[string]*client)
	b.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	b.log.Info("SSE broker closed", logger.Int("clients", len(clients)))
	return nil
}

func (b *Broker) remove(id string) {
	b.mu.Lock()
	c, ok := b.clients[id]
	delete(b.clients, id)
	b.mu.Unlock()

	if ok {
		c.close()
		b.log.Debug("Client disconnected", logger.String("client_id", id))
	}
}
