// Package sse fans events out to Server-Sent Events clients.
package sse

import (
	"errors"
	"time"
)

// Defaults.
const (
	DefaultClientBufferSize  = 64
	DefaultHeartbeatInterval = 15 * time.Second
	DefaultMaxClients        = 100
)

const eventTypeConnected = "connected"

// Subscribe errors.
var (
	ErrTooManyClients = errors.New("too many sse clients")
	ErrClosed         = errors.New("sse broker closed")
)

// Event is one Server-Sent Event. Data is written as JSON.
type Event struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Data any    `json:"data"`
}

// EventFilter reports whether a client wants event.
type EventFilter func(event Event) bool

// TypeFilter accepts events whose Type is one of types. No types accepts all.
func TypeFilter(types ...string) EventFilter {
	if len(types) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return func(event Event) bool {
		_, ok := allowed[event.Type]
		return ok
	}
}

// Option configures a Broker.
type Option func(*Broker)

// WithClientBufferSize sets the per-client buffer.
func WithClientBufferSize(size int) Option {
	return func(b *Broker) {
		if size > 0 {
			b.clientBufferSize = size
		}
	}
}

// WithMaxClients caps concurrent clients. Zero means unlimited.
func WithMaxClients(n int) Option {
	return func(b *Broker) {
		if n >= 0 {
			b.maxClients = n
		}
	}
}

// WithHeartbeatInterval sets how often idle streams get a comment line.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.heartbeatInterval = d
		}
	}
}
