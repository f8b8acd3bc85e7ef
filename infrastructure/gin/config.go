// Package gin runs cooper's operational HTTP server: health, readiness and
// metrics endpoints with request logging and panic recovery.
package gin

import "time"

// Default timeouts for the operational server.
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
)

// Config holds the server configuration.
type Config struct {
	// Address is host:port to listen on.
	Address         string
	Debug           bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	ServiceName     string
	ServiceVersion  string
}

// SetDefaults applies default values to unset fields.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8090"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.ServiceName == "" {
		c.ServiceName = "cooper"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
}
