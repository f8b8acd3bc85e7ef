package elasticsearch

import (
	"time"

	"github.com/jonesrussell/cooper/infrastructure/retry"
)

// Config holds Elasticsearch connection settings.
type Config struct {
	URL                string        `env:"ELASTICSEARCH_URL"      yaml:"url"`
	Username           string        `env:"ELASTICSEARCH_USERNAME" yaml:"username"`
	Password           string        `env:"ELASTICSEARCH_PASSWORD" yaml:"password"`
	APIKey             string        `env:"ELASTICSEARCH_API_KEY"  yaml:"api_key"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	MaxRetries         int           `yaml:"max_retries"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	// ConnectAttempts bounds the startup ping loop.
	ConnectAttempts int `yaml:"connect_attempts"`
}

// SetDefaults applies default values to unset fields.
func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:9200"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = 5 * time.Second
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 3
	}
}

func (c *Config) retryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  c.ConnectAttempts,
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		IsRetryable:  func(error) bool { return true },
	}
}
