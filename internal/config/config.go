// Package config defines cooper's service configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/cooper/infrastructure/config"
	"github.com/jonesrussell/cooper/infrastructure/elasticsearch"
	"github.com/jonesrussell/cooper/infrastructure/logger"
	infraredis "github.com/jonesrussell/cooper/infrastructure/redis"
	"github.com/jonesrussell/cooper/internal/llm"
)

// Modes.
const (
	ModeLive    = "live"
	ModeOffline = "offline"
)

// Scrape backends. Auto picks Apify or the webhook from whichever
// credentials are present and serves fixtures when neither is.
const (
	BackendAuto    = "auto"
	BackendApify   = "apify"
	BackendWebhook = "webhook"
)

const (
	defaultServerPort           = 8090
	defaultPollInterval         = 5 * time.Second
	defaultScrapeTimeout        = 300 * time.Second
	defaultSubmitAttempts       = 3
	defaultCommentsPerPost      = 10
	defaultMaxRepliesPerComment = 5
	defaultResultsPerPage       = 20
	defaultRequestTimeout       = 60 * time.Second
	defaultBreakerFailures      = 5
	defaultBreakerCooldown      = 30 * time.Second
	defaultTopK                 = 3
	defaultRedisAddress         = "localhost:6379"
	defaultScheduleLimit        = 10
	maxScheduleLimit            = 20
)

// Config is the root configuration.
type Config struct {
	// Mode is "live" or "offline". Offline never touches the network.
	Mode       string                   `env:"COOPER_MODE" yaml:"mode"`
	Logging    logger.Config            `yaml:"logging"`
	Server     infraconfig.ServerConfig `yaml:"server"`
	Scrape     ScrapeConfig             `yaml:"scrape"`
	LLM        LLMConfig                `yaml:"llm"`
	Retrieval  RetrievalConfig          `yaml:"retrieval"`
	Guidelines GuidelinesConfig         `yaml:"guidelines"`
	Events     EventsConfig             `yaml:"events"`
	Schedule   []ScheduleEntry          `yaml:"schedule"`
}

// ScrapeConfig configures the job-execution backend and the job input.
type ScrapeConfig struct {
	Backend      string        `env:"SCRAPE_BACKEND"     yaml:"backend"`
	Apify        ApifyConfig   `yaml:"apify"`
	WebhookURL   string        `env:"SCRAPE_WEBHOOK_URL" yaml:"webhook_url"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `env:"SCRAPE_TIMEOUT"     yaml:"timeout"`
	// SubmitAttempts includes the first attempt.
	SubmitAttempts int `yaml:"submit_attempts"`
	// FixturePath is a JSON dataset served in offline mode; empty uses
	// generated records.
	FixturePath string `env:"SCRAPE_FIXTURE_PATH" yaml:"fixture_path"`

	CommentsPerPost      int   `yaml:"comments_per_post"`
	ExcludePinnedPosts   *bool `yaml:"exclude_pinned_posts"`
	MaxRepliesPerComment int   `yaml:"max_replies_per_comment"`
	ResultsPerPage       int   `yaml:"results_per_page"`
}

// ApifyConfig addresses an Apify actor task.
type ApifyConfig struct {
	BaseURL string `env:"APIFY_BASE_URL"  yaml:"base_url"`
	Token   string `env:"APIFY_API_TOKEN" yaml:"token"`
	TaskID  string `env:"APIFY_TASK_ID"   yaml:"task_id"`
}

// LLMConfig configures model providers.
type LLMConfig struct {
	// Provider generates insights and hooks: "openai" or "anthropic".
	// Transcription and embeddings always use OpenAI.
	Provider        string `env:"LLM_PROVIDER"      yaml:"provider"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"    yaml:"openai_api_key"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL"   yaml:"openai_base_url"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`
	ClassifyModel   string `yaml:"classify_model"`
	InsightModel    string `yaml:"insight_model"`
	EmbeddingModel  string `yaml:"embedding_model"`

	RequestTimeout  time.Duration `yaml:"request_timeout"`
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// RetrievalConfig configures the Elasticsearch guideline index.
type RetrievalConfig struct {
	Enabled       bool                 `env:"RETRIEVAL_ENABLED" yaml:"enabled"`
	Elasticsearch elasticsearch.Config `yaml:"elasticsearch"`
	Index         string               `env:"RETRIEVAL_INDEX"   yaml:"index"`
	TopK          int                  `yaml:"top_k"`
}

// GuidelinesConfig locates the brand guideline text.
type GuidelinesConfig struct {
	Path string `env:"GUIDELINES_PATH" yaml:"path"`
}

// EventsConfig configures run event publishing.
type EventsConfig struct {
	Enabled bool              `env:"EVENTS_ENABLED" yaml:"enabled"`
	Redis   infraredis.Config `yaml:"redis"`
	Stream  string            `env:"EVENTS_STREAM"  yaml:"stream"`
}

// ScheduleEntry runs an analysis on a cron spec.
type ScheduleEntry struct {
	Name  string `yaml:"name"`
	Topic string `yaml:"topic"`
	URL   string `yaml:"url"`
	Limit int    `yaml:"limit"`
	// Cron is a standard five-field spec or a descriptor such as "@hourly".
	Cron string `yaml:"cron"`
}

// Offline reports whether the configured mode is offline.
func (c *Config) Offline() bool { return c.Mode == ModeOffline }

// Load reads path, applies defaults and validates.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults(path, SetDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills unset fields.
func SetDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModeLive
	}
	cfg.Logging.SetDefaults()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	cfg.Server.SetDefaults()

	setScrapeDefaults(&cfg.Scrape)
	setLLMDefaults(&cfg.LLM)

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = defaultTopK
	}
	cfg.Retrieval.Elasticsearch.SetDefaults()

	if cfg.Events.Redis.Address == "" {
		cfg.Events.Redis.Address = defaultRedisAddress
	}

	for i := range cfg.Schedule {
		entry := &cfg.Schedule[i]
		if entry.Limit == 0 {
			entry.Limit = defaultScheduleLimit
		}
		if entry.Name == "" {
			entry.Name = fmt.Sprintf("%s-%d", entry.Topic, i+1)
		}
	}
}

func setScrapeDefaults(s *ScrapeConfig) {
	if s.Backend == "" {
		s.Backend = BackendAuto
	}
	if s.PollInterval == 0 {
		s.PollInterval = defaultPollInterval
	}
	if s.Timeout == 0 {
		s.Timeout = defaultScrapeTimeout
	}
	if s.SubmitAttempts == 0 {
		s.SubmitAttempts = defaultSubmitAttempts
	}
	if s.CommentsPerPost == 0 {
		s.CommentsPerPost = defaultCommentsPerPost
	}
	if s.ExcludePinnedPosts == nil {
		exclude := true
		s.ExcludePinnedPosts = &exclude
	}
	if s.MaxRepliesPerComment == 0 {
		s.MaxRepliesPerComment = defaultMaxRepliesPerComment
	}
	if s.ResultsPerPage == 0 {
		s.ResultsPerPage = defaultResultsPerPage
	}
}

func setLLMDefaults(l *LLMConfig) {
	if l.Provider == "" {
		l.Provider = llm.ProviderOpenAI
	}
	if l.ClassifyModel == "" {
		l.ClassifyModel = "gpt-3.5-turbo"
	}
	if l.InsightModel == "" {
		l.InsightModel = "gpt-4"
	}
	if l.RequestTimeout == 0 {
		l.RequestTimeout = defaultRequestTimeout
	}
	if l.BreakerFailures == 0 {
		l.BreakerFailures = defaultBreakerFailures
	}
	if l.BreakerCooldown == 0 {
		l.BreakerCooldown = defaultBreakerCooldown
	}
}

// Validate checks values that defaults cannot repair. A scrape backend named
// explicitly in live mode must have its credentials; other live components
// without credentials are built offline.
func (c *Config) Validate() error {
	var errs []error

	switch c.Mode {
	case ModeLive, ModeOffline:
	default:
		errs = append(errs, &infraconfig.ValidationError{Field: "mode", Message: "must be one of: live, offline"})
	}

	errs = append(errs,
		infraconfig.ValidateLogLevel(c.Logging.Level),
		infraconfig.ValidateLogFormat(c.Logging.Format),
		infraconfig.ValidatePort("server.port", c.Server.Port),
	)

	live := c.Mode == ModeLive
	switch c.Scrape.Backend {
	case BackendAuto:
	case BackendApify:
		if live {
			errs = append(errs,
				infraconfig.ValidateRequired("scrape.apify.token", c.Scrape.Apify.Token),
				infraconfig.ValidateRequired("scrape.apify.task_id", c.Scrape.Apify.TaskID),
			)
		}
		if c.Scrape.Apify.BaseURL != "" {
			errs = append(errs, infraconfig.ValidateURL("scrape.apify.base_url", c.Scrape.Apify.BaseURL))
		}
	case BackendWebhook:
		if live || c.Scrape.WebhookURL != "" {
			errs = append(errs, infraconfig.ValidateURL("scrape.webhook_url", c.Scrape.WebhookURL))
		}
	default:
		errs = append(errs, &infraconfig.ValidationError{Field: "scrape.backend", Message: "must be one of: auto, apify, webhook"})
	}
	if c.Scrape.PollInterval <= 0 || c.Scrape.Timeout <= 0 {
		errs = append(errs, &infraconfig.ValidationError{Field: "scrape.timeout", Message: "poll interval and timeout must be positive"})
	}

	switch c.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderAnthropic:
	default:
		errs = append(errs, &infraconfig.ValidationError{Field: "llm.provider", Message: "must be one of: openai, anthropic"})
	}

	if c.Retrieval.Enabled {
		errs = append(errs, infraconfig.ValidateURL("retrieval.elasticsearch.url", c.Retrieval.Elasticsearch.URL))
	}
	if c.Events.Enabled {
		errs = append(errs, infraconfig.ValidateRequired("events.redis.address", c.Events.Redis.Address))
	}

	seen := make(map[string]bool, len(c.Schedule))
	for i, entry := range c.Schedule {
		field := fmt.Sprintf("schedule[%d]", i)
		if entry.Topic == "" && entry.URL == "" {
			errs = append(errs, &infraconfig.ValidationError{Field: field, Message: "needs a topic or url"})
		}
		if entry.Cron == "" {
			errs = append(errs, &infraconfig.ValidationError{Field: field + ".cron", Message: "is required"})
		}
		if entry.Limit < 1 || entry.Limit > maxScheduleLimit {
			errs = append(errs, &infraconfig.ValidationError{Field: field + ".limit", Message: "must be between 1 and 20"})
		}
		if seen[entry.Name] {
			errs = append(errs, &infraconfig.ValidationError{Field: field + ".name", Message: "must be unique"})
		}
		seen[entry.Name] = true
	}

	return errors.Join(errs...)
}
