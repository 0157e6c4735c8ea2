package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // timezone names resolve in minimal containers too

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Feed     FeedConfig     `yaml:"feed" json:"feed" jsonschema:"description=Event feed configuration"`
	HTTP     HTTPConfig     `yaml:"http" json:"http" jsonschema:"description=Outbound HTTP configuration"`
	Announce AnnounceConfig `yaml:"announce" json:"announce" jsonschema:"description=Event announcement configuration"`
	Team     TeamConfig     `yaml:"team" json:"team" jsonschema:"description=Team ranking configuration"`
	Webhook  WebhookConfig  `yaml:"webhook" json:"webhook" jsonschema:"description=Webhook configuration"`
}

// FeedConfig defines the upstream event feed
type FeedConfig struct {
	URL      string `yaml:"url" json:"url" jsonschema:"default=https://ctftime.org/event/list/upcoming/rss/,description=Upcoming events RSS feed URL"`
	Timezone string `yaml:"timezone" json:"timezone" jsonschema:"default=UTC,description=Timezone of event dates in the feed"`
}

// HTTPConfig is shared by all outbound requests
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Timeout for each outbound request"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=User agent for feed and team page requests (browser-like by default)"`
}

// AnnounceConfig controls which events are posted and how
type AnnounceConfig struct {
	Lookahead     time.Duration `yaml:"lookahead" json:"lookahead" jsonschema:"default=168h,description=Post events starting within this window"`
	Header        bool          `yaml:"header" json:"header" jsonschema:"default=false,description=Add date range header to the message"`
	MaxEmbeds     int           `yaml:"max_embeds" json:"max_embeds" jsonschema:"default=0,minimum=0,description=Maximum number of event embeds (0 for unlimited)"`
	StandardColor bool          `yaml:"standard_color" json:"standard_color" jsonschema:"default=false,description=Use standard 24-bit RGB color packing"`
	ChainTeam     bool          `yaml:"chain_team" json:"chain_team" jsonschema:"default=false,description=Post team ranking after events"`
}

// TeamConfig defines the team ranking source
type TeamConfig struct {
	ID      string `yaml:"id" json:"id" jsonschema:"default=279481,description=CTFtime team id"`
	BaseURL string `yaml:"base_url" json:"base_url" jsonschema:"default=https://ctftime.org,description=Site hosting team profile pages"`
	Country string `yaml:"country" json:"country" jsonschema:"description=Country code of the country place link (any if empty)"`
}

// WebhookConfig defines the destination webhook
type WebhookConfig struct {
	URL          string        `yaml:"url" json:"url" jsonschema:"description=Webhook URL (command line argument takes precedence)"`
	Attempts     int           `yaml:"attempts" json:"attempts" jsonschema:"default=1,minimum=1,description=Total post attempts (1 disables retries)"`
	RetryDelay   time.Duration `yaml:"retry_delay" json:"retry_delay" jsonschema:"default=1s,description=Initial delay between post attempts"`
	BlockPrivate bool          `yaml:"block_private" json:"block_private" jsonschema:"default=false,description=Refuse webhooks on private or loopback addresses"`
}

// DefaultUserAgent is a desktop browser identity, CTFtime rejects obvious bots
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

// Default returns configuration with all defaults set
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Feed.URL == "" {
		cfg.Feed.URL = "https://ctftime.org/event/list/upcoming/rss/"
	}
	if cfg.Feed.Timezone == "" {
		cfg.Feed.Timezone = "UTC"
	}

	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 30 * time.Second
	}
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = DefaultUserAgent
	}

	if cfg.Announce.Lookahead == 0 {
		cfg.Announce.Lookahead = 7 * 24 * time.Hour
	}

	if cfg.Team.ID == "" {
		cfg.Team.ID = "279481"
	}
	if cfg.Team.BaseURL == "" {
		cfg.Team.BaseURL = "https://ctftime.org"
	}

	if cfg.Webhook.Attempts == 0 {
		cfg.Webhook.Attempts = 1
	}
	if cfg.Webhook.RetryDelay == 0 {
		cfg.Webhook.RetryDelay = time.Second
	}
}

// Validate checks configuration for correctness
func (c *Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if _, err := time.LoadLocation(c.Feed.Timezone); err != nil {
		return fmt.Errorf("feed.timezone %q is invalid: %w", c.Feed.Timezone, err)
	}
	if c.HTTP.Timeout < time.Second {
		return fmt.Errorf("http.timeout must be at least 1 second")
	}
	if c.Announce.Lookahead <= 0 {
		return fmt.Errorf("announce.lookahead must be positive")
	}
	if c.Announce.MaxEmbeds < 0 {
		return fmt.Errorf("announce.max_embeds must be non-negative")
	}
	if c.Webhook.Attempts < 1 {
		return fmt.Errorf("webhook.attempts must be at least 1")
	}
	if c.Webhook.RetryDelay < 0 {
		return fmt.Errorf("webhook.retry_delay must be non-negative")
	}
	return nil
}

// Location returns location of feed dates, UTC if timezone is invalid
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Feed.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
