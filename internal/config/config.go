package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for acadjobs.
type Config struct {
	PollingInterval time.Duration
	Storage         StorageConfig
	Sources         []SourceConfig
	Filters         FilterConfig
	Enrichment      EnrichmentConfig
	RateLimit       RateLimitConfig
	AI              AIConfig
	Notification    NotificationConfig
	Server          ServerConfig
}

// StorageConfig selects the posting store.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	Path   string `yaml:"path"`   // sqlite database file
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// Source kinds.
const (
	KindHTML       = "html"
	KindGreenhouse = "greenhouse"
	KindLever      = "lever"
	KindWorkday    = "workday"
	KindSeed       = "seed"
)

// SourceConfig describes one place postings are ingested from.
type SourceConfig struct {
	Name         string         `yaml:"name"`
	Organization string         `yaml:"organization"` // defaults to Name
	Kind         string         `yaml:"kind"`
	URL          string         `yaml:"url"`
	Location     string         `yaml:"location"` // used when a listing carries none
	BoardToken   string         `yaml:"board_token"`
	SeedFile     string         `yaml:"seed_file"`
	Render       bool           `yaml:"render"`      // load the page in headless Chrome
	RenderWait   string         `yaml:"render_wait"` // CSS selector to wait for when rendering
	Enabled      bool           `yaml:"enabled"`
	Selectors    SelectorConfig `yaml:"selectors"`
}

// SelectorConfig holds CSS selectors for html sources.
type SelectorConfig struct {
	Item        string `yaml:"item"`
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	Location    string `yaml:"location"`
	Deadline    string `yaml:"deadline"`
}

// FilterConfig holds keyword and location filter settings.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
	ExcludeLocations     []string `yaml:"exclude_locations"`
}

// EnrichmentConfig controls the batch enricher.
type EnrichmentConfig struct {
	Interval  time.Duration
	BatchSize int
	Pace      time.Duration // gap between consecutive LLM-bound records
	LockFile  string
}

// RateLimitConfig controls how hard source hosts are hit.
type RateLimitConfig struct {
	MinDelay          time.Duration // gap between sources on the same host
	RequestsPerSecond float64       // per-host HTTP request rate
	Burst             int
}

// AIConfig controls the optional LLM enrichment layer.
type AIConfig struct {
	Enabled          bool
	BaseURL          string
	Model            string
	APIKey           string // expanded from env var by Load
	KeyringAccount   string
	ClassifyTimeout  time.Duration
	SummarizeTimeout time.Duration
}

// PlaceholderAPIKey is the value shipped in the example config.
const PlaceholderAPIKey = "your_openrouter_key_here"

// HasKey reports whether APIKey looks like a real credential.
func (a AIConfig) HasKey() bool {
	k := strings.TrimSpace(a.APIKey)
	return k != "" && k != PlaceholderAPIKey
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// ServerConfig controls the query API.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	DefaultLocation string `yaml:"default_location"`
	DefaultLimit    int    `yaml:"default_limit"`
}

const (
	defaultAIBaseURL     = "https://openrouter.ai/api/v1"
	defaultAIModel       = "anthropic/claude-3-haiku"
	defaultKeyringAcct   = "llm-api-key"
	defaultLocation      = "London"
	defaultLimit         = 50
	defaultSQLitePath    = "acadjobs.db"
	defaultLockFile      = "acadjobs.lock"
	defaultServerAddress = ":8001"
)

// MaxLimit caps the page size of the query API.
const MaxLimit = 200

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	PollingInterval string             `yaml:"polling_interval"`
	Storage         StorageConfig      `yaml:"storage"`
	Sources         []SourceConfig     `yaml:"sources"`
	Filters         FilterConfig       `yaml:"filters"`
	Enrichment      rawEnrichment      `yaml:"enrichment"`
	RateLimit       rawRateLimitConfig `yaml:"rate_limit"`
	AI              rawAIConfig        `yaml:"ai"`
	Notification    NotificationConfig `yaml:"notification"`
	Server          ServerConfig       `yaml:"server"`
}

type rawEnrichment struct {
	Interval  string `yaml:"interval"`
	BatchSize int    `yaml:"batch_size"`
	Pace      string `yaml:"pace"`
	LockFile  string `yaml:"lock_file"`
}

type rawRateLimitConfig struct {
	MinDelay          string  `yaml:"min_delay"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type rawAIConfig struct {
	Enabled          *bool  `yaml:"enabled"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	APIKey           string `yaml:"api_key"`
	KeyringAccount   string `yaml:"keyring_account"`
	ClassifyTimeout  string `yaml:"classify_timeout"`
	SummarizeTimeout string `yaml:"summarize_timeout"`
}

// Load reads and parses the YAML config file at path, applies defaults,
// validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval, err := parseDuration("polling_interval", raw.PollingInterval, 6*time.Hour)
	if err != nil {
		return nil, err
	}
	enrichInterval, err := parseDuration("enrichment.interval", raw.Enrichment.Interval, 10*time.Minute)
	if err != nil {
		return nil, err
	}
	pace, err := parseDuration("enrichment.pace", raw.Enrichment.Pace, time.Second)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, 2*time.Second)
	if err != nil {
		return nil, err
	}
	classifyTimeout, err := parseDuration("ai.classify_timeout", raw.AI.ClassifyTimeout, 20*time.Second)
	if err != nil {
		return nil, err
	}
	summarizeTimeout, err := parseDuration("ai.summarize_timeout", raw.AI.SummarizeTimeout, 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		PollingInterval: interval,
		Storage:         raw.Storage,
		Sources:         raw.Sources,
		Filters:         raw.Filters,
		Enrichment: EnrichmentConfig{
			Interval:  enrichInterval,
			BatchSize: raw.Enrichment.BatchSize,
			Pace:      pace,
			LockFile:  raw.Enrichment.LockFile,
		},
		RateLimit: RateLimitConfig{
			MinDelay:          minDelay,
			RequestsPerSecond: raw.RateLimit.RequestsPerSecond,
			Burst:             raw.RateLimit.Burst,
		},
		AI: AIConfig{
			Enabled:          raw.AI.Enabled == nil || *raw.AI.Enabled,
			BaseURL:          raw.AI.BaseURL,
			Model:            raw.AI.Model,
			APIKey:           raw.AI.APIKey,
			KeyringAccount:   raw.AI.KeyringAccount,
			ClassifyTimeout:  classifyTimeout,
			SummarizeTimeout: summarizeTimeout,
		},
		Notification: raw.Notification,
		Server:       raw.Server,
	}
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Driver == "sqlite" && cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultSQLitePath
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Organization == "" {
			cfg.Sources[i].Organization = cfg.Sources[i].Name
		}
	}
	if cfg.Enrichment.BatchSize <= 0 {
		cfg.Enrichment.BatchSize = 10
	}
	if cfg.Enrichment.LockFile == "" {
		cfg.Enrichment.LockFile = defaultLockFile
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		cfg.RateLimit.RequestsPerSecond = 1
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 1
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = defaultAIBaseURL
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultAIModel
	}
	if cfg.AI.KeyringAccount == "" {
		cfg.AI.KeyringAccount = defaultKeyringAcct
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddress
	}
	if cfg.Server.DefaultLocation == "" {
		cfg.Server.DefaultLocation = defaultLocation
	}
	if cfg.Server.DefaultLimit <= 0 {
		cfg.Server.DefaultLimit = defaultLimit
	}
}

// EnabledSources returns the sources with enabled: true, in config order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func validate(cfg *Config) error {
	if cfg.PollingInterval <= 0 {
		return fmt.Errorf("polling_interval must be positive, got %v", cfg.PollingInterval)
	}
	if cfg.Enrichment.Interval <= 0 {
		return fmt.Errorf("enrichment.interval must be positive, got %v", cfg.Enrichment.Interval)
	}
	if cfg.Enrichment.Pace < 0 || cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("enrichment.pace and rate_limit.min_delay must not be negative")
	}

	switch cfg.Storage.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.driver is \"postgres\"")
		}
	default:
		return fmt.Errorf("storage.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Storage.Driver)
	}

	names := make(map[string]bool)
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if names[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		names[s.Name] = true
		if err := validateSource(s); err != nil {
			return fmt.Errorf("source %q: %w", s.Name, err)
		}
	}

	if cfg.Notification.Type != "log" && cfg.Notification.Type != "slack" {
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}
	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	if cfg.Server.DefaultLimit > MaxLimit {
		return fmt.Errorf("server.default_limit must be at most %d, got %d", MaxLimit, cfg.Server.DefaultLimit)
	}

	return nil
}

func validateSource(s SourceConfig) error {
	switch s.Kind {
	case KindHTML:
		if err := requireURL(s.URL); err != nil {
			return err
		}
		if s.Selectors.Item == "" {
			return fmt.Errorf("selectors.item is required for html sources")
		}
	case KindGreenhouse, KindLever:
		if s.BoardToken == "" {
			return fmt.Errorf("board_token is required for %s sources", s.Kind)
		}
	case KindWorkday:
		if err := requireURL(s.URL); err != nil {
			return err
		}
	case KindSeed:
		if s.SeedFile == "" {
			return fmt.Errorf("seed_file is required for seed sources")
		}
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	return nil
}

func requireURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an absolute http(s) URL, got %q", raw)
	}
	return nil
}
