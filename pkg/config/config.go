package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"commentscraper/pkg/models"
)

// Config holds all configuration options for the comment scraper
type Config struct {
	// Per-platform rate limiting
	RateLimits RateLimitsConfig `yaml:"rate_limits" json:"rate_limits"`

	// Scraper behavior (timeouts, retries, pagination)
	Scraper ScraperConfig `yaml:"scraper" json:"scraper"`

	// Orchestrator behavior (concurrency, probing)
	Orchestrator OrchestratorConfig `yaml:"orchestrator" json:"orchestrator"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PlatformLimits configures one platform's request budget. A zero value
// leaves the platform's endpoints unconstrained; DailyCap of zero means the
// platform has no calendar-day ceiling.
type PlatformLimits struct {
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window"`
	Window            time.Duration `yaml:"window" json:"window"`
	DailyCap          int           `yaml:"daily_cap" json:"daily_cap"`
}

// Configured reports whether the platform has a usable window rule.
func (p PlatformLimits) Configured() bool {
	return p.RequestsPerWindow > 0 && p.Window > 0
}

// RateLimitsConfig holds the per-platform budgets.
type RateLimitsConfig struct {
	YouTube   PlatformLimits `yaml:"youtube" json:"youtube"`
	Instagram PlatformLimits `yaml:"instagram" json:"instagram"`
	TikTok    PlatformLimits `yaml:"tiktok" json:"tiktok"`
	Facebook  PlatformLimits `yaml:"facebook" json:"facebook"`
}

// ForPlatform returns the limits configured for a platform.
func (r RateLimitsConfig) ForPlatform(p models.Platform) PlatformLimits {
	switch p {
	case models.PlatformYouTube:
		return r.YouTube
	case models.PlatformInstagram:
		return r.Instagram
	case models.PlatformTikTok:
		return r.TikTok
	case models.PlatformFacebook:
		return r.Facebook
	default:
		return PlatformLimits{}
	}
}

// ScraperConfig holds scraper-level behavior shared by all platforms.
type ScraperConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	PageSize       int           `yaml:"page_size" json:"page_size"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" json:"retry_base_delay"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay" json:"retry_max_delay"`
	RequestSpacing time.Duration `yaml:"request_spacing" json:"request_spacing"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
}

// OrchestratorConfig holds orchestration behavior.
type OrchestratorConfig struct {
	MaxConcurrentScrapes int64         `yaml:"max_concurrent_scrapes" json:"max_concurrent_scrapes"`
	ProbeTimeout         time.Duration `yaml:"probe_timeout" json:"probe_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RateLimits: RateLimitsConfig{
			// YouTube Data API: generous per-minute pacing, 10k units/day.
			YouTube: PlatformLimits{
				RequestsPerWindow: 100,
				Window:            time.Minute,
				DailyCap:          10000,
			},
			// Graph API allows roughly 200 calls per rolling hour.
			Instagram: PlatformLimits{
				RequestsPerWindow: 200,
				Window:            time.Hour,
			},
			// Research API: modest burst budget plus a hard daily ceiling.
			TikTok: PlatformLimits{
				RequestsPerWindow: 60,
				Window:            time.Minute,
				DailyCap:          1000,
			},
			Facebook: PlatformLimits{
				RequestsPerWindow: 200,
				Window:            time.Hour,
			},
		},
		Scraper: ScraperConfig{
			RequestTimeout: 30 * time.Second,
			PageSize:       50,
			MaxRetries:     3,
			RetryBaseDelay: 1 * time.Second,
			RetryMaxDelay:  30 * time.Second,
			RequestSpacing: 500 * time.Millisecond,
			UserAgent:      "commentscraper/1.0",
		},
		Orchestrator: OrchestratorConfig{
			MaxConcurrentScrapes: 3,
			ProbeTimeout:         10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if level := os.Getenv("COMMENTSCRAPER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("COMMENTSCRAPER_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}

	if pageSize := os.Getenv("COMMENTSCRAPER_PAGE_SIZE"); pageSize != "" {
		var val int
		fmt.Sscanf(pageSize, "%d", &val)
		if val > 0 {
			c.Scraper.PageSize = val
		}
	}
	if timeout := os.Getenv("COMMENTSCRAPER_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			c.Scraper.RequestTimeout = d
		}
	}
	if concurrent := os.Getenv("COMMENTSCRAPER_MAX_CONCURRENT"); concurrent != "" {
		var val int64
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Orchestrator.MaxConcurrentScrapes = val
		}
	}

	// Daily caps are the limits operators most often tune per deployment.
	if cap := os.Getenv("COMMENTSCRAPER_YOUTUBE_DAILY_CAP"); cap != "" {
		var val int
		fmt.Sscanf(cap, "%d", &val)
		if val > 0 {
			c.RateLimits.YouTube.DailyCap = val
		}
	}
	if cap := os.Getenv("COMMENTSCRAPER_TIKTOK_DAILY_CAP"); cap != "" {
		var val int
		fmt.Sscanf(cap, "%d", &val)
		if val > 0 {
			c.RateLimits.TikTok.DailyCap = val
		}
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".commentscraper.yaml",
		".commentscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "commentscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "commentscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".commentscraper.yaml"),
		filepath.Join(os.Getenv("HOME"), ".commentscraper.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	for _, p := range models.AllPlatforms() {
		limits := c.RateLimits.ForPlatform(p)
		if limits.RequestsPerWindow < 0 {
			errs = append(errs, fmt.Errorf("%s: requests per window cannot be negative", p))
		}
		if limits.Window < 0 {
			errs = append(errs, fmt.Errorf("%s: window cannot be negative", p))
		}
		if limits.DailyCap < 0 {
			errs = append(errs, fmt.Errorf("%s: daily cap cannot be negative", p))
		}
		// A half-configured rule is almost always a typo in the YAML.
		if (limits.RequestsPerWindow > 0) != (limits.Window > 0) {
			errs = append(errs, fmt.Errorf("%s: requests per window and window must be set together", p))
		}
	}

	if c.Scraper.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Scraper.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Scraper.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Scraper.RetryBaseDelay <= 0 {
		errs = append(errs, errors.New("retry base delay must be positive"))
	}
	if c.Scraper.RequestSpacing < 0 {
		errs = append(errs, errors.New("request spacing cannot be negative"))
	}

	if c.Orchestrator.MaxConcurrentScrapes <= 0 {
		errs = append(errs, errors.New("max concurrent scrapes must be positive"))
	}
	if c.Orchestrator.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("probe timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, errors.New("invalid log format"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat, ok := flags["log-format"].(string); ok && logFormat != "" {
		c.Logging.Format = logFormat
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Scraper.PageSize = pageSize
	}
	if concurrent, ok := flags["concurrent"].(int64); ok && concurrent > 0 {
		c.Orchestrator.MaxConcurrentScrapes = concurrent
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".commentscraper.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
