// Package config provides configuration loading and management for adsentry.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Collector  CollectorConfig  `yaml:"collector"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Optimizer  OptimizerConfig  `yaml:"optimizer"`
	Insight    InsightConfig    `yaml:"insight"`
	Notifier   NotifierConfig   `yaml:"notifier"`
	Reports    ReportsConfig    `yaml:"reports"`
	Usage      UsageConfig      `yaml:"usage"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
}

// DatabaseConfig holds PostgreSQL connection settings. When URL is set it
// takes precedence over the discrete fields.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port      int  `yaml:"port"`
	DeepCheck bool `yaml:"deep_check"`
}

// CollectorConfig controls campaign data collection.
type CollectorConfig struct {
	// UseMock forces the mock generator even when credentials are present.
	UseMock bool `yaml:"use_mock"`

	// Platforms restricts collection to a subset of the supported platforms.
	// Empty means all.
	Platforms []string `yaml:"platforms"`

	// CampaignsPerPlatform is how many mock campaigns each platform yields.
	CampaignsPerPlatform int `yaml:"campaigns_per_platform"`

	// Lookback is the collection time range, e.g. "24h".
	Lookback string `yaml:"lookback"`
}

// LookbackParsed returns the parsed lookback duration.
func (c *CollectorConfig) LookbackParsed() (time.Duration, error) {
	return time.ParseDuration(c.Lookback)
}

// ThresholdsConfig defines alerting thresholds.
type ThresholdsConfig struct {
	// BudgetUtilizationPercent triggers a budget alert above this value.
	BudgetUtilizationPercent float64 `yaml:"budget_utilization_percent"`

	// MinROAS triggers a performance alert below this value.
	MinROAS float64 `yaml:"min_roas"`

	// CTRDropPercent flags a CTR decline versus the historical average.
	CTRDropPercent float64 `yaml:"ctr_drop_percent"`

	// SpendSpikePercent flags spend above this percentage of the average.
	SpendSpikePercent float64 `yaml:"spend_spike_percent"`
}

// OptimizerConfig defines bid optimization parameters.
type OptimizerConfig struct {
	TargetROAS float64 `yaml:"target_roas"`

	// MaxBidChange caps a single adjustment, as a fraction (0.25 = 25%).
	MaxBidChange float64 `yaml:"max_bid_change"`

	// MinHistoryPoints is the minimum history length required before a
	// campaign is considered for adjustment.
	MinHistoryPoints int `yaml:"min_history_points"`
}

// InsightConfig holds language-model settings for insight generation.
type InsightConfig struct {
	// APIKey is the Gemini API key. Empty selects the template fallback.
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// NotifierConfig holds notification channel settings.
type NotifierConfig struct {
	Type       string `yaml:"type"`
	WebhookURL string `yaml:"webhook_url"`
	Retries    int    `yaml:"retries"`
	RetryDelay string `yaml:"retry_delay"`
}

// RetryDelayParsed returns the parsed retry delay duration.
func (n *NotifierConfig) RetryDelayParsed() (time.Duration, error) {
	return time.ParseDuration(n.RetryDelay)
}

// ReportsConfig controls report file output.
type ReportsConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// UsageConfig controls API usage tracking.
type UsageConfig struct {
	// RPMLimit is the request-per-minute budget for the language model.
	RPMLimit int `yaml:"rpm_limit"`

	// LogPath is where the JSON usage log is persisted.
	LogPath string `yaml:"log_path"`
}

// ScheduleConfig defines the optional periodic collection pipeline.
type ScheduleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`

	// Location is resolved from Timezone by Validate.
	Location *time.Location `yaml:"-"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// expandEnvVars expands ${VAR} and ${VAR:-default} patterns in the input string.
func expandEnvVars(input string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) > 2 {
			defaultVal = parts[2]
		}

		if val, exists := os.LookupEnv(varName); exists {
			return val
		}
		return defaultVal
	})
}

// applyDefaults sets default values for any unset configuration fields.
func applyDefaults(cfg *Config) {
	// Database defaults; DATABASE_URL wins when exported
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "127.0.0.1"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "adsentry"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "campaigns"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}

	// Collector defaults
	if len(cfg.Collector.Platforms) == 0 {
		cfg.Collector.Platforms = []string{"google_ads", "meta", "linkedin"}
	}
	if cfg.Collector.CampaignsPerPlatform == 0 {
		cfg.Collector.CampaignsPerPlatform = 3
	}
	if cfg.Collector.Lookback == "" {
		cfg.Collector.Lookback = "24h"
	}

	// Threshold defaults
	if cfg.Thresholds.BudgetUtilizationPercent == 0 {
		cfg.Thresholds.BudgetUtilizationPercent = 80
	}
	if cfg.Thresholds.MinROAS == 0 {
		cfg.Thresholds.MinROAS = 2.0
	}
	if cfg.Thresholds.CTRDropPercent == 0 {
		cfg.Thresholds.CTRDropPercent = 20
	}
	if cfg.Thresholds.SpendSpikePercent == 0 {
		cfg.Thresholds.SpendSpikePercent = 150
	}

	// Optimizer defaults
	if cfg.Optimizer.TargetROAS == 0 {
		cfg.Optimizer.TargetROAS = 3.0
	}
	if cfg.Optimizer.MaxBidChange == 0 {
		cfg.Optimizer.MaxBidChange = 0.25
	}
	if cfg.Optimizer.MinHistoryPoints == 0 {
		cfg.Optimizer.MinHistoryPoints = 7
	}

	// Insight defaults
	if cfg.Insight.APIKey == "" {
		cfg.Insight.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Insight.Model == "" {
		cfg.Insight.Model = "gemini-2.0-flash"
	}

	// Notifier defaults
	if cfg.Notifier.WebhookURL == "" {
		cfg.Notifier.WebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	}
	if cfg.Notifier.Type == "" {
		if cfg.Notifier.WebhookURL != "" {
			cfg.Notifier.Type = "slack"
		} else {
			cfg.Notifier.Type = "console"
		}
	}
	if cfg.Notifier.Retries == 0 {
		cfg.Notifier.Retries = 3
	}
	if cfg.Notifier.RetryDelay == "" {
		cfg.Notifier.RetryDelay = "1s"
	}

	// Report defaults
	if cfg.Reports.OutputDir == "" {
		cfg.Reports.OutputDir = "data/reports"
	}

	// Usage defaults (Gemini free tier is 15 RPM)
	if cfg.Usage.RPMLimit == 0 {
		cfg.Usage.RPMLimit = 15
	}
	if cfg.Usage.LogPath == "" {
		cfg.Usage.LogPath = "data/logs/api_usage.json"
	}

	// Schedule defaults (6-field cron with seconds)
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 */30 * * * *" // Every 30 minutes
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "UTC"
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.URL == "" && c.Database.Host == "" {
		errs = append(errs, "database.url or database.host is required")
	}

	validPlatforms := map[string]bool{"google_ads": true, "meta": true, "linkedin": true}
	for _, p := range c.Collector.Platforms {
		if !validPlatforms[p] {
			errs = append(errs, fmt.Sprintf("collector.platforms contains unknown platform %q", p))
		}
	}
	if c.Collector.CampaignsPerPlatform < 1 {
		errs = append(errs, "collector.campaigns_per_platform must be at least 1")
	}
	if _, err := c.Collector.LookbackParsed(); err != nil {
		errs = append(errs, fmt.Sprintf("collector.lookback is invalid: %v", err))
	}

	if c.Thresholds.MinROAS < 0 {
		errs = append(errs, "thresholds.min_roas must be non-negative")
	}
	if c.Optimizer.TargetROAS <= 0 {
		errs = append(errs, "optimizer.target_roas must be positive")
	}
	if c.Optimizer.MaxBidChange <= 0 || c.Optimizer.MaxBidChange > 1 {
		errs = append(errs, "optimizer.max_bid_change must be within (0, 1]")
	}
	if c.Optimizer.MinHistoryPoints < 1 {
		errs = append(errs, "optimizer.min_history_points must be at least 1")
	}

	validNotifierTypes := map[string]bool{"slack": true, "console": true}
	if !validNotifierTypes[c.Notifier.Type] {
		errs = append(errs, "notifier.type must be one of: slack, console")
	}
	if c.Notifier.Type == "slack" && c.Notifier.WebhookURL == "" {
		errs = append(errs, "notifier.webhook_url is required when type is 'slack'")
	}
	if _, err := c.Notifier.RetryDelayParsed(); err != nil {
		errs = append(errs, fmt.Sprintf("notifier.retry_delay is invalid: %v", err))
	}

	if c.Usage.RPMLimit < 1 {
		errs = append(errs, "usage.rpm_limit must be at least 1")
	}

	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("schedule.timezone is invalid: %v", err))
	} else {
		c.Schedule.Location = loc
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
