// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SiteConfig identifies the origin being crawled.
type SiteConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// CrawlConfig governs the crawl loop: where output lands, how fast the
// loop walks backward and when it stops.
type CrawlConfig struct {
	OutputDir    string `mapstructure:"output_dir"`
	DelaySeconds int    `mapstructure:"delay_seconds"`
	MaxCount     int    `mapstructure:"max_count"`
	EndDate      string `mapstructure:"end_date"`
}

// HTTPConfig configures fetch timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxRetries     int `mapstructure:"max_retries"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig controls the optional observability listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load builds a Config from disk/environment. An empty path skips the
// config file and relies on defaults plus WODCRAWLER_* variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WODCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "https://www.crossfit.com")
	v.SetDefault("site.user_agent", "wodcrawler/1.0 (+https://github.com/wodarchive/wodcrawler)")
	v.SetDefault("crawl.output_dir", "wod-data")
	v.SetDefault("crawl.delay_seconds", 2)
	v.SetDefault("crawl.max_count", 0)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("logging.development", true)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9190")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url must be set")
	}
	if c.Crawl.OutputDir == "" {
		return fmt.Errorf("crawl.output_dir must be set")
	}
	if c.Crawl.DelaySeconds < 0 {
		return fmt.Errorf("crawl.delay_seconds must be >= 0")
	}
	if c.Crawl.MaxCount < 0 {
		return fmt.Errorf("crawl.max_count must be >= 0")
	}
	if c.Crawl.EndDate != "" && len(c.Crawl.EndDate) != 6 {
		return fmt.Errorf("crawl.end_date must be a YYMMDD code")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must be set when metrics are enabled")
	}
	return nil
}

// Delay converts the configured delay into a duration. It doubles as the
// initial retry backoff, so a polite crawl also backs off politely.
func (c Config) Delay() time.Duration {
	return time.Duration(c.Crawl.DelaySeconds) * time.Second
}

// Timeout converts the HTTP timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
