// Package config loads crawler settings from command-line flags and
// DICTCRAWL_* environment variables.
package config

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Sternrassler/dict-crawler/internal/sites/handian"
	"github.com/Sternrassler/dict-crawler/internal/sites/vocabulary"
	"github.com/Sternrassler/dict-crawler/internal/sites/webster"
	"github.com/Sternrassler/dict-crawler/pkg/fetch"
	"github.com/Sternrassler/dict-crawler/pkg/harvest"
	"github.com/Sternrassler/dict-crawler/pkg/logging"
)

// EnvPrefix is prepended to every environment variable, e.g. DICTCRAWL_LOG_LEVEL.
const EnvPrefix = "DICTCRAWL"

// Sites lists the adapter names a config may select.
var Sites = []string{webster.Name, handian.Name, vocabulary.Name}

// Config holds the full crawler configuration.
type Config struct {
	Site        string        `mapstructure:"site"`
	Input       string        `mapstructure:"input"`
	Output      string        `mapstructure:"output"`
	ErrorLog    string        `mapstructure:"error_log"`
	Concurrency int           `mapstructure:"concurrency"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	BaseURL     string        `mapstructure:"base_url"`
	RedisURL    string        `mapstructure:"redis_url"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	Log         LogConfig     `mapstructure:"log"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"site":         "site",
	"input":        "input",
	"output":       "output",
	"error-log":    "error_log",
	"concurrency":  "concurrency",
	"max-attempts": "max_attempts",
	"backoff":      "backoff",
	"max-backoff":  "max_backoff",
	"timeout":      "timeout",
	"user-agent":   "user_agent",
	"base-url":     "base_url",
	"redis-url":    "redis_url",
	"metrics-addr": "metrics_addr",
	"log-level":    "log.level",
	"log-pretty":   "log.pretty",
}

// RegisterFlags adds every config flag to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	engine := harvest.DefaultConfig()
	retry := engine.Retry

	fs.String("site", webster.Name, "dictionary site ("+strings.Join(Sites, ", ")+")")
	fs.String("input", "voc.txt", "file with one entry per line")
	fs.String("output", "out.json", "result JSON file")
	fs.String("error-log", "error.txt", "append-only failure log")
	fs.Int("concurrency", engine.MaxConcurrency, "entries in flight per batch")
	fs.Int("max-attempts", retry.MaxAttempts, "attempts per entry")
	fs.Duration("backoff", retry.InitialBackoff, "initial retry backoff")
	fs.Duration("max-backoff", retry.MaxBackoff, "retry backoff cap")
	fs.Duration("timeout", fetch.DefaultConfig().Timeout, "per-request HTTP timeout")
	fs.String("user-agent", fetch.DefaultUserAgent, "HTTP User-Agent")
	fs.String("base-url", "", "override the site's base URL")
	fs.String("redis-url", "", "redis URL for the document cache (empty disables it)")
	fs.String("metrics-addr", "", "serve /metrics on this address (empty disables it)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.Bool("log-pretty", false, "human-readable console logs")
}

// Load builds a Config from fs and the environment. Flags set explicitly win
// over environment variables, which win over flag defaults.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, harvest.ConfigurationError("config: unmarshal: %v", err)
	}
	return &cfg, nil
}

// Validate reports the first unusable setting as a configuration error.
func (c *Config) Validate() error {
	switch {
	case !slices.Contains(Sites, c.Site):
		return harvest.ConfigurationError("unknown site %q (known: %s)", c.Site, strings.Join(Sites, ", "))
	case c.Concurrency < 1:
		return harvest.ConfigurationError("concurrency must be at least 1, got %d", c.Concurrency)
	case c.MaxAttempts < 1:
		return harvest.ConfigurationError("max_attempts must be at least 1, got %d", c.MaxAttempts)
	case c.Backoff < 0 || c.MaxBackoff < 0:
		return harvest.ConfigurationError("backoff durations must not be negative")
	case c.Output == "":
		return harvest.ConfigurationError("output path is empty")
	case c.ErrorLog == "":
		return harvest.ConfigurationError("error_log path is empty")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return harvest.ConfigurationError("log.level: %v", err)
	}
	return nil
}

// RetryPolicy returns the executor policy described by c.
func (c *Config) RetryPolicy() harvest.RetryPolicy {
	p := harvest.DefaultRetryPolicy()
	p.MaxAttempts = c.MaxAttempts
	p.InitialBackoff = c.Backoff
	p.MaxBackoff = c.MaxBackoff
	return p
}

// Logging returns the logger configuration described by c, writing to out.
func (c *Config) Logging(out io.Writer) logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{Level: level, Pretty: c.Log.Pretty, Output: out}
}

// Engine returns the scheduler configuration described by c.
func (c *Config) Engine() harvest.Config {
	return harvest.Config{
		MaxConcurrency: c.Concurrency,
		Retry:          c.RetryPolicy(),
	}
}
