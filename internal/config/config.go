// Package config loads and validates catalog builder configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults for the knobs most builds never touch.
const (
	// DefaultBaseURL is the production root of the PRISM 800m time-series
	// listings.
	DefaultBaseURL = "https://data.prism.oregonstate.edu/time_series/us/an/800m"
	// DefaultOutputDir receives the catalog JSON files.
	DefaultOutputDir = "assets"
	// DefaultWorkers bounds concurrent year-directory fetches.
	DefaultWorkers = 8
	// DefaultUserAgent identifies the builder to the PRISM origin.
	DefaultUserAgent = "PRISM-CatalogGen/1.0 (climate research; oregonstate.edu data)"
)

// DefaultVariables lists every climate variable published under the PRISM
// 800m time-series tree.
var DefaultVariables = []string{
	"ppt", "solslope", "soltotal", "tdmean",
	"tmax", "tmean", "tmin", "vpdmax", "vpdmin",
}

// Config captures all builder configuration knobs loaded via Viper.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CatalogConfig governs what is crawled and where catalogs land.
type CatalogConfig struct {
	BaseURL       string   `mapstructure:"base_url"`
	OutputDir     string   `mapstructure:"output_dir"`
	Variables     []string `mapstructure:"variables"`
	Workers       int      `mapstructure:"workers"`
	UserAgent     string   `mapstructure:"user_agent"`
	ProgressEvery int      `mapstructure:"progress_every"`
}

// HTTPConfig configures fetch timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxRetries     int `mapstructure:"max_retries"`
	BackoffBaseMs  int `mapstructure:"backoff_base_ms"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from defaults, an optional config file, PRISM_*
// environment variables, and bound command-line flags. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRISM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return Config{}, err
		}
	}

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
	v.SetDefault("catalog.base_url", DefaultBaseURL)
	v.SetDefault("catalog.output_dir", DefaultOutputDir)
	v.SetDefault("catalog.variables", DefaultVariables)
	v.SetDefault("catalog.workers", DefaultWorkers)
	v.SetDefault("catalog.user_agent", DefaultUserAgent)
	v.SetDefault("catalog.progress_every", 50)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_base_ms", 1500)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.development", true)
}

// bindFlags maps the CLI flag spellings onto their config keys so that
// explicitly-set flags win over file and environment values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"catalog.base_url":   "base-url",
		"catalog.workers":    "workers",
		"catalog.output_dir": "output-dir",
		"metrics.addr":       "metrics-addr",
	}
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url must be set")
	}
	if c.Catalog.OutputDir == "" {
		return fmt.Errorf("catalog.output_dir must be set")
	}
	if len(c.Catalog.Variables) == 0 {
		return fmt.Errorf("catalog.variables must name at least one variable")
	}
	if c.Catalog.Workers <= 0 {
		return fmt.Errorf("catalog.workers must be > 0")
	}
	if c.Catalog.ProgressEvery <= 0 {
		return fmt.Errorf("catalog.progress_every must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries <= 0 {
		return fmt.Errorf("http.max_retries must be > 0")
	}
	if c.HTTP.BackoffBaseMs <= 0 {
		return fmt.Errorf("http.backoff_base_ms must be > 0")
	}
	return nil
}

// RequestTimeout converts the HTTP timeout config into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffBase converts the retry backoff base into a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.HTTP.BackoffBaseMs) * time.Millisecond
}
