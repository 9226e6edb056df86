// Package config loads placescout settings from YAML with environment expansion.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/placescout/internal/domain"
)

// Cache drivers.
const (
	DriverFile   = "file"
	DriverValkey = "valkey"
)

// DefaultZipPrefixes are the Nevada ZIP3 areas searched when none are configured.
var DefaultZipPrefixes = []string{"890", "891", "893", "894", "895", "889"}

// Config holds the placescout configuration.
type Config struct {
	Search    SearchConfig    `yaml:"search"`
	Contracts ContractsConfig `yaml:"contracts"`
	Retry     RetryConfig     `yaml:"retry"`
	Cache     CacheConfig     `yaml:"cache"`
	UsageLog  UsageLogConfig  `yaml:"usage_log"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Run       RunConfig       `yaml:"run"`
}

// SearchConfig holds web search provider settings.
type SearchConfig struct {
	BaseURL    string  `yaml:"base_url"`
	APIKey     string  `yaml:"api_key"`
	RPS        float64 `yaml:"rps"`
	MaxResults int     `yaml:"max_results"` // per query
}

// ContractsConfig holds procurement search settings.
type ContractsConfig struct {
	BaseURL     string   `yaml:"base_url"`
	State       string   `yaml:"state"`
	ZipPrefixes []string `yaml:"zip_prefixes"`
	RadiusMiles float64  `yaml:"radius_miles"`
	MaxResults  int      `yaml:"max_results"`
	PageSize    int      `yaml:"page_size"`
	RPS         float64  `yaml:"rps"`
	WindowYears int      `yaml:"window_years"`
	StartDate   string   `yaml:"start_date"` // YYYY-MM-DD, empty = rolling window
	EndDate     string   `yaml:"end_date"`
}

// RetryConfig holds the fetch retry policy.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	BaseDelay      time.Duration `yaml:"base_delay"`
	MaxDelay       time.Duration `yaml:"max_delay"`
	Multiplier     float64       `yaml:"multiplier"`
	Jitter         *float64      `yaml:"jitter"` // nil = default; 0 = deterministic backoff
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
}

// JitterFraction returns the configured jitter, or zero when unset.
func (r RetryConfig) JitterFraction() float64 {
	if r.Jitter == nil {
		return 0
	}
	return *r.Jitter
}

// CacheConfig selects and configures the result cache backend.
type CacheConfig struct {
	Driver           string        `yaml:"driver"` // file, valkey (default: file)
	Dir              string        `yaml:"dir"`
	Addrs            []string      `yaml:"addrs"`
	Password         string        `yaml:"password"`
	KeyPrefix        string        `yaml:"key_prefix"`
	TTL              time.Duration `yaml:"ttl"` // valkey only, 0 = no expiry
	ReadinessTimeout int           `yaml:"readiness_timeout_sec"`
}

// UsageLogConfig holds the outbound call log location.
type UsageLogConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// MetricsConfig holds the Prometheus endpoint address. Empty disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// RunConfig holds per-run knobs, usually overridden by flags.
type RunConfig struct {
	KMLFile    string `yaml:"kml_file"`
	MaxPlaces  int    `yaml:"max_places"` // 0 = all
	Workers    int    `yaml:"workers"`
	BustCache  bool   `yaml:"bust_cache"`
	SkipSearch bool   `yaml:"skip_search"`
	Debug      bool   `yaml:"debug"`
}

// Load reads configuration. When path is empty the file is looked up as
// config/<env>.yaml and may be absent, in which case defaults apply. An
// explicit path must exist. Load does not validate: callers apply flag
// overrides first and then call Validate.
func Load(path, env string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join("config", env+".yaml")
	}

	var cfg Config
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		data = expandEnvVars(data)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, domain.NewConfigError("parse config %s: %v", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults only
	default:
		return Config{}, domain.NewConfigError("read config %s: %v", path, err)
	}

	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("BRAVE_API_KEY")
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = "https://api.search.brave.com/res/v1"
	}
	if c.Search.RPS <= 0 {
		c.Search.RPS = 1
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 5
	}

	if c.Contracts.BaseURL == "" {
		c.Contracts.BaseURL = "https://api.usaspending.gov/api/v2"
	}
	if c.Contracts.State == "" {
		c.Contracts.State = "NV"
	}
	if c.Contracts.ZipPrefixes == nil {
		c.Contracts.ZipPrefixes = append([]string(nil), DefaultZipPrefixes...)
	}
	if c.Contracts.RadiusMiles <= 0 {
		c.Contracts.RadiusMiles = 50
	}
	if c.Contracts.MaxResults <= 0 {
		c.Contracts.MaxResults = 100
	}
	if c.Contracts.PageSize <= 0 || c.Contracts.PageSize > 100 {
		c.Contracts.PageSize = 100
	}
	if c.Contracts.RPS <= 0 {
		c.Contracts.RPS = 2
	}
	if c.Contracts.WindowYears <= 0 {
		c.Contracts.WindowYears = 10
	}

	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 4
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = time.Second
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = 30 * time.Second
	}
	if c.Retry.Multiplier < 1 {
		c.Retry.Multiplier = 2
	}
	if c.Retry.Jitter == nil {
		jitter := 0.5
		c.Retry.Jitter = &jitter
	}
	if c.Retry.AttemptTimeout <= 0 {
		c.Retry.AttemptTimeout = 20 * time.Second
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = DriverFile
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = "."
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "placescout:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}

	if c.UsageLog.Path == "" {
		c.UsageLog.Path = "usage_log.jsonl"
	}

	if c.Run.KMLFile == "" {
		c.Run.KMLFile = "Imminent_Domain.kml"
	}
	if c.Run.Workers <= 0 {
		c.Run.Workers = 1
	}
}

// Validate checks the configuration for correctness. All errors wrap
// domain.ErrConfig.
func (c *Config) Validate() error {
	if !c.Run.SkipSearch && c.Search.APIKey == "" {
		return domain.NewConfigError("search.api_key is required unless web search is skipped (set BRAVE_API_KEY)")
	}
	if c.Contracts.RadiusMiles <= 0 {
		return domain.NewConfigError("contracts.radius_miles must be positive, got %v", c.Contracts.RadiusMiles)
	}
	if j := c.Retry.JitterFraction(); j < 0 || j > 1 {
		return domain.NewConfigError("retry.jitter must be within [0, 1], got %v", j)
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return domain.NewConfigError("retry.max_delay (%s) is below retry.base_delay (%s)", c.Retry.MaxDelay, c.Retry.BaseDelay)
	}
	if c.Run.MaxPlaces < 0 {
		return domain.NewConfigError("run.max_places must not be negative, got %d", c.Run.MaxPlaces)
	}

	switch c.Cache.Driver {
	case DriverFile:
	case DriverValkey:
		if len(c.Cache.Addrs) == 0 {
			return domain.NewConfigError("cache.addrs is required for the valkey driver")
		}
	default:
		return domain.NewConfigError("cache.driver must be %q or %q, got %q", DriverFile, DriverValkey, c.Cache.Driver)
	}

	for _, p := range c.Contracts.ZipPrefixes {
		if len(p) == 0 || len(p) > 5 || strings.Trim(p, "0123456789") != "" {
			return domain.NewConfigError("contracts.zip_prefixes entry %q is not a ZIP prefix", p)
		}
	}

	if _, _, err := c.Window(); err != nil {
		return err
	}
	return nil
}

// Window parses the optional explicit contract time window.
func (c *Config) Window() (start, end time.Time, err error) {
	parse := func(field, v string) (time.Time, error) {
		if v == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return time.Time{}, domain.NewConfigError("%s must be YYYY-MM-DD, got %q", field, v)
		}
		return t, nil
	}
	if start, err = parse("contracts.start_date", c.Contracts.StartDate); err != nil {
		return
	}
	if end, err = parse("contracts.end_date", c.Contracts.EndDate); err != nil {
		return
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		err = domain.NewConfigError("contracts.end_date %s is before start_date %s", c.Contracts.EndDate, c.Contracts.StartDate)
	}
	return
}

// CachePath returns the cache file for a query kind.
func (c *Config) CachePath(kind domain.QueryKind) string {
	return filepath.Join(c.Cache.Dir, kind.String()+"_cache.json")
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
