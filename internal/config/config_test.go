package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/placescout/internal/domain"
)

func validConfig() Config {
	cfg := Config{Search: SearchConfig{APIKey: "k"}}
	cfg.ApplyDefaults()
	return cfg
}

func ptr[T any](v T) *T { return &v }

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BRAVE_API_KEY", "from-env")

	cfg, err := Load("", "local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.APIKey != "from-env" {
		t.Errorf("APIKey = %q", cfg.Search.APIKey)
	}
	if cfg.Contracts.State != "NV" || cfg.Contracts.RadiusMiles != 50 {
		t.Errorf("contract defaults not applied: %+v", cfg.Contracts)
	}
	if cfg.Retry.MaxAttempts != 4 || cfg.Retry.BaseDelay != time.Second {
		t.Errorf("retry defaults not applied: %+v", cfg.Retry)
	}
	if cfg.Retry.JitterFraction() != 0.5 {
		t.Errorf("Jitter = %v, want default 0.5", cfg.Retry.JitterFraction())
	}
	if cfg.Cache.Driver != DriverFile {
		t.Errorf("Driver = %q", cfg.Cache.Driver)
	}
}

func TestLoad_ZeroJitterIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("retry:\n  jitter: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, "local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retry.Jitter == nil || *cfg.Retry.Jitter != 0 {
		t.Fatalf("Jitter = %v, want explicit 0", cfg.Retry.Jitter)
	}
}

func TestLoad_ExplicitMissingFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "local")
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoad_ExpandsEnvAndParsesDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	body := `
search:
  api_key: ${TEST_PLACESCOUT_KEY}
contracts:
  state: ${TEST_PLACESCOUT_STATE:-AZ}
  zip_prefixes: ["850"]
retry:
  base_delay: 250ms
  max_delay: 2s
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_PLACESCOUT_KEY", "secret")

	cfg, err := Load(path, "local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.APIKey != "secret" {
		t.Errorf("APIKey = %q", cfg.Search.APIKey)
	}
	if cfg.Contracts.State != "AZ" {
		t.Errorf("State = %q", cfg.Contracts.State)
	}
	if cfg.Retry.BaseDelay != 250*time.Millisecond || cfg.Retry.MaxDelay != 2*time.Second {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if len(cfg.Contracts.ZipPrefixes) != 1 {
		t.Errorf("ZipPrefixes = %v", cfg.Contracts.ZipPrefixes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("search: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, "local"); !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing key", mutate: func(c *Config) { c.Search.APIKey = "" }, wantErr: true},
		{name: "missing key but search skipped", mutate: func(c *Config) {
			c.Search.APIKey = ""
			c.Run.SkipSearch = true
		}},
		{name: "negative radius", mutate: func(c *Config) { c.Contracts.RadiusMiles = -1 }, wantErr: true},
		{name: "jitter above one", mutate: func(c *Config) { c.Retry.Jitter = ptr(1.5) }, wantErr: true},
		{name: "negative jitter", mutate: func(c *Config) { c.Retry.Jitter = ptr(-0.1) }, wantErr: true},
		{name: "zero jitter", mutate: func(c *Config) { c.Retry.Jitter = ptr(0.0) }},
		{name: "max below base", mutate: func(c *Config) { c.Retry.MaxDelay = time.Millisecond }, wantErr: true},
		{name: "negative max places", mutate: func(c *Config) { c.Run.MaxPlaces = -1 }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Cache.Driver = "sqlite" }, wantErr: true},
		{name: "valkey without addrs", mutate: func(c *Config) { c.Cache.Driver = DriverValkey }, wantErr: true},
		{name: "valkey with addrs", mutate: func(c *Config) {
			c.Cache.Driver = DriverValkey
			c.Cache.Addrs = []string{"localhost:6379"}
		}},
		{name: "bad zip prefix", mutate: func(c *Config) { c.Contracts.ZipPrefixes = []string{"89a"} }, wantErr: true},
		{name: "empty zip list", mutate: func(c *Config) { c.Contracts.ZipPrefixes = []string{} }},
		{name: "bad start date", mutate: func(c *Config) { c.Contracts.StartDate = "2020/01/01" }, wantErr: true},
		{name: "end before start", mutate: func(c *Config) {
			c.Contracts.StartDate = "2021-01-01"
			c.Contracts.EndDate = "2020-01-01"
		}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				if !errors.Is(err, domain.ErrConfig) {
					t.Fatalf("expected ErrConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Contracts.StartDate = "2015-03-01"

	start, end, err := cfg.Window()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2015 || !end.IsZero() {
		t.Errorf("window = %v..%v", start, end)
	}
}

func TestCachePath(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Dir = "/var/cache/ps"
	if got := cfg.CachePath(domain.KindContract); got != "/var/cache/ps/contract_cache.json" {
		t.Errorf("CachePath = %q", got)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PS_SET", "x")
	got := string(expandEnvVars([]byte("a=${PS_SET} b=${PS_UNSET:-def} c=${PS_UNSET}")))
	if got != "a=x b=def c=" {
		t.Errorf("expandEnvVars = %q", got)
	}
}
