// Package appcfg resolves SynAuth configuration: backend base URL, agent
// API key, polling defaults, and the optional local journal. Values
// resolve in precedence order explicit override → environment → config
// file → hardcoded default.
package appcfg

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvBaseURL overrides the backend endpoint.
	EnvBaseURL = "SYNAUTH_BASE_URL"
	// EnvAPIKey supplies the agent API key.
	EnvAPIKey = "SYNAUTH_API_KEY"

	defaultBaseURL = "https://synauth.fly.dev"
)

// resolveBaseURL runs once per process so every client constructor sees
// the same endpoint regardless of when it is built.
var resolveBaseURL = sync.OnceValue(func() string {
	if v := os.Getenv(EnvBaseURL); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultBaseURL
})

// BaseURL returns the process-wide default backend endpoint.
func BaseURL() string {
	return resolveBaseURL()
}

// Config is the top-level SynAuth CLI/SDK configuration.
type Config struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	WaitTimeoutS  int           `yaml:"wait_timeout_s"`
	PollIntervalS float64       `yaml:"poll_interval_s"`
	LogLevel      string        `yaml:"log_level"`
	Journal       JournalConfig `yaml:"journal"`
}

// WaitTimeout is the configured approval wait window.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutS) * time.Second
}

// PollInterval is the configured delay between status polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalS * float64(time.Second))
}

// JournalConfig controls the local action journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a config with sensible defaults.
func Defaults() *Config {
	return &Config{
		BaseURL:       defaultBaseURL,
		WaitTimeoutS:  300,
		PollIntervalS: 2,
		LogLevel:      "info",
		Journal: JournalConfig{
			Path: "synauth.db",
		},
	}
}

// Load reads and parses a SynAuth config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply zero-value defaults after unmarshal
	if cfg.WaitTimeoutS == 0 {
		cfg.WaitTimeoutS = 300
	}
	if cfg.PollIntervalS == 0 {
		cfg.PollIntervalS = 2
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "synauth.db"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return cfg, nil
}

// Overrides carries explicit values that beat both environment and file.
type Overrides struct {
	BaseURL string
	APIKey  string
}

// Resolve builds the effective configuration. A missing config file is not
// an error — defaults apply and environment variables still win over them.
func Resolve(path string, ov Overrides) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = Defaults()
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
	if ov.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(ov.BaseURL, "/")
	}
	if ov.APIKey != "" {
		cfg.APIKey = ov.APIKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the config is consistent.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	if c.PollIntervalS <= 0 {
		return fmt.Errorf("poll_interval_s must be positive")
	}
	if c.WaitTimeoutS <= 0 {
		return fmt.Errorf("wait_timeout_s must be positive")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	return nil
}
