// Package config loads the YAML configuration used by `quorumslot serve`.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Calendar sources.
const (
	SourceFiles  = "files"
	SourceGoogle = "google"
)

// MCP transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Defaults applied by Normalize.
const (
	DefaultCalendarsDir   = "calendars"
	DefaultAccount        = "default"
	DefaultReload         = "*/15 * * * *"
	DefaultHorizonDays    = 14
	DefaultSearchTimeout  = 30 * time.Second
	DefaultListen         = "127.0.0.1:8080"
	DefaultMetricsAddr    = ":9090"
	DefaultDurationMinute = 60
)

// SearchConfig tunes the quorum search engine.
type SearchConfig struct {
	// Timeout bounds one search, including loading Google calendars.
	Timeout time.Duration `yaml:"timeout"`

	// Parallelism is the number of goroutines querying calendars per
	// iteration. 1 keeps the search sequential.
	Parallelism int `yaml:"parallelism"`

	// MaxIterations aborts pathological searches. 0 means unbounded.
	MaxIterations int `yaml:"max_iterations"`

	// DefaultDurationMinutes is used when a tool call omits the duration.
	DefaultDurationMinutes int `yaml:"default_duration_minutes"`
}

// GoogleConfig selects the calendars read through the freebusy API.
type GoogleConfig struct {
	Account     string   `yaml:"account"`
	Calendars   []string `yaml:"calendars,omitempty"`
	HorizonDays int      `yaml:"horizon_days"`
}

// Config is the top-level server configuration.
type Config struct {
	// Source is where participant calendars come from: files or google.
	Source string `yaml:"source"`

	// CalendarsDir holds one calendar file per participant (files source).
	CalendarsDir string `yaml:"calendars_dir"`

	Google GoogleConfig `yaml:"google"`

	// Timezone is the IANA zone for timestamps without zone information.
	// Empty means the process local zone.
	Timezone string `yaml:"timezone"`

	// Reload is a standard five-field cron schedule for refreshing calendars.
	// "off" disables scheduled reloads.
	Reload string `yaml:"reload"`

	Search SearchConfig `yaml:"search"`

	// Transport is stdio or streamable-http.
	Transport string `yaml:"transport"`

	// Listen is the HTTP address for the streamable-http transport.
	Listen string `yaml:"listen"`

	// MetricsAddr is the address of the dedicated metrics server. Empty
	// disables it.
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in zero values with defaults.
func (c *Config) Normalize() {
	if c.Source == "" {
		c.Source = SourceFiles
	}
	if c.CalendarsDir == "" {
		c.CalendarsDir = DefaultCalendarsDir
	}
	if c.Google.Account == "" {
		c.Google.Account = DefaultAccount
	}
	if c.Google.HorizonDays <= 0 {
		c.Google.HorizonDays = DefaultHorizonDays
	}
	if c.Reload == "" {
		c.Reload = DefaultReload
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = DefaultSearchTimeout
	}
	if c.Search.Parallelism <= 0 {
		c.Search.Parallelism = 1
	}
	if c.Search.MaxIterations < 0 {
		c.Search.MaxIterations = 0
	}
	if c.Search.DefaultDurationMinutes <= 0 {
		c.Search.DefaultDurationMinutes = DefaultDurationMinute
	}
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceFiles:
	case SourceGoogle:
		if len(c.Google.Calendars) == 0 {
			return errors.New("google source needs at least one entry in google.calendars")
		}
	default:
		return fmt.Errorf("unknown source %q (expected %s or %s)", c.Source, SourceFiles, SourceGoogle)
	}

	switch c.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unknown transport %q (expected %s or %s)", c.Transport, TransportStdio, TransportStreamableHTTP)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if c.ReloadEnabled() {
		if _, err := cron.ParseStandard(c.Reload); err != nil {
			return fmt.Errorf("invalid reload schedule %q: %w", c.Reload, err)
		}
	}
	return nil
}

// ReloadEnabled reports whether scheduled reloads are configured.
func (c *Config) ReloadEnabled() bool {
	return c.Reload != "off"
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads the YAML file at path. A missing file is created with the
// default configuration so a first run leaves an editable template behind.
// The result is normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg := DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
		return cfg, nil
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}
