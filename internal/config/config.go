package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/fiber/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "fiber.json"

	// DefaultBudget is the default per-callback render budget.
	DefaultBudget = "5ms"

	// DefaultAddr is the default address of the serve command.
	DefaultAddr = "localhost:8080"

	// DefaultMetricsPath is the default Prometheus endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultExportPrefix is the default S3 key prefix for snapshots.
	DefaultExportPrefix = "snapshots/"

	// DefaultRegion is the default AWS region for exports.
	DefaultRegion = "us-east-1"
)

// Scheduler drivers.
const (
	DriverManual    = "manual"
	DriverEventLoop = "eventloop"
)

// Config represents the complete fiber.json configuration.
type Config struct {
	// Scheduler configures the render scheduler.
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`

	// Serve configures the serve command.
	Serve ServeConfig `json:"serve,omitempty"`

	// Export configures snapshot uploads.
	Export ExportConfig `json:"export,omitempty"`

	// Journal configures the commit journal.
	Journal JournalConfig `json:"journal,omitempty"`

	// Log configures logging.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SchedulerConfig contains scheduler settings.
type SchedulerConfig struct {
	// Budget is the time slice per work loop callback (e.g., "5ms").
	Budget string `json:"budget,omitempty"`

	// Driver selects the continuation primitive: "manual" drives the
	// root synchronously, "eventloop" runs it on an event loop.
	Driver string `json:"driver,omitempty"`

	// Debug enables hook-order validation.
	Debug bool `json:"debug,omitempty"`
}

// ServeConfig contains settings of the serve command.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// MetricsPath is the Prometheus endpoint path.
	MetricsPath string `json:"metricsPath,omitempty"`
}

// ExportConfig contains S3 snapshot export settings.
type ExportConfig struct {
	// Bucket is the destination bucket. Required for export.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty"`

	// Region is the AWS region.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint (for S3-compatible stores).
	Endpoint string `json:"endpoint,omitempty"`
}

// JournalConfig contains commit journal settings.
type JournalConfig struct {
	// Path is the SQLite database file. Empty disables the journal.
	Path string `json:"path,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// Default creates a Config with default values.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for fiber.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("F010").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				Wrap(err)
		}
		return nil, errors.New("F010").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("F010").
			WithDetail("Failed to parse " + path + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// LoadOrDefault loads fiber.json from dir when it exists and returns the
// defaults otherwise.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		return Default(), nil
	}
	return Load(dir)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("F010").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("F010").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Scheduler.Budget == "" {
		c.Scheduler.Budget = DefaultBudget
	}
	if c.Scheduler.Driver == "" {
		c.Scheduler.Driver = DriverManual
	}

	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.MetricsPath == "" {
		c.Serve.MetricsPath = DefaultMetricsPath
	}

	if c.Export.Prefix == "" {
		c.Export.Prefix = DefaultExportPrefix
	}
	if c.Export.Region == "" {
		c.Export.Region = DefaultRegion
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	d, err := time.ParseDuration(c.Scheduler.Budget)
	if err != nil || d <= 0 {
		return errors.New("F011").
			WithDetail("scheduler.budget must be a positive duration, got " + c.Scheduler.Budget)
	}

	switch c.Scheduler.Driver {
	case DriverManual, DriverEventLoop:
	default:
		return errors.New("F011").
			WithDetail("scheduler.driver must be manual or eventloop, got " + c.Scheduler.Driver)
	}

	if !strings.HasPrefix(c.Serve.MetricsPath, "/") {
		return errors.New("F011").
			WithDetail("serve.metricsPath must start with /")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return errors.New("F011").
			WithDetail("log.level must be debug, info, warn or error, got " + c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("F011").
			WithDetail("log.format must be text or json, got " + c.Log.Format)
	}
	return nil
}

// Budget returns the scheduler budget, or 0 when it does not parse.
func (c *Config) Budget() time.Duration {
	d, err := time.ParseDuration(c.Scheduler.Budget)
	if err != nil {
		return 0
	}
	return d
}

// LogLevel returns the configured slog level, info when invalid.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// JournalPath returns the journal database path resolved against the
// config directory, or "" when the journal is disabled.
func (c *Config) JournalPath() string {
	if c.Journal.Path == "" {
		return ""
	}
	if filepath.IsAbs(c.Journal.Path) {
		return c.Journal.Path
	}
	return filepath.Join(c.Dir(), c.Journal.Path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
