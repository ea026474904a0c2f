// Package config provides hierarchical configuration management.
// Priority: defaults < config file < env < flags
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	tgerrors "github.com/logflow/tracegen/pkg/errors"
)

// Config holds all tracegen configuration.
type Config struct {
	Version int `yaml:"version"`

	Generator GeneratorConfig `yaml:"generator"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GeneratorConfig controls how windows are synthesized.
type GeneratorConfig struct {
	WantDays          int     `yaml:"want_days"`          // target span of each window in days
	NumLogs           int     `yaml:"num_logs"`           // number of windows to generate
	CarryOnFraction   float64 `yaml:"carry_on_fraction"`  // share of traces cut and deferred per window
	ReplicateFraction float64 `yaml:"replicate_fraction"` // share of traces duplicated once up front
	CaseIDLength      int     `yaml:"case_id_length"`
	Seed              int64   `yaml:"seed"`     // 0 = time based
	Timezone          string  `yaml:"timezone"` // IANA name used for zone-less input and output
}

// OutputConfig controls where windows are written.
type OutputConfig struct {
	Target string `yaml:"target"` // directory or s3://bucket/prefix
	Suffix string `yaml:"suffix"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug | info | warn | error
	Path       string `yaml:"path"`  // empty = stderr
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// StorageConfig for remote input and output.
type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config configures the S3 client.
type S3Config struct {
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint"`
	UsePathStyle    bool          `yaml:"use_path_style"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	Timeout         time.Duration `yaml:"timeout"`
}

// TelemetryConfig for optional OTLP tracing.
type TelemetryConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Endpoint      string  `yaml:"endpoint"`
	Insecure      bool    `yaml:"insecure"`
	SamplingRatio float64 `yaml:"sampling_ratio"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Generator: GeneratorConfig{
			CarryOnFraction:   0.1,
			ReplicateFraction: 0.1,
			CaseIDLength:      10,
			Timezone:          "UTC",
		},
		Output: OutputConfig{
			Target: ".",
			Suffix: ".withTimestamp",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
		Storage: StorageConfig{
			S3: S3Config{
				Region:  "us-east-1",
				Timeout: 5 * time.Minute,
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			Endpoint:      "localhost:4317",
			Insecure:      true,
			SamplingRatio: 1.0,
		},
	}
}

// Load builds the configuration from defaults, the optional file at path,
// and TRACEGEN_* environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if os.IsNotExist(err) {
				return nil, tgerrors.FileNotFound(path)
			}
			return nil, tgerrors.Wrap(err, tgerrors.CodeConfigInvalid, "failed to load config").
				WithContext("path", path)
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes a config file over the current values. Keys absent from
// the file keep their current value; keys present win, zero values included.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// loadEnv loads configuration from environment variables.
func (c *Config) loadEnv() error {
	// TRACEGEN_SEED
	if v := os.Getenv("TRACEGEN_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return tgerrors.InvalidArgument("TRACEGEN_SEED", v, "seed must be an integer")
		}
		c.Generator.Seed = seed
	}

	// TRACEGEN_TIMEZONE
	if v := os.Getenv("TRACEGEN_TIMEZONE"); v != "" {
		c.Generator.Timezone = v
	}

	// TRACEGEN_OUTPUT
	if v := os.Getenv("TRACEGEN_OUTPUT"); v != "" {
		c.Output.Target = v
	}

	// TRACEGEN_LOG_LEVEL
	if v := os.Getenv("TRACEGEN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	// TRACEGEN_LOG_PATH
	if v := os.Getenv("TRACEGEN_LOG_PATH"); v != "" {
		c.Logging.Path = v
	}

	// TRACEGEN_S3_ENDPOINT
	if v := os.Getenv("TRACEGEN_S3_ENDPOINT"); v != "" {
		c.Storage.S3.Endpoint = v
		c.Storage.S3.UsePathStyle = true
	}

	// TRACEGEN_OTLP_ENDPOINT
	if v := os.Getenv("TRACEGEN_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Enabled = true
		c.Telemetry.Endpoint = v
	}

	// TRACEGEN_OTLP_INSECURE
	if v := os.Getenv("TRACEGEN_OTLP_INSECURE"); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return tgerrors.InvalidArgument("TRACEGEN_OTLP_INSECURE", v, "must be a boolean")
		}
		c.Telemetry.Insecure = insecure
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Generator.Timezone)
	if err != nil {
		return nil, tgerrors.Wrap(err, tgerrors.CodeConfigInvalid, "unknown timezone").
			WithContext("timezone", c.Generator.Timezone)
	}
	return loc, nil
}

// Validate checks the generator settings.
func (c *Config) Validate() error {
	g := c.Generator
	switch {
	case g.WantDays <= 0:
		return tgerrors.InvalidArgument("want_days", g.WantDays, "want_days must be positive")
	case g.NumLogs <= 0:
		return tgerrors.InvalidArgument("num_logs", g.NumLogs, "num_logs must be positive")
	case g.CarryOnFraction < 0 || g.CarryOnFraction > 1:
		return tgerrors.InvalidArgument("carry_on_fraction", g.CarryOnFraction, "fraction must be within [0, 1]")
	case g.ReplicateFraction < 0 || g.ReplicateFraction > 1:
		return tgerrors.InvalidArgument("replicate_fraction", g.ReplicateFraction, "fraction must be within [0, 1]")
	case g.CaseIDLength <= 0:
		return tgerrors.InvalidArgument("case_id_length", g.CaseIDLength, "case_id_length must be positive")
	}
	if c.Output.Suffix == "" {
		return tgerrors.InvalidArgument("suffix", c.Output.Suffix, "suffix must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return tgerrors.WriteFailed(path, err)
	}
	return nil
}

// String renders the effective configuration for verbose output.
// Credentials are masked.
func (c *Config) String() string {
	masked := *c
	if masked.Storage.S3.SecretAccessKey != "" {
		masked.Storage.S3.SecretAccessKey = "****"
	}
	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}
