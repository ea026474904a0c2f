package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tgerrors "github.com/logflow/tracegen/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 0.1, cfg.Generator.CarryOnFraction)
	assert.Equal(t, 0.1, cfg.Generator.ReplicateFraction)
	assert.Equal(t, 10, cfg.Generator.CaseIDLength)
	assert.Equal(t, ".withTimestamp", cfg.Output.Suffix)
	assert.Equal(t, "UTC", cfg.Generator.Timezone)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracegen.yaml")
	yamlDoc := `
generator:
  want_days: 7
  num_logs: 3
  carry_on_fraction: 0.25
  seed: 42
output:
  target: out
logging:
  level: debug
storage:
  s3:
    timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0644))

	t.Setenv("TRACEGEN_OUTPUT", "s3://bench/windows")
	t.Setenv("TRACEGEN_SEED", "99")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Generator.WantDays)
	assert.Equal(t, 3, cfg.Generator.NumLogs)
	assert.Equal(t, 0.25, cfg.Generator.CarryOnFraction)
	assert.Equal(t, 0.1, cfg.Generator.ReplicateFraction, "unset values keep defaults")
	assert.Equal(t, int64(99), cfg.Generator.Seed, "env overrides file")
	assert.Equal(t, "s3://bench/windows", cfg.Output.Target)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 30*time.Second, cfg.Storage.S3.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracegen.yaml")
	yamlDoc := `
generator:
  carry_on_fraction: 0
  replicate_fraction: 0
telemetry:
  enabled: true
  endpoint: collector:4317
  insecure: false
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Generator.CarryOnFraction)
	assert.Equal(t, 0.0, cfg.Generator.ReplicateFraction)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "collector:4317", cfg.Telemetry.Endpoint)
	assert.False(t, cfg.Telemetry.Insecure)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio, "unset keys keep defaults")
	assert.Equal(t, ".withTimestamp", cfg.Output.Suffix)

	t.Setenv("TRACEGEN_OTLP_INSECURE", "true")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Telemetry.Insecure, "env overrides file")

	t.Setenv("TRACEGEN_OTLP_INSECURE", "sometimes")
	_, err = Load(path)
	assert.True(t, tgerrors.IsCode(err, tgerrors.CodeInvalidArgument))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, tgerrors.IsCode(err, tgerrors.CodeFileNotFound))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("generator: [unclosed"), 0644))
	_, err = Load(bad)
	assert.True(t, tgerrors.IsCode(err, tgerrors.CodeConfigInvalid))

	t.Setenv("TRACEGEN_SEED", "abc")
	_, err = Load("")
	assert.True(t, tgerrors.IsCode(err, tgerrors.CodeInvalidArgument))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Generator.WantDays = 7
		cfg.Generator.NumLogs = 3
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"zero days", func(c *Config) { c.Generator.WantDays = 0 }, false},
		{"negative logs", func(c *Config) { c.Generator.NumLogs = -1 }, false},
		{"carry on above one", func(c *Config) { c.Generator.CarryOnFraction = 1.5 }, false},
		{"negative replicate", func(c *Config) { c.Generator.ReplicateFraction = -0.1 }, false},
		{"zero fractions", func(c *Config) { c.Generator.CarryOnFraction = 0; c.Generator.ReplicateFraction = 0 }, true},
		{"bad timezone", func(c *Config) { c.Generator.Timezone = "Mars/Olympus" }, false},
		{"empty suffix", func(c *Config) { c.Output.Suffix = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestString_MasksSecret(t *testing.T) {
	cfg := Default()
	cfg.Storage.S3.SecretAccessKey = "hunter2"
	assert.NotContains(t, cfg.String(), "hunter2")
	assert.Equal(t, "hunter2", cfg.Storage.S3.SecretAccessKey)
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Generator.WantDays = 14
	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 14, loaded.Generator.WantDays)
}
