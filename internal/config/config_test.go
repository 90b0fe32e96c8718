package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferstack/mlserve/pkg/constants"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mlserve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  backend: local
  local_path: /tmp/mlserve
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.True(t, cfg.Server.EnableMetrics)

	assert.Equal(t, "production", cfg.Model.Environment)
	assert.Equal(t, constants.DefaultReloadInterval, cfg.Model.ReloadIntervalSeconds)

	assert.Equal(t, constants.DefaultDriftCheckInterval, cfg.Monitoring.DriftCheckIntervalSeconds)
	assert.Equal(t, constants.DefaultDriftWindowSize, cfg.Monitoring.WindowSize)
	assert.Equal(t, constants.DefaultBufferSize, cfg.Monitoring.BufferSize)
	assert.Equal(t, constants.DefaultPSIThreshold, cfg.Monitoring.PSIThreshold)
	assert.Equal(t, constants.DefaultKSThreshold, cfg.Monitoring.KSPValueThreshold)

	assert.Equal(t, constants.DefaultMaxBatchSize, cfg.API.MaxBatchSize)
	assert.True(t, cfg.API.RateLimitEnabled)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9000
storage:
  backend: s3
  bucket: models-bucket
  region: eu-west-1
monitoring:
  window_size: 500
  buffer_size: 5000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "models-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.Equal(t, 500, cfg.Monitoring.WindowSize)
	assert.Equal(t, 5000, cfg.Monitoring.BufferSize)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("MLSERVE_STORAGE_BUCKET", "env-bucket")

	path := writeConfigFile(t, `
storage:
  backend: s3
  bucket: file-bucket
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-bucket", cfg.Storage.Bucket)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MLSERVE_STORAGE_BACKEND", "local")
	t.Setenv("MLSERVE_STORAGE_LOCAL_PATH", "/tmp/mlserve")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func validConfig() *Config {
	return &Config{
		Server:     ServerConfig{Port: 8080},
		Storage:    StorageConfig{Backend: "local", LocalPath: "/tmp/mlserve"},
		Model:      ModelConfig{Environment: "production"},
		Monitoring: MonitoringConfig{WindowSize: 1000, BufferSize: 10000},
		API:        APIConfig{MaxBatchSize: 1000},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = "s3"; c.Storage.Bucket = "" }},
		{"local without path", func(c *Config) { c.Storage.LocalPath = "" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "ftp" }},
		{"empty environment", func(c *Config) { c.Model.Environment = "" }},
		{"zero window size", func(c *Config) { c.Monitoring.WindowSize = 0 }},
		{"buffer smaller than window", func(c *Config) { c.Monitoring.BufferSize = 10 }},
		{"zero batch size", func(c *Config) { c.API.MaxBatchSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetAddress(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Host: "127.0.0.1", Port: 8080}}
	assert.Equal(t, "127.0.0.1:8080", cfg.GetAddress())
}

func TestIntervalHelpers(t *testing.T) {
	model := ModelConfig{ReloadIntervalSeconds: 300}
	assert.Equal(t, "5m0s", model.ReloadInterval().String())

	monitoring := MonitoringConfig{DriftCheckIntervalSeconds: 3600}
	assert.Equal(t, "1h0m0s", monitoring.DriftCheckInterval().String())
}
