// Package config loads the serving runtime's configuration from a YAML file
// and MLSERVE_-prefixed environment variables, with sane defaults for local
// development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/inferstack/mlserve/pkg/constants"
)

// Config is the full runtime configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" json:"server"`
	Storage    StorageConfig    `mapstructure:"storage" json:"storage"`
	Model      ModelConfig      `mapstructure:"model" json:"model"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" json:"monitoring"`
	API        APIConfig        `mapstructure:"api" json:"api"`
	Logging    LoggingConfig    `mapstructure:"logging" json:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host" json:"host"`
	Port            int           `mapstructure:"port" json:"port"`
	MetricsPort     int           `mapstructure:"metrics_port" json:"metrics_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
	EnableMetrics   bool          `mapstructure:"enable_metrics" json:"enable_metrics"`
	EnableCORS      bool          `mapstructure:"enable_cors" json:"enable_cors"`
	MaxRequestSize  int64         `mapstructure:"max_request_size" json:"max_request_size"`
}

// StorageConfig selects and configures the artifact store backend.
type StorageConfig struct {
	Backend         string `mapstructure:"backend" json:"backend"`
	Bucket          string `mapstructure:"bucket" json:"bucket"`
	Region          string `mapstructure:"region" json:"region"`
	Endpoint        string `mapstructure:"endpoint" json:"endpoint,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"-"`
	SecretAccessKey string `mapstructure:"secret_access_key" json:"-"`
	LocalPath       string `mapstructure:"local_path" json:"local_path,omitempty"`
	ModelFormat     string `mapstructure:"model_format" json:"model_format"`
}

// ModelConfig contains model loading settings.
type ModelConfig struct {
	Environment           string `mapstructure:"environment" json:"environment"`
	ReloadIntervalSeconds int    `mapstructure:"reload_interval_seconds" json:"reload_interval_seconds"`
}

// MonitoringConfig contains drift monitoring settings.
type MonitoringConfig struct {
	DriftCheckIntervalSeconds int     `mapstructure:"drift_check_interval_seconds" json:"drift_check_interval_seconds"`
	WindowSize                int     `mapstructure:"window_size" json:"window_size"`
	BufferSize                int     `mapstructure:"buffer_size" json:"buffer_size"`
	PSIThreshold              float64 `mapstructure:"psi_threshold" json:"psi_threshold"`
	KSPValueThreshold         float64 `mapstructure:"ks_pvalue_threshold" json:"ks_pvalue_threshold"`
}

// APIConfig contains request-shape limits and rate limiting.
type APIConfig struct {
	MaxBatchSize      int  `mapstructure:"max_batch_size" json:"max_batch_size"`
	MaxFeatures       int  `mapstructure:"max_features" json:"max_features"`
	MaxFeatureNameLen int  `mapstructure:"max_feature_name_len" json:"max_feature_name_len"`
	RateLimitEnabled  bool `mapstructure:"rate_limit_enabled" json:"rate_limit_enabled"`
	RequestsPerSecond int  `mapstructure:"requests_per_second" json:"requests_per_second"`
	RateLimitBurst    int  `mapstructure:"rate_limit_burst" json:"rate_limit_burst"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// Load reads configuration from the given file (optional) and the
// environment. Environment variables use the MLSERVE_ prefix with
// underscores for nesting, e.g. MLSERVE_STORAGE_BUCKET.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/mlserve")
		v.SetConfigName("mlserve")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("MLSERVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.enable_metrics", true)
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.max_request_size", 1<<20)

	v.SetDefault("storage.backend", "s3")
	// Keys without defaults are invisible to AutomaticEnv, so register the
	// optional ones explicitly.
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.local_path", "")
	v.SetDefault("storage.model_format", constants.DefaultModelFormat)

	v.SetDefault("model.environment", "production")
	v.SetDefault("model.reload_interval_seconds", constants.DefaultReloadInterval)

	v.SetDefault("monitoring.drift_check_interval_seconds", constants.DefaultDriftCheckInterval)
	v.SetDefault("monitoring.window_size", constants.DefaultDriftWindowSize)
	v.SetDefault("monitoring.buffer_size", constants.DefaultBufferSize)
	v.SetDefault("monitoring.psi_threshold", constants.DefaultPSIThreshold)
	v.SetDefault("monitoring.ks_pvalue_threshold", constants.DefaultKSThreshold)

	v.SetDefault("api.max_batch_size", constants.DefaultMaxBatchSize)
	v.SetDefault("api.max_features", constants.DefaultMaxFeatures)
	v.SetDefault("api.max_feature_name_len", constants.DefaultMaxFeatureNameLen)
	v.SetDefault("api.rate_limit_enabled", true)
	v.SetDefault("api.requests_per_second", 100)
	v.SetDefault("api.rate_limit_burst", 200)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Storage.Backend {
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the s3 backend")
		}
	case "local":
		if c.Storage.LocalPath == "" {
			return fmt.Errorf("storage.local_path is required for the local backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
	if c.Model.Environment == "" {
		return fmt.Errorf("model.environment must not be empty")
	}
	if c.Monitoring.WindowSize <= 0 {
		return fmt.Errorf("monitoring.window_size must be positive")
	}
	if c.Monitoring.BufferSize < c.Monitoring.WindowSize {
		return fmt.Errorf("monitoring.buffer_size (%d) must be at least window_size (%d)",
			c.Monitoring.BufferSize, c.Monitoring.WindowSize)
	}
	if c.API.MaxBatchSize <= 0 {
		return fmt.Errorf("api.max_batch_size must be positive")
	}
	return nil
}

// GetAddress returns the main listen address.
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ReloadInterval returns the model reload poll interval.
func (c *ModelConfig) ReloadInterval() time.Duration {
	return time.Duration(c.ReloadIntervalSeconds) * time.Second
}

// DriftCheckInterval returns the drift check interval.
func (c *MonitoringConfig) DriftCheckInterval() time.Duration {
	return time.Duration(c.DriftCheckIntervalSeconds) * time.Second
}
