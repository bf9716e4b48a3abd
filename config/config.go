// Package config loads dogstore configuration from defaults, a config file
// and DOGSTORE_* environment variables.
package config

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/input-output-hk/dogstore/errors"
	"github.com/input-output-hk/dogstore/provision"
	"github.com/input-output-hk/dogstore/tracing"
	"github.com/input-output-hk/dogstore/workflow"
)

// EnvPrefix prefixes every environment variable, e.g. DOGSTORE_STORE_TABLE.
const EnvPrefix = "DOGSTORE"

// Store backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Capacity CapacityConfig `mapstructure:"capacity"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  tracing.Config `mapstructure:"tracing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Backend  string        `mapstructure:"backend"`  // "dynamodb" (default) or "memory"
	Table    string        `mapstructure:"table"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 0 disables the read cache
}

// AWSConfig configures the AWS SDK clients.
type AWSConfig struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"` // override, e.g. LocalStack
}

// CapacityConfig bounds table write capacity.
type CapacityConfig struct {
	MinWrite          int32   `mapstructure:"min_write"`
	MaxWrite          int32   `mapstructure:"max_write"`
	TargetUtilization float64 `mapstructure:"target_utilization"`
}

// RetryConfig bounds persistence retries.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or text
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	retry := workflow.DefaultRetryPolicy()
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Backend: BackendDynamoDB,
			Table:   "DogTable",
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Capacity: CapacityConfig{
			MinWrite:          1,
			MaxWrite:          10,
			TargetUtilization: 70,
		},
		Retry: RetryConfig{
			MaxAttempts: retry.MaxAttempts,
			BaseDelay:   retry.BaseDelay,
			MaxDelay:    retry.MaxDelay,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// SetDefaults registers every key with its default on v. Keys must be
// registered for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.table", d.Store.Table)
	v.SetDefault("store.cache_ttl", d.Store.CacheTTL)
	v.SetDefault("aws.region", d.AWS.Region)
	v.SetDefault("aws.endpoint", d.AWS.Endpoint)
	v.SetDefault("capacity.min_write", d.Capacity.MinWrite)
	v.SetDefault("capacity.max_write", d.Capacity.MaxWrite)
	v.SetDefault("capacity.target_utilization", d.Capacity.TargetUtilization)
	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.base_delay", d.Retry.BaseDelay)
	v.SetDefault("retry.max_delay", d.Retry.MaxDelay)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Load reads configuration into a validated Config. A config file set on v
// with SetConfigFile must exist; when none is set, Load searches
// SearchPaths for dogstore.yaml and tolerates its absence.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("dogstore")
		v.SetConfigType("yaml")
		for _, dir := range SearchPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, errors.CodeInvalidConfig, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.CodeInvalidConfig, "failed to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SearchPaths lists the directories searched for dogstore.yaml, first match
// wins: the working directory, the XDG config home and config dirs (each
// with a dogstore subdirectory), then /etc/dogstore.
func SearchPaths() []string {
	paths := []string{".", filepath.Join(xdg.ConfigHome, "dogstore")}
	for _, dir := range xdg.ConfigDirs {
		paths = append(paths, filepath.Join(dir, "dogstore"))
	}
	return append(paths, "/etc/dogstore")
}

// Validate rejects inconsistent settings.
func (c Config) Validate() error {
	var problems []string

	switch c.Store.Backend {
	case BackendDynamoDB, BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.Table == "" {
		problems = append(problems, "store.table cannot be empty")
	}
	if c.Capacity.MinWrite < 1 {
		problems = append(problems, "capacity.min_write must be at least 1")
	}
	if c.Capacity.MinWrite > c.Capacity.MaxWrite {
		problems = append(problems, fmt.Sprintf("capacity.min_write %d exceeds capacity.max_write %d",
			c.Capacity.MinWrite, c.Capacity.MaxWrite))
	}
	if c.Retry.MaxAttempts < 1 {
		problems = append(problems, "retry.max_attempts must be positive")
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		problems = append(problems, "retry delays cannot be negative")
	}
	if c.Server.RequestTimeout < 0 {
		problems = append(problems, "server.request_timeout cannot be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return errors.WrapWithContext(
			stderrors.New(strings.Join(problems, "; ")),
			errors.CodeInvalidConfig,
			"invalid configuration",
			map[string]any{"problems": problems},
		)
	}
	return nil
}

// RetryPolicy returns the persistence retry policy.
func (c Config) RetryPolicy() workflow.RetryPolicy {
	return workflow.RetryPolicy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		MaxDelay:    c.Retry.MaxDelay,
	}
}

// Provision returns the provisioner settings for the configured table.
func (c Config) Provision() provision.Config {
	return provision.Config{
		Table:             c.Store.Table,
		MinWrite:          c.Capacity.MinWrite,
		MaxWrite:          c.Capacity.MaxWrite,
		TargetUtilization: c.Capacity.TargetUtilization,
	}
}
