// Package config loads service configuration with Viper: defaults in code,
// an optional config.yaml, and PORTFOLIO_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"portfolio/internal/domain/lifecycle"
)

// EnvPrefix prefixes every environment override, e.g. PORTFOLIO_DATABASE_URL.
const EnvPrefix = "PORTFOLIO"

// Config holds all configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// IsDevelopment reports whether the app runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LifecycleConfig configures the soft-delete lifecycle.
type LifecycleConfig struct {
	// Storage is "postgres" or "memory"
	Storage string `mapstructure:"storage"`

	RestorationWindow time.Duration `mapstructure:"restoration_window"`
	AuditMode         string        `mapstructure:"audit_mode"`

	// PurgeGuard is a CEL expression, see lifecycle.PurgeGuard
	PurgeGuard string `mapstructure:"purge_guard"`

	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// AuditCompressThreshold is the metadata size in bytes above which zstd is used
	AuditCompressThreshold int `mapstructure:"audit_compress_threshold"`

	// ListenChanges keeps session caches coherent across instances via LISTEN/NOTIFY
	ListenChanges bool `mapstructure:"listen_changes"`
}

// Policy converts the config into a lifecycle.Policy, compiling the purge guard.
func (c LifecycleConfig) Policy() (lifecycle.Policy, error) {
	mode, err := lifecycle.ParseAuditMode(c.AuditMode)
	if err != nil {
		return lifecycle.Policy{}, err
	}
	guard, err := lifecycle.NewPurgeGuard(c.PurgeGuard)
	if err != nil {
		return lifecycle.Policy{}, err
	}
	return lifecycle.Policy{
		RestorationWindow: c.RestorationWindow,
		AuditMode:         mode,
		PurgeGuard:        guard,
	}, nil
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration. path may be empty, in which case config.yaml is
// searched in . and ./config and is optional.
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith loads into v, which may already carry bound flags.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults registers every key so AutomaticEnv can override it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "portfolio")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.development", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "portfolio")
	v.SetDefault("auth.token_ttl", 15*time.Minute)

	v.SetDefault("lifecycle.storage", "postgres")
	v.SetDefault("lifecycle.restoration_window", lifecycle.DefaultRestorationWindow)
	v.SetDefault("lifecycle.audit_mode", string(lifecycle.AuditBestEffort))
	v.SetDefault("lifecycle.purge_guard", lifecycle.RequireSoftDeleted)
	v.SetDefault("lifecycle.sweep_interval", time.Hour)
	v.SetDefault("lifecycle.audit_compress_threshold", 10*1024)
	v.SetDefault("lifecycle.listen_changes", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Lifecycle.Storage {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required when lifecycle.storage is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("lifecycle.storage must be postgres or memory, got %q", c.Lifecycle.Storage)
	}

	if c.Lifecycle.RestorationWindow <= 0 {
		return fmt.Errorf("lifecycle.restoration_window must be positive, got %s", c.Lifecycle.RestorationWindow)
	}
	if _, err := c.Lifecycle.Policy(); err != nil {
		return fmt.Errorf("lifecycle: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
