// Package config loads service configuration from defaults, an optional
// config file, a .env file and JOURNAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. JOURNAL_SERVER_ADDR.
const EnvPrefix = "JOURNAL"

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Sentry      SentryConfig   `mapstructure:"sentry"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	UseMemory     bool   `mapstructure:"use_memory"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickHouseDSN string `mapstructure:"clickhouse_dsn"` // optional; empty keeps history in memory
}

type RedisConfig struct {
	URL string        `mapstructure:"url"` // optional; empty disables the metrics cache
	TTL time.Duration `mapstructure:"ttl"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Load reads configuration. configFile may be empty.
// A missing .env file is not an error.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// AutomaticEnv yields comma separated strings for list keys.
	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "production")
	v.SetDefault("log_level", "info")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("database.use_memory", false)
	v.SetDefault("database.postgres_dsn", "")
	v.SetDefault("database.clickhouse_dsn", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl", 10*time.Minute)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("metrics.timezone", "UTC")
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	var errs []error
	if !c.Database.UseMemory && c.Database.PostgresDSN == "" {
		errs = append(errs, errors.New("database.postgres_dsn is required unless database.use_memory is set"))
	}
	if _, err := time.LoadLocation(c.Metrics.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("metrics.timezone: %w", err))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Location returns the location used for day bucketing.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Metrics.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
