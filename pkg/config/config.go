package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Env     string
	API     APIConfig
	Clinic  ClinicConfig
	Sync    SyncConfig
	Display DisplayConfig
	Redis   RedisConfig
	OTEL    OTELConfig
	Log     LogConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// APIConfig holds the EMR backend connection settings
type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// ClinicConfig selects the clinic every screen is scoped to
type ClinicConfig struct {
	ID string
}

// SyncConfig holds polling and snapshot settings
type SyncConfig struct {
	PollInterval time.Duration
	SnapshotTTL  time.Duration
}

// DisplayConfig holds the waiting-room display server configuration
type DisplayConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Defaults applies the default value of every key to v.
func Defaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("EMR_API_URL", "http://localhost:5000")
	v.SetDefault("EMR_API_TOKEN", "")
	v.SetDefault("EMR_API_TIMEOUT", "10s")
	v.SetDefault("CLINIC_ID", "")
	v.SetDefault("SYNC_POLL_INTERVAL", "30s")
	v.SetDefault("SNAPSHOT_TTL", "10m")
	v.SetDefault("DISPLAY_HOST", "0.0.0.0")
	v.SetDefault("DISPLAY_PORT", 8090)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_ENDPOINT", "")
	v.SetDefault("OTEL_SERVICE_NAME", "clinicdesk")
	v.SetDefault("OTEL_SERVICE_VERSION", "1.0.0")
	v.SetDefault("LOG_LEVEL", "info")
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration through v, so callers can bind command line
// flags onto the same keys before loading.
func LoadFrom(v *viper.Viper) (*Config, error) {
	Defaults(v)
	v.AutomaticEnv()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	// A missing .env file is fine.
	_ = v.ReadInConfig()

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("EMR_API_URL"), "/"),
			Token:   v.GetString("EMR_API_TOKEN"),
			Timeout: v.GetDuration("EMR_API_TIMEOUT"),
		},
		Clinic: ClinicConfig{
			ID: v.GetString("CLINIC_ID"),
		},
		Sync: SyncConfig{
			PollInterval: v.GetDuration("SYNC_POLL_INTERVAL"),
			SnapshotTTL:  v.GetDuration("SNAPSHOT_TTL"),
		},
		Display: DisplayConfig{
			Host:           v.GetString("DISPLAY_HOST"),
			Port:           v.GetInt("DISPLAY_PORT"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
		},
		Log: LogConfig{
			Level: strings.ToLower(v.GetString("LOG_LEVEL")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no usable fallback
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("EMR_API_URL is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("EMR_API_TIMEOUT must be positive")
	}
	if c.Sync.PollInterval <= 0 {
		return fmt.Errorf("SYNC_POLL_INTERVAL must be positive")
	}
	return nil
}

// IsDevelopment reports whether logs should be human readable
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr returns the display server listen address
func (c *DisplayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
