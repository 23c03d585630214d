package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable (HOSP_DATABASE_URL, HOSP_JWT_SECRET, ...).
const EnvPrefix = "HOSP"

// Blacklist storage backends.
const (
	BlacklistBackendDatabase = "database"
	BlacklistBackendRedis    = "redis"
)

// minSecretLength is the minimum HS256 key size in bytes.
const minSecretLength = 32

// Config holds the application configuration.
//
// It is loaded once at startup and passed by pointer to every component.
// Nothing mutates it after Load returns.
type Config struct {
	// Database connection string (DSN). postgres:// selects PostgreSQL, anything else SQLite.
	DatabaseURL string `mapstructure:"database_url"`

	// Server bind address (host:port)
	ServerAddr string `mapstructure:"server_addr"`

	// Maximum database connection pool size (PostgreSQL only)
	MaxDBConnections int `mapstructure:"max_db_connections"`

	// Enable debug logging
	Debug bool `mapstructure:"debug"`

	// LogFormat is "json" or "text"
	LogFormat string `mapstructure:"log_format"`

	// CORSAllowedOrigins lists browser origins allowed to call the API
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	JWT           JWTConfig           `mapstructure:"jwt"`
	Blacklist     BlacklistConfig     `mapstructure:"blacklist"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// JWTConfig controls token issuance and validation.
type JWTConfig struct {
	// Secret is the HS256 signing key. Required, at least 32 bytes.
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// BlacklistConfig selects where revoked token fingerprints are stored.
type BlacklistConfig struct {
	Backend string `mapstructure:"backend"`
	// PurgeInterval is how often expired entries are deleted. 0 disables the pruner.
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// RedisConfig is used by the redis blacklist backend and the guest edit notifier.
// An empty Addr disables Redis entirely.
type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	NotifyChannel string `mapstructure:"notify_channel"`
}

// ObservabilityConfig configures OpenTelemetry export.
type ObservabilityConfig struct {
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPInsecure   bool   `mapstructure:"otlp_insecure"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Environment    string `mapstructure:"environment"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "file:hospitality.db?cache=shared")
	v.SetDefault("server_addr", "localhost:8080")
	v.SetDefault("max_db_connections", 25)
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "json")
	v.SetDefault("cors_allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "stadium-hospitality")
	v.SetDefault("jwt.audience", "stadium-hospitality-api")
	v.SetDefault("jwt.access_ttl", "1h")
	v.SetDefault("jwt.refresh_ttl", "168h")

	v.SetDefault("blacklist.backend", BlacklistBackendDatabase)
	v.SetDefault("blacklist.purge_interval", "1h")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.notify_channel", "hospitality.guest-edits")

	v.SetDefault("observability.otlp_endpoint", "")
	v.SetDefault("observability.otlp_insecure", false)
	v.SetDefault("observability.service_name", "hospitality-api")
	v.SetDefault("observability.service_version", "dev")
	v.SetDefault("observability.environment", "development")
}

// Load reads configuration from the global viper instance: defaults, an
// optional config file already registered by the caller, and HOSP_ prefixed
// environment variables (which take precedence).
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from the provided viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if len(c.JWT.Secret) < minSecretLength {
		return fmt.Errorf("jwt.secret must be at least %d bytes (env: %s_JWT_SECRET)", minSecretLength, EnvPrefix)
	}
	if c.JWT.Issuer == "" || c.JWT.Audience == "" {
		return fmt.Errorf("jwt.issuer and jwt.audience are required")
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("jwt.access_ttl must be positive")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return fmt.Errorf("jwt.refresh_ttl must not be shorter than jwt.access_ttl")
	}
	switch c.Blacklist.Backend {
	case BlacklistBackendDatabase:
	case BlacklistBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when blacklist.backend=redis")
		}
	default:
		return fmt.Errorf("unknown blacklist.backend %q", c.Blacklist.Backend)
	}
	if c.Blacklist.PurgeInterval < 0 {
		return fmt.Errorf("blacklist.purge_interval must not be negative")
	}
	return nil
}
