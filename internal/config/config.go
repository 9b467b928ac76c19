// FilePath: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	AuthProviderJWT      = "jwt"
	AuthProviderKeycloak = "keycloak"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Keycloak   KeycloakConfig   `mapstructure:"keycloak"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Export     ExportConfig     `mapstructure:"export"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Device     DeviceConfig     `mapstructure:"device"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
}

type DatabaseConfig struct {
	Driver       string         `mapstructure:"driver"`
	Postgres     PostgresConfig `mapstructure:"postgres"`
	SQLitePath   string         `mapstructure:"sqlite_path"`
	Timescale    bool           `mapstructure:"timescale"`
	MaxOpenConns int            `mapstructure:"max_open_conns"`
	MaxIdleConns int            `mapstructure:"max_idle_conns"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the lib/pq connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

type AuthConfig struct {
	Provider      string        `mapstructure:"provider"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTExpiry     time.Duration `mapstructure:"jwt_expiry"`
	ResetTokenTTL time.Duration `mapstructure:"reset_token_ttl"`
}

type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	LatestTTL time.Duration `mapstructure:"latest_ttl"`
	StatsTTL  time.Duration `mapstructure:"stats_ttl"`
}

// Addr is the host:port pair go-redis expects.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         byte   `mapstructure:"qos"`
}

type ExportConfig struct {
	DefaultWindow  time.Duration `mapstructure:"default_window"`
	StatsWindow    time.Duration `mapstructure:"stats_window"`
	PreviewRows    int           `mapstructure:"preview_rows"`
	ArchiveDir     string        `mapstructure:"archive_dir"`
	PDFCompression bool          `mapstructure:"pdf_compression"`
	Creator        string        `mapstructure:"creator"`
}

type RetentionConfig struct {
	Days          int           `mapstructure:"days"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type MonitoringConfig struct {
	MaxEvents int `mapstructure:"max_events"`
}

type DeviceConfig struct {
	DefaultID string `mapstructure:"default_id"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Load config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// setDefaults also registers every key, so AutomaticEnv can override keys that
// have no config file entry.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_origin", "*")

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.sqlite_path", "./data/dohub.db")
	v.SetDefault("database.timescale", false)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "dohub")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "dohub")
	v.SetDefault("database.postgres.sslmode", "disable")

	// Auth defaults
	v.SetDefault("auth.provider", AuthProviderJWT)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiry", "12h")
	v.SetDefault("auth.reset_token_ttl", "15m")

	v.SetDefault("keycloak.url", "")
	v.SetDefault("keycloak.realm", "")
	v.SetDefault("keycloak.client_id", "")
	v.SetDefault("keycloak.client_secret", "")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.latest_ttl", "10m")
	v.SetDefault("redis.stats_ttl", "1m")

	// MQTT defaults
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "dohub")
	v.SetDefault("mqtt.topic_prefix", "dohub")
	v.SetDefault("mqtt.qos", 1)

	// Export defaults
	v.SetDefault("export.default_window", "168h")
	v.SetDefault("export.stats_window", "720h")
	v.SetDefault("export.preview_rows", 200)
	v.SetDefault("export.archive_dir", "")
	v.SetDefault("export.pdf_compression", true)
	v.SetDefault("export.creator", "DO Sensor Dashboard")

	// Retention defaults
	v.SetDefault("retention.days", 30)
	v.SetDefault("retention.sweep_interval", "1h")

	// Monitoring defaults
	v.SetDefault("monitoring.max_events", 10000)

	v.SetDefault("device.default_id", "")
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverSQLite:
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
		if config.Database.Timescale {
			return fmt.Errorf("timescale requires the postgres driver")
		}
	case DriverPostgres:
		if config.Database.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	switch config.Auth.Provider {
	case AuthProviderJWT:
		if len(config.Auth.JWTSecret) < 16 {
			return fmt.Errorf("jwt secret must be at least 16 characters")
		}
		if config.Auth.JWTExpiry <= 0 {
			return fmt.Errorf("jwt expiry must be positive")
		}
	case AuthProviderKeycloak:
		if config.Keycloak.URL == "" {
			return fmt.Errorf("keycloak URL is required")
		}
		if config.Keycloak.Realm == "" || config.Keycloak.ClientID == "" {
			return fmt.Errorf("keycloak realm and client_id are required")
		}
	default:
		return fmt.Errorf("unsupported auth provider %q", config.Auth.Provider)
	}

	if config.MQTT.Enabled && config.MQTT.Broker == "" {
		return fmt.Errorf("mqtt broker is required when mqtt is enabled")
	}
	if config.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	if config.Retention.Days <= 0 {
		return fmt.Errorf("retention days must be positive")
	}
	if config.Export.DefaultWindow <= 0 || config.Export.StatsWindow <= 0 {
		return fmt.Errorf("export windows must be positive")
	}
	return nil
}
