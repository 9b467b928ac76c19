package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOHUB_AUTH__JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, AuthProviderJWT, cfg.Auth.Provider)
	assert.Equal(t, 12*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, 15*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Export.DefaultWindow)
	assert.Equal(t, 30*24*time.Hour, cfg.Export.StatsWindow)
	assert.Equal(t, 200, cfg.Export.PreviewRows)
	assert.Equal(t, 30, cfg.Retention.Days)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DOHUB_AUTH__JWT_SECRET", testSecret)
	t.Setenv("DOHUB_SERVER__PORT", "9000")
	t.Setenv("DOHUB_DATABASE__DRIVER", "postgres")
	t.Setenv("DOHUB_DATABASE__POSTGRES__HOST", "db.internal")
	t.Setenv("DOHUB_DATABASE__TIMESCALE", "true")
	t.Setenv("DOHUB_RETENTION__DAYS", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.Database.Timescale)
	assert.Equal(t, 90, cfg.Retention.Days)
	assert.Equal(t, "host=db.internal port=5432 user=dohub password= dbname=dohub sslmode=disable",
		cfg.Database.Postgres.DSN())
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:  DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db"},
			Auth:      AuthConfig{Provider: AuthProviderJWT, JWTSecret: testSecret, JWTExpiry: time.Hour},
			Retention: RetentionConfig{Days: 30},
			Export:    ExportConfig{DefaultWindow: time.Hour, StatsWindow: time.Hour},
		}
	}
	require.NoError(t, validateConfig(valid()))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"timescale on sqlite", func(c *Config) { c.Database.Timescale = true }},
		{"postgres without host", func(c *Config) { c.Database.Driver = DriverPostgres }},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"keycloak without url", func(c *Config) { c.Auth.Provider = AuthProviderKeycloak }},
		{"unknown provider", func(c *Config) { c.Auth.Provider = "ldap" }},
		{"mqtt without broker", func(c *Config) { c.MQTT.Enabled = true }},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }},
		{"zero retention", func(c *Config) { c.Retention.Days = 0 }},
		{"zero window", func(c *Config) { c.Export.StatsWindow = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}
