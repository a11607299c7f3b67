package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:             "8000",
		Env:              "development",
		JWTSecret:        "secure-secret-at-least-32-chars-long",
		DBDriver:         "postgres",
		DBPassword:       "secure-password",
		DBSSLMode:        "require",
		PageCacheBackend: "redis",
		MediaMaxUploadMB: 5,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Valid development", func(*Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"SQLite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"Unknown cache backend", func(c *Config) { c.PageCacheBackend = "memcached" }, true},
		{"Local cache backend", func(c *Config) { c.PageCacheBackend = "local" }, false},
		{"Zero upload size", func(c *Config) { c.MediaMaxUploadMB = 0 }, true},
		{"Production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"Production short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"Production weak db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, true},
		{"Production sqlite ignores db password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
			c.DBPassword = ""
		}, false},
		{"Production valid", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	c := validConfig()

	c.IndexCacheTTLSeconds = 20
	assert.Equal(t, 20*time.Second, c.IndexCacheTTL())
	c.IndexCacheTTLSeconds = 0
	assert.Equal(t, time.Duration(0), c.IndexCacheTTL())

	c.SessionTTLHours = 0
	assert.Equal(t, 24*time.Hour, c.SessionTTL())
	c.SessionTTLHours = 2
	assert.Equal(t, 2*time.Hour, c.SessionTTL())
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("PAGE_CACHE_BACKEND", "Local")
	t.Setenv("INDEX_CACHE_TTL_SECONDS", "45")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "local", c.PageCacheBackend)
	assert.Equal(t, 45*time.Second, c.IndexCacheTTL())
	assert.Equal(t, "yatube_session", c.SessionCookie)
}

func TestLoadConfig_TestProfile(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "local", c.PageCacheBackend)
}
