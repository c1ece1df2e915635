package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Port:         "8080",
		Env:          "development",
		JWTSecret:    "secure-secret-at-least-32-chars-long",
		StoreBackend: "memory",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid development", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown store backend", func(c *Config) { c.StoreBackend = "cassandra" }, true},
		{"gorm backend without target", func(c *Config) {
			c.StoreBackend = "gorm"
		}, true},
		{"gorm backend with path", func(c *Config) {
			c.StoreBackend = "gorm"
			c.StoreDBPath = "posts.db"
		}, false},
		{"production with default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"production with short secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, true},
		{"production agent endpoint without key", func(c *Config) {
			c.Env = "production"
			c.AgentEndpoint = "https://agent.example.com/api"
		}, true},
		{"production fully configured", func(c *Config) {
			c.Env = "production"
			c.AgentEndpoint = "https://agent.example.com/api"
			c.AgentAPIKey = "key"
			c.StoreBackend = "redis"
		}, false},
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

func TestConfig_IsTest(t *testing.T) {
	c := validConfig()
	assert.False(t, c.IsTest())

	c.Env = "test"
	assert.True(t, c.IsTest())
}
