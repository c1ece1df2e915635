// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// AdminPasswordHash is the bcrypt hash elevated-role logins are checked
	// against. Empty means elevated logins are disabled.
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`

	// StoreBackend selects where the post collection blob lives:
	// "memory", "redis" or "gorm".
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	StoreDBPath  string `mapstructure:"STORE_DB_PATH"`
	StoreDBDSN   string `mapstructure:"STORE_DB_DSN"`
	RedisURL     string `mapstructure:"REDIS_URL"`

	AgentEndpoint string `mapstructure:"AGENT_ENDPOINT"`
	AgentAPIKey   string `mapstructure:"AGENT_API_KEY"`
	AgentOrgID    string `mapstructure:"AGENT_ORG_ID"`
	ImageEndpoint string `mapstructure:"IMAGE_ENDPOINT"`
	ImageAPIKey   string `mapstructure:"IMAGE_API_KEY"`

	ReviewersFile string `mapstructure:"REVIEWERS_FILE"`

	// FeatureFlags is a comma-separated flag list, e.g. "forge_image=on,single_mode=25%".
	FeatureFlags string `mapstructure:"FEATURE_FLAGS"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	TracingOTLPEndpoint string  `mapstructure:"TRACING_OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	// Set default values for development
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("ADMIN_PASSWORD_HASH", "")
	viper.SetDefault("STORE_BACKEND", "memory")
	viper.SetDefault("STORE_DB_PATH", "socialflow.db")
	viper.SetDefault("STORE_DB_DSN", "")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("AGENT_ENDPOINT", "")
	viper.SetDefault("AGENT_API_KEY", "")
	viper.SetDefault("AGENT_ORG_ID", "anonymous-org")
	viper.SetDefault("IMAGE_ENDPOINT", "")
	viper.SetDefault("IMAGE_API_KEY", "")
	viper.SetDefault("REVIEWERS_FILE", "reviewers.yml")
	viper.SetDefault("FEATURE_FLAGS", "forge_image=on")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.StoreBackend = strings.ToLower(strings.TrimSpace(config.StoreBackend))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.StoreBackend {
	case "memory", "redis", "gorm":
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, redis, gorm; got %q", c.StoreBackend)
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.StoreBackend == "memory" {
			log.Println("WARNING: STORE_BACKEND is 'memory' in production. Posts will be lost on restart.")
		}
		if c.AgentEndpoint != "" && c.AgentAPIKey == "" {
			return errors.New("AGENT_API_KEY is required when AGENT_ENDPOINT is set in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else {
		// Development/Test warnings
		if len(c.JWTSecret) < 32 {
			log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
	}

	if c.StoreBackend == "gorm" && c.StoreDBPath == "" && c.StoreDBDSN == "" {
		return errors.New("STORE_DB_PATH or STORE_DB_DSN is required when STORE_BACKEND is gorm")
	}

	return nil
}

// IsTest reports whether the app runs under the test profile.
func (c *Config) IsTest() bool {
	return c.Env == "test"
}
