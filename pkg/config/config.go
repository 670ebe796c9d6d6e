package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config contains all configuration for the warehouse service
type Config struct {
	// Logging configuration
	Log LogConfig `yaml:"log"`

	// HTTP server configuration
	Server ServerConfig `yaml:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" default:"json"`
	Debug  bool   `yaml:"debug" env:"DEBUG" default:"false"`
}

// ConfigureZerolog configures zerolog based on the log configuration
func (c *LogConfig) ConfigureZerolog() {
	level := zerolog.InfoLevel
	if c.Debug {
		level = zerolog.DebugLevel
	} else {
		switch strings.ToLower(c.Level) {
		case "trace":
			level = zerolog.TraceLevel
		case "debug":
			level = zerolog.DebugLevel
		case "info":
			level = zerolog.InfoLevel
		case "warn", "warning":
			level = zerolog.WarnLevel
		case "error":
			level = zerolog.ErrorLevel
		case "fatal":
			level = zerolog.FatalLevel
		case "panic":
			level = zerolog.PanicLevel
		}
	}
	zerolog.SetGlobalLevel(level)
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host" env:"WAREHOUSE_HOST" default:"0.0.0.0"`
	Port int    `yaml:"port" env:"WAREHOUSE_PORT" default:"8080"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver string `yaml:"driver" default:"sqlite3"`
	DSN    string `yaml:"dsn" env:"DATABASE_URL" default:"file:./warehouse.db"`
	Debug  bool   `yaml:"debug" env:"DATABASE_DEBUG" default:"false"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecretKey string        `yaml:"-" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" default:"24h"`
	BcryptCost   int           `yaml:"bcrypt_cost" default:"10"`
}

// Load loads the service configuration from multiple sources
func Load(configFile, envFile string) (*Config, error) {
	cfg := &Config{}

	loader := NewLoader(LoaderConfig{
		ConfigFile:      configFile,
		EnvironmentFile: envFile,
	})

	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	if len(c.Auth.JWTSecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters long")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	return nil
}

// GetListenAddress returns the address the server should listen on
func (c *Config) GetListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
