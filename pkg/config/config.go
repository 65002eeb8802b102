package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete breeze configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (BREEZE_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains the HTTP engine settings
	Server ServerConfig `mapstructure:"server"`

	// Audit configures the append-only audit log
	Audit AuditConfig `mapstructure:"audit"`

	// KV configures the key-value store connector
	KV KVConfig `mapstructure:"kv"`

	// DB configures the relational store connector
	DB DBConfig `mapstructure:"db"`

	// Auth configures token signing and lifetime
	Auth AuthConfig `mapstructure:"auth"`

	// Mail configures outbound SMTP delivery
	Mail MailConfig `mapstructure:"mail"`

	// API configures the outbound HTTP client
	API APIConfig `mapstructure:"api"`

	// Metrics toggles Prometheus instrumentation
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains the HTTP engine settings.
type ServerConfig struct {
	// Port is the TCP port both listeners bind to
	Port int `mapstructure:"port" validate:"required,gt=0,lte=65535"`

	// Workers is the connection pool size; 0 means one per logical CPU
	Workers int `mapstructure:"workers" validate:"gte=0"`

	// QueueCapacity bounds the pending-connection queue; 0 means the
	// engine default
	QueueCapacity int `mapstructure:"queue_capacity" validate:"gte=0"`

	// LogRequestParams includes query strings in access-log lines
	LogRequestParams bool `mapstructure:"log_request_params"`
}

// AuditConfig configures the append-only audit log.
type AuditConfig struct {
	// Path is the audit log file; empty disables audit logging
	Path string `mapstructure:"path"`
}

// KVConfig configures the key-value store connector.
type KVConfig struct {
	// Path is the on-disk database directory
	Path string `mapstructure:"path" validate:"required"`

	// InMemory keeps the store off disk (tests, throwaway environments)
	InMemory bool `mapstructure:"in_memory"`
}

// DBConfig configures the relational store connector.
type DBConfig struct {
	// Driver is the database/sql driver name
	Driver string `mapstructure:"driver" validate:"required"`

	// DSN is the driver-specific data source name
	DSN string `mapstructure:"dsn" validate:"required"`
}

// AuthConfig configures token signing.
type AuthConfig struct {
	// Secret signs HS256 tokens
	Secret string `mapstructure:"secret" validate:"required"`

	// TokenTTL is the lifetime of generated tokens
	TokenTTL time.Duration `mapstructure:"token_ttl" validate:"required,gt=0"`
}

// MailConfig configures outbound SMTP delivery.
type MailConfig struct {
	// Enabled turns the mail sender on
	Enabled bool `mapstructure:"enabled"`

	// Host and Port locate the SMTP server
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`

	// Username and Password authenticate against the SMTP server
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// APIConfig configures the outbound HTTP client.
type APIConfig struct {
	// Timeout is the per-attempt HTTP timeout
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	// RetryMax is the number of retries per request
	RetryMax int `mapstructure:"retry_max" validate:"gte=0"`

	// TripAfter is the consecutive-failure count that opens the circuit
	TripAfter uint32 `mapstructure:"trip_after"`

	// OpenTimeout is how long the circuit stays open
	OpenTimeout time.Duration `mapstructure:"open_timeout" validate:"gte=0"`
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	// Enabled exposes /metrics and records request metrics
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns the loaded and validated configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the BREEZE_ prefix and underscores
	// Example: BREEZE_SERVER_PORT=9090
	v.SetEnvPrefix("BREEZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing file
// is acceptable; defaults cover everything required.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "breeze")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "breeze")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
