// Package config provides unified configuration for the flock server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (FLOCK_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the flock server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MB
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
}

// AuthConfig holds session and credential settings.
type AuthConfig struct {
	// Secret is the HS256 signing secret for session tokens. Required.
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret

	// SecureCookies marks the session cookie Secure. Default: true.
	// Only disable for plain-HTTP local development.
	SecureCookies *bool `yaml:"secure_cookies"`

	// LoginRateLimit is the maximum login attempts per username per
	// minute. Zero disables limiting. Default: 10.
	LoginRateLimit int `yaml:"login_rate_limit"`
}

// StorageConfig holds state management settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// LogConfig holds logging settings. The FLOCK_LOG_LEVEL and FLOCK_DEBUG
// environment variables override these.
type LogConfig struct {
	Level string `yaml:"level"` // ERROR, WARN, INFO, DEBUG, TRACE; default: INFO
	Debug string `yaml:"debug"` // comma-separated debug categories
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // default: true
}

// SecureCookiesEnabled reports the effective secure-cookie setting.
func (a AuthConfig) SecureCookiesEnabled() bool {
	if a.SecureCookies == nil {
		return true
	}
	return *a.SecureCookies
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			MaxBodySize:     1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			LoginRateLimit: 10,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
			},
		},
	}
}
