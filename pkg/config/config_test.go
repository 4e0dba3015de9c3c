package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearFlockEnv unsets every FLOCK_ variable for the duration of a test so
// the developer's environment cannot leak into assertions.
func clearFlockEnv(t *testing.T) {
	t.Helper()
	for _, entry := range os.Environ() {
		if !strings.HasPrefix(entry, "FLOCK_") {
			continue
		}
		key := strings.SplitN(entry, "=", 2)[0]
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBodySize != 1<<20 {
		t.Errorf("expected default max body size 1MB, got %d", cfg.Server.MaxBodySize)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected default shutdown timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("expected default storage memory, got %q", cfg.Storage.Type)
	}
	if cfg.Auth.LoginRateLimit != 10 {
		t.Errorf("expected default login rate limit 10, got %d", cfg.Auth.LoginRateLimit)
	}
	if !cfg.Auth.SecureCookiesEnabled() {
		t.Error("expected secure cookies by default")
	}
	if !cfg.Observability.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearFlockEnv(t)
	path := writeConfigFile(t, `
server:
  port: 9090
auth:
  secret: yaml-secret
  secure_cookies: false
storage:
  type: postgres
  postgres:
    dsn: postgres://localhost/flock
    max_conns: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Auth.Secret != "yaml-secret" {
		t.Errorf("expected yaml secret, got %q", cfg.Auth.Secret)
	}
	if cfg.Auth.SecureCookiesEnabled() {
		t.Error("expected secure cookies disabled")
	}
	if cfg.Storage.Postgres.DSN != "postgres://localhost/flock" {
		t.Errorf("unexpected DSN: %q", cfg.Storage.Postgres.DSN)
	}
	// Unset fields keep their defaults.
	if cfg.Server.MaxBodySize != 1<<20 {
		t.Errorf("expected default max body size, got %d", cfg.Server.MaxBodySize)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	clearFlockEnv(t)
	path := writeConfigFile(t, `
server:
  port: 9090
auth:
  secret: yaml-secret
`)
	t.Setenv("FLOCK_PORT", "7070")
	t.Setenv("FLOCK_SECRET", "env-secret")
	t.Setenv("FLOCK_SECURE_COOKIES", "false")
	t.Setenv("FLOCK_LOGIN_RATE_LIMIT", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("expected env port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Auth.Secret != "env-secret" {
		t.Errorf("expected env secret, got %q", cfg.Auth.Secret)
	}
	if cfg.Auth.SecureCookiesEnabled() {
		t.Error("expected env to disable secure cookies")
	}
	if cfg.Auth.LoginRateLimit != 3 {
		t.Errorf("expected login rate limit 3, got %d", cfg.Auth.LoginRateLimit)
	}
}

func TestSecretFileResolution(t *testing.T) {
	clearFlockEnv(t)
	secretPath := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(secretPath, []byte("  file-secret \n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}
	t.Setenv("FLOCK_SECRET_FILE", secretPath)

	cfg, err := Load(writeConfigFile(t, "server:\n  port: 8080\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Auth.Secret != "file-secret" {
		t.Errorf("expected trimmed file secret, got %q", cfg.Auth.Secret)
	}
}

func TestSecretFileDoesNotOverrideExplicit(t *testing.T) {
	clearFlockEnv(t)
	secretPath := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(secretPath, []byte("file-secret"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}
	t.Setenv("FLOCK_SECRET", "explicit-secret")
	t.Setenv("FLOCK_SECRET_FILE", secretPath)

	cfg, err := Load(writeConfigFile(t, "server:\n  port: 8080\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Auth.Secret != "explicit-secret" {
		t.Errorf("expected explicit secret to win, got %q", cfg.Auth.Secret)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearFlockEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	clearFlockEnv(t)
	path := writeConfigFile(t, "server: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Defaults()
		cfg.Auth.Secret = "test-secret"
		return cfg
	}

	valid := base()
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.Auth.Secret = "" },
			wantSub: "auth.secret",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantSub: "server.port",
		},
		{
			name:    "bad body size",
			mutate:  func(c *Config) { c.Server.MaxBodySize = 0 },
			wantSub: "server.max_body_size",
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Storage.Type = "cassandra" },
			wantSub: "storage.type",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Storage.Type = "postgres" },
			wantSub: "storage.postgres.dsn",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.Auth.LoginRateLimit = -1 },
			wantSub: "auth.login_rate_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantSub, err)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 0
	// Secret also missing.
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, sub := range []string{"auth.secret", "server.port"} {
		if !strings.Contains(err.Error(), sub) {
			t.Errorf("expected joined error to mention %q, got %v", sub, err)
		}
	}
}
