package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("AUTH_INITIAL_SESSION_TIMEOUT", "2s")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("server address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.Backend.Driver != DriverMemory || cfg.Storage.Driver != DriverMemory {
		t.Errorf("drivers = %q/%q, want memory/memory", cfg.Backend.Driver, cfg.Storage.Driver)
	}
	if cfg.JWT.Secret != "test-secret" {
		t.Errorf("jwt secret = %q", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiration != time.Hour {
		t.Errorf("jwt expiration = %v, want 1h", cfg.JWT.Expiration)
	}
	if cfg.Auth.InitialSessionTimeout != 2*time.Second {
		t.Errorf("initial session timeout = %v, want 2s", cfg.Auth.InitialSessionTimeout)
	}
	if cfg.S3.AvatarsBucket != "avatars" {
		t.Errorf("avatars bucket = %q", cfg.S3.AvatarsBucket)
	}
	if len(cfg.Plans) != 3 || cfg.Plans[0].ID != "p1" || cfg.Plans[2].DurationDays != 365 {
		t.Errorf("plans = %+v, want default catalog", cfg.Plans)
	}
	if cfg.Auth.AdminEmail != "" || cfg.Auth.AdminName != "Administrador" {
		t.Errorf("admin = %q/%q", cfg.Auth.AdminEmail, cfg.Auth.AdminName)
	}
}

func TestLoadConfig_AdminFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("AUTH_ADMIN_EMAIL", "coach@gym.com")
	t.Setenv("AUTH_ADMIN_PASSWORD", "secret1")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Auth.AdminEmail != "coach@gym.com" || cfg.Auth.AdminPassword != "secret1" {
		t.Errorf("admin = %q/%q", cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
jwt:
  secret: from-file
  expiration: 30m
backend:
  driver: mongo
plans:
  - id: basic
    name: Basic
    duration_days: 15
    price: 10
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JWT.Expiration != 30*time.Minute {
		t.Errorf("jwt expiration = %v, want 30m", cfg.JWT.Expiration)
	}
	if cfg.Backend.Driver != DriverMongo {
		t.Errorf("backend driver = %q, want mongo", cfg.Backend.Driver)
	}
	if len(cfg.Plans) != 1 || cfg.Plans[0].ID != "basic" || cfg.Plans[0].DurationDays != 15 {
		t.Errorf("plans = %+v", cfg.Plans)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := LoadConfig(t.TempDir())
		if err == nil {
			return cfg
		}
		t.Fatalf("LoadConfig: %v", err)
		return Config{}
	}
	t.Setenv("JWT_SECRET", "s")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend.Driver = "postgres" }},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "gcs" }},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }},
		{"no plans", func(c *Config) { c.Plans = nil }},
		{"s3 without bucket", func(c *Config) { c.Storage.Driver = DriverS3; c.S3.AvatarsBucket = "" }},
		{"zero session timeout", func(c *Config) { c.Auth.InitialSessionTimeout = 0 }},
		{"admin email without password", func(c *Config) { c.Auth.AdminEmail = "coach@gym.com" }},
		{"admin password without email", func(c *Config) { c.Auth.AdminPassword = "secret1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
