package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Upstream.Timeout != 30*time.Second {
		t.Errorf("expected 30s upstream timeout, got %v", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.RetryAttempts != 3 || cfg.Upstream.RetryBaseDelay != time.Second || cfg.Upstream.RetryMaxDelay != 10*time.Second {
		t.Errorf("unexpected retry defaults: %+v", cfg.Upstream)
	}
	if cfg.Database.Enabled {
		t.Error("audit database should be off by default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("API_URL", "http://generic:8000")
	t.Setenv("NEXT_PUBLIC_API_URL", "https://api.example.co.tz/")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_SERVICE_HOST", "cache.local")
	t.Setenv("DB_HOST", "db.local")
	t.Setenv("DB_PORT", "6543")

	var cfg Config
	cfg.Redis.Port = "6379"
	applyEnvOverrides(&cfg)

	if cfg.Upstream.BaseURL != "https://api.example.co.tz" {
		t.Errorf("expected portal API URL without trailing slash, got %q", cfg.Upstream.BaseURL)
	}
	if cfg.JWT.Secret != "s3cret" {
		t.Errorf("expected JWT secret from env, got %q", cfg.JWT.Secret)
	}
	if cfg.RedisAddr() != "cache.local:6379" {
		t.Errorf("RedisAddr() = %q", cfg.RedisAddr())
	}
	if !cfg.Database.Enabled || cfg.Database.Host != "db.local" || cfg.Database.Port != 6543 {
		t.Errorf("expected database override, got %+v", cfg.Database)
	}
}
