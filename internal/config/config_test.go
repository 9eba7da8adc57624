package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{"auth": {"secret": "s3cret"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTLMinutes != 30 {
		t.Fatalf("expected default TTL 30, got %d", cfg.Auth.TokenTTLMinutes)
	}
	if len(cfg.RateLimit.Tiers) != 3 {
		t.Fatalf("expected 3 default tiers, got %d", len(cfg.RateLimit.Tiers))
	}

	limits := cfg.RateLimit.TierLimits()
	free, ok := limits["free"]
	if !ok {
		t.Fatal("expected a free tier")
	}
	if free.RequestsPerMinute != 20 || free.RequestsPerHour != 100 || free.TokensPerRequest != 1 {
		t.Fatalf("unexpected free tier limits: %+v", free)
	}
}

func TestLoadMissingSecret(t *testing.T) {
	path := writeConfig(t, `{}`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestLoadSecretFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Auth.Secret != "from-env" {
		t.Fatalf("expected env secret, got %q", cfg.Auth.Secret)
	}
}

func TestLoadRejectsBadTier(t *testing.T) {
	path := writeConfig(t, `{
		"auth": {"secret": "s3cret"},
		"rate_limit": {"tiers": [{"name": "broken", "requests_per_minute": 0, "requests_per_hour": 10}]}
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for a tier with zero minute limit")
	}
}

func TestTokensPerRequestDefault(t *testing.T) {
	path := writeConfig(t, `{
		"auth": {"secret": "s3cret"},
		"rate_limit": {"tiers": [{"name": "custom", "requests_per_minute": 5, "requests_per_hour": 50}]}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RateLimit.Tiers[0].TokensPerRequest != 1 {
		t.Fatalf("expected tokens_per_request default 1, got %d", cfg.RateLimit.Tiers[0].TokensPerRequest)
	}
}

func TestRedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: "6380"}
	if got := cfg.GetRedisAddr(); got != "cache:6380" {
		t.Fatalf("got %q", got)
	}

	empty := RedisConfig{}
	if got := empty.GetRedisAddr(); got != "localhost:6379" {
		t.Fatalf("got %q", got)
	}
}
