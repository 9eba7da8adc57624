package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chromapages/support-gateway/internal/ratelimit"
)

type Config struct {
	Server    ServerConfig   `json:"server"`
	Auth      AuthConfig     `json:"auth"`
	RateLimit RateLimit      `json:"rate_limit"`
	Redis     RedisConfig    `json:"redis"`
	Postgres  PostgresConfig `json:"postgres"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
}

type AuthConfig struct {
	// Secret signs access tokens. Overridden by JWT_SECRET when set.
	Secret          string `json:"secret"`
	Algorithm       string `json:"algorithm"`
	TokenTTLMinutes int    `json:"token_ttl_minutes"`
}

type RateLimit struct {
	Tiers []TierConfig `json:"tiers"`

	// MaxTrackedClients bounds the registry; stale entries are evicted LRU.
	MaxTrackedClients int `json:"max_tracked_clients"`

	// Global inbound throttle, applied before per-client admission.
	GlobalRPS   float64 `json:"global_rps"`
	GlobalBurst int     `json:"global_burst"`
}

type TierConfig struct {
	Name              string `json:"name"`
	RequestsPerMinute int    `json:"requests_per_minute"`
	RequestsPerHour   int    `json:"requests_per_hour"`
	TokensPerRequest  int    `json:"tokens_per_request"`
	Scope             string `json:"scope"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Auth.TokenTTLMinutes == 0 {
		c.Auth.TokenTTLMinutes = 30
	}
	if c.Auth.Algorithm == "" {
		c.Auth.Algorithm = "HS256"
	}
	if c.RateLimit.MaxTrackedClients == 0 {
		c.RateLimit.MaxTrackedClients = ratelimit.DefaultMaxEntries
	}
	if len(c.RateLimit.Tiers) == 0 {
		c.RateLimit.Tiers = DefaultTiers()
	}
	for i := range c.RateLimit.Tiers {
		if c.RateLimit.Tiers[i].TokensPerRequest == 0 {
			c.RateLimit.Tiers[i].TokensPerRequest = 1
		}
	}
}

func (c *Config) applyEnv() {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.Secret = secret
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		c.Postgres.DSN = dsn
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
}

func (c *Config) validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required (set auth.secret or JWT_SECRET)")
	}
	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported signing algorithm %q", c.Auth.Algorithm)
	}
	for _, tier := range c.RateLimit.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("rate limit tier with empty name")
		}
		if tier.RequestsPerMinute < 1 || tier.RequestsPerHour < 1 {
			return fmt.Errorf("tier %s: limits must be >= 1", tier.Name)
		}
	}
	return nil
}

// DefaultTiers mirrors the documented service classes.
func DefaultTiers() []TierConfig {
	return []TierConfig{
		{Name: "free", RequestsPerMinute: 20, RequestsPerHour: 100, TokensPerRequest: 1, Scope: "agents:read"},
		{Name: "pro", RequestsPerMinute: 60, RequestsPerHour: 1000, TokensPerRequest: 1, Scope: "agents:*"},
		{Name: "enterprise", RequestsPerMinute: 120, RequestsPerHour: 5000, TokensPerRequest: 1, Scope: "agents:*"},
	}
}

// TierLimits converts the tier list into the registry's lookup table.
func (r RateLimit) TierLimits() map[string]ratelimit.TierLimits {
	limits := make(map[string]ratelimit.TierLimits, len(r.Tiers))
	for _, tier := range r.Tiers {
		limits[tier.Name] = ratelimit.TierLimits{
			RequestsPerMinute: tier.RequestsPerMinute,
			RequestsPerHour:   tier.RequestsPerHour,
			TokensPerRequest:  tier.TokensPerRequest,
		}
	}
	return limits
}

func (r RedisConfig) GetRedisAddr() string {
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return host + ":" + port
}
