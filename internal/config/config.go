// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; empty runs the API on in-memory stores.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret signs bearer tokens with HS256. Required.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim embedded in every token.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTTTL is the token and session lifetime (e.g. "168h").
	JWTTTL string `mapstructure:"JWT_TTL"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// RateLimitPerSecond is the per-IP token bucket refill rate.
	RateLimitPerSecond int `mapstructure:"RATE_LIMIT_PER_SECOND"`
	// RateLimitBurst is the per-IP token bucket size.
	RateLimitBurst int `mapstructure:"RATE_LIMIT_BURST"`
	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64 `mapstructure:"MAX_BODY_BYTES"`
	// Env is the application environment ("development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// TokenTTL returns the parsed JWT/session lifetime.
func (c *Config) TokenTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.JWTTTL)
	if err != nil {
		return 0, fmt.Errorf("config: invalid JWT_TTL %q: %w", c.JWTTTL, err)
	}
	if d <= 0 {
		return 0, errors.New("config: JWT_TTL must be positive")
	}
	return d, nil
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored (e.g. in CI); env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "edubook-api")
	v.SetDefault("JWT_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("RATE_LIMIT_PER_SECOND", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("APP_ENV", "development")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}
	if _, err := cfg.TokenTTL(); err != nil {
		return nil, err
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("config: BCRYPT_COST %d out of range", cfg.BcryptCost)
	}
	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, errors.New("config: rate limit values must be positive")
	}

	return &cfg, nil
}
