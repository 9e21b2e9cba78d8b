// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, then 'go-playground/validator' for ranges and enums, then semantic
checks that need more than one field.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, limiter) via constructors.
  - Fail Fast: Every problem is a CONFIGURATION_ERROR returned before the server starts.
*/
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/sec"
)

// # Environments

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// PlaceholderSecret is the sample value shipped in example env files.
const PlaceholderSecret = "your-super-secret-key-change-this-in-production"

// MinSecretLength is the shortest JWT secret accepted in production.
const MinSecretLength = 32

// # Configuration Schema

// Config holds all runtime configuration for the Stockroom API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"        validate:"required,numeric"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development" validate:"oneof=development staging production test"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"INFO"        validate:"oneof=DEBUG INFO WARNING ERROR CRITICAL"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./migrations"`

	// Key-Value Store (Redis). Empty keeps the limiter and revocation list in memory.
	RedisURL string `env:"REDIS_URL"`

	// Token signing
	JWTSecret                string `env:"JWT_SECRET"`
	JWTIssuer                string `env:"JWT_ISSUER"                  envDefault:"stockroom.api" validate:"required"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"            validate:"min=1,max=1440"`
	RefreshTokenExpireDays   int    `env:"REFRESH_TOKEN_EXPIRE_DAYS"   envDefault:"7"             validate:"min=1,max=365"`

	// Password hashing
	PasswordHashAlgorithm string `env:"PASSWORD_HASH_ALGORITHM" envDefault:"bcrypt" validate:"oneof=bcrypt argon2id"`
	BcryptCost            int    `env:"BCRYPT_COST"             envDefault:"12"     validate:"min=4,max=31"`
	HashWorkers           int    `env:"HASH_WORKERS"            envDefault:"0"      validate:"min=0,max=256"`

	// Rate limiting
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60" validate:"min=1"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST"      envDefault:"0"  validate:"min=0"`

	// Honour X-Real-IP / X-Forwarded-For. Enable only behind a trusted proxy.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000"`

	// Extra exact paths served without authentication.
	PublicPaths []string `env:"PUBLIC_PATHS" envSeparator:","`

	// Role granted to self-registered users.
	DefaultRole string `env:"DEFAULT_ROLE" envDefault:"viewer" validate:"required"`

	// Request and upload bounds
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"  validate:"min=1024"`
	MaxFileSize  int64 `env:"MAX_FILE_SIZE"  envDefault:"10485760" validate:"min=1024"`

	// GeneratedSecret is set when a development secret was generated at load time.
	GeneratedSecret bool
}

// # Configuration Loading

// Load parses the process environment into a [Config].
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(options env.Options) (*Config, error) {
	cfg := &Config{}

	// 1. Environment mapping. Fails if any 'required' field is missing.
	if err := env.ParseWithOptions(cfg, options); err != nil {
		return nil, apperr.Configuration(fmt.Sprintf("failed to parse environment variables: %v", err))
	}

	// 2. Struct rules
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 3. Signing secret
	if err := cfg.resolveSecret(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) resolveSecret() error {
	unset := cfg.JWTSecret == "" || cfg.JWTSecret == PlaceholderSecret

	if cfg.IsProduction() {
		if unset || len(cfg.JWTSecret) < MinSecretLength {
			return apperr.Configuration(fmt.Sprintf("JWT_SECRET must be changed in production and be at least %d characters", MinSecretLength))
		}
		return nil
	}

	if unset {
		secret, err := randomSecret()
		if err != nil {
			return apperr.Configuration(fmt.Sprintf("failed to generate development secret: %v", err))
		}
		cfg.JWTSecret = secret
		cfg.GeneratedSecret = true
	}
	return nil
}

func randomSecret() (string, error) {
	buffer := make([]byte, MinSecretLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// # Accessors

// IsDevelopment reports whether the server is running in development mode.
func (cfg *Config) IsDevelopment() bool { return cfg.Environment == EnvDevelopment }

// IsProduction reports whether the server is running in production mode.
func (cfg *Config) IsProduction() bool { return cfg.Environment == EnvProduction }

// IsTest reports whether the server is running under tests.
func (cfg *Config) IsTest() bool { return cfg.Environment == EnvTest }

// AccessTTL is the lifetime of access tokens.
func (cfg *Config) AccessTTL() time.Duration {
	return time.Duration(cfg.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTTL is the lifetime of refresh tokens.
func (cfg *Config) RefreshTTL() time.Duration {
	return time.Duration(cfg.RefreshTokenExpireDays) * 24 * time.Hour
}

// HashAlgorithm is the algorithm used for new password hashes.
func (cfg *Config) HashAlgorithm() sec.Algorithm {
	return sec.Algorithm(cfg.PasswordHashAlgorithm)
}

// SlogLevel maps LOG_LEVEL onto slog. CRITICAL sits above ERROR.
func (cfg *Config) SlogLevel() slog.Level {
	switch cfg.LogLevel {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	case "CRITICAL":
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}
