// Package config loads and validates app config from env and an optional
// .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or a path
	// to a key file; paired with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or a path to a key file.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "pos-pairing").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "pos-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "1h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "720h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// ActivationCodeTTL is the issuance-to-expiry window for activation
	// codes (e.g. "24h").
	ActivationCodeTTL string `mapstructure:"CODE_TTL"`
	// ActivationMaxAttempts bounds failed redemption attempts per code.
	ActivationMaxAttempts int `mapstructure:"CODE_MAX_ATTEMPTS"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// LogLevel is the hclog level name (trace/debug/info/warn/error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored (e.g. in CI); env vars
// override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "pos-pairing")
	v.SetDefault("JWT_AUDIENCE", "pos-api")
	v.SetDefault("JWT_ACCESS_TTL", "1h")
	v.SetDefault("JWT_REFRESH_TTL", "720h") // 30d
	v.SetDefault("CODE_TTL", "24h")
	v.SetDefault("CODE_MAX_ATTEMPTS", 3)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.ActivationMaxAttempts < 1 {
		return nil, errors.New("config: CODE_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.AccessTTL() > cfg.RefreshTTL() {
		return nil, errors.New("config: JWT_ACCESS_TTL must not exceed JWT_REFRESH_TTL")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 1h if unset or
// invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 720h if unset
// or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTRefreshTTL)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}

// CodeTTL parses ActivationCodeTTL as a time.Duration. Returns 24h if unset
// or invalid.
func (c *Config) CodeTTL() time.Duration {
	d, err := time.ParseDuration(c.ActivationCodeTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
