// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
	"kpp-development-secret-key-change",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"KPP_DB_PATH" envDefault:"./data/kpp.db"`
	SecretKey  string `env:"KPP_SECRET_KEY,required"`
	ServerHost string `env:"KPP_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"KPP_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"KPP_ENV" envDefault:"development"`
	LogLevel   string `env:"KPP_LOG_LEVEL" envDefault:"info"`
	SiteURL    string `env:"KPP_SITE_URL" envDefault:"http://localhost:8080"`
	UploadsDir string `env:"KPP_UPLOADS_DIR" envDefault:"./uploads"`

	// Uploads and tokens
	MaxUploadMB int           `env:"KPP_MAX_UPLOAD_MB" envDefault:"20"`
	TokenTTL    time.Duration `env:"KPP_TOKEN_TTL" envDefault:"24h"`

	// Backups
	BackupDir      string `env:"KPP_BACKUP_DIR" envDefault:"./data/backups"`
	BackupSchedule string `env:"KPP_BACKUP_SCHEDULE" envDefault:"0 3 * * *"` // Empty disables scheduled backups
	BackupKeep     int    `env:"KPP_BACKUP_KEEP" envDefault:"14"`

	// Cache configuration
	RedisURL     string `env:"KPP_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"KPP_CACHE_PREFIX" envDefault:"kpp:"`    // Redis key prefix
	CacheTTL     int    `env:"KPP_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"KPP_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Analytics
	GeoIPDBPath   string `env:"KPP_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file
	AnalyticsSalt string `env:"KPP_ANALYTICS_SALT"`

	// Retention of append-only tables, in days
	RetentionAuditDays     int `env:"KPP_RETENTION_AUDIT_DAYS" envDefault:"365"`
	RetentionLogDays       int `env:"KPP_RETENTION_LOG_DAYS" envDefault:"90"`
	RetentionAnalyticsDays int `env:"KPP_RETENTION_ANALYTICS_DAYS" envDefault:"180"`

	// Seeding configuration
	DoSeed        bool   `env:"KPP_DO_SEED" envDefault:"false"`
	AdminEmail    string `env:"KPP_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"KPP_ADMIN_PASSWORD" envDefault:"changeme"`

	TrustedOrigins []string `env:"KPP_TRUSTED_ORIGINS" envSeparator:","`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// MinSecretKeyLength is the minimum required length for the secret key.
// It signs admin tokens and keys the session and CSRF cookies.
const MinSecretKeyLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SecretKey) < MinSecretKeyLength {
		return nil, fmt.Errorf("KPP_SECRET_KEY must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSecretKeyLength, len(cfg.SecretKey))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SecretKey == weak {
			return nil, fmt.Errorf("KPP_SECRET_KEY is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SecretKey) {
		slog.Warn("KPP_SECRET_KEY has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("KPP_MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}
	if cfg.TokenTTL < time.Minute {
		return nil, fmt.Errorf("KPP_TOKEN_TTL must be at least 1m, got %s", cfg.TokenTTL)
	}

	// Analytics hashes fall back to the secret so visitor IDs stay stable across restarts.
	if cfg.AnalyticsSalt == "" {
		cfg.AnalyticsSalt = cfg.SecretKey
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
