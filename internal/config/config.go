// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the concierge site configuration from environment variables.
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
}

// Chat provider identifiers.
const (
	ChatProviderGemini = "gemini"
	ChatProviderOpenAI = "openai"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"CONCIERGE_DB_PATH" envDefault:"./data/concierge.db"`
	SessionSecret string `env:"CONCIERGE_SESSION_SECRET,required"`
	ServerHost    string `env:"CONCIERGE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"CONCIERGE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"CONCIERGE_ENV" envDefault:"development"`
	LogLevel      string `env:"CONCIERGE_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"CONCIERGE_UPLOADS_DIR" envDefault:"./uploads"`
	SiteURL       string `env:"CONCIERGE_SITE_URL" envDefault:"http://localhost:8080"`
	BrandName     string `env:"CONCIERGE_BRAND_NAME" envDefault:"Riviera Concierge"`
	DefaultLang   string `env:"CONCIERGE_DEFAULT_LANG" envDefault:"en"`

	// Cache configuration
	RedisURL     string `env:"CONCIERGE_REDIS_URL"`                           // Optional Redis URL for distributed caching
	CachePrefix  string `env:"CONCIERGE_CACHE_PREFIX" envDefault:"concierge:"` // Redis key prefix
	CacheTTL     int    `env:"CONCIERGE_CACHE_TTL" envDefault:"600"`           // Catalog cache TTL in seconds
	CacheMaxSize int    `env:"CONCIERGE_CACHE_MAX_SIZE" envDefault:"10000"`    // Max memory cache entries

	// Remote catalog backend
	BackendURL     string        `env:"CONCIERGE_BACKEND_URL"`
	BackendToken   string        `env:"CONCIERGE_BACKEND_TOKEN"`
	BackendTimeout time.Duration `env:"CONCIERGE_BACKEND_TIMEOUT" envDefault:"8s"`

	// Inquiries
	FormRelayURL string `env:"CONCIERGE_FORM_RELAY_URL"`
	ContactEmail string `env:"CONCIERGE_CONTACT_EMAIL" envDefault:"reservations@example.com"`

	// hCaptcha configuration
	HCaptchaSiteKey   string `env:"CONCIERGE_HCAPTCHA_SITE_KEY"`
	HCaptchaSecretKey string `env:"CONCIERGE_HCAPTCHA_SECRET_KEY"`

	// Chat assistant
	ChatProvider       string        `env:"CONCIERGE_CHAT_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey       string        `env:"CONCIERGE_GEMINI_API_KEY"`
	GeminiModel        string        `env:"CONCIERGE_GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	OpenAIAPIKey       string        `env:"CONCIERGE_OPENAI_API_KEY"`
	OpenAIModel        string        `env:"CONCIERGE_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL      string        `env:"CONCIERGE_OPENAI_BASE_URL"`
	ChatMaxHistory     int           `env:"CONCIERGE_CHAT_MAX_HISTORY" envDefault:"12"`
	ChatMaxMessageLen  int           `env:"CONCIERGE_CHAT_MAX_MESSAGE_LEN" envDefault:"2000"`
	ChatRateLimit      float64       `env:"CONCIERGE_CHAT_RATE_LIMIT" envDefault:"0.2"` // requests per second per IP
	ChatRateBurst      int           `env:"CONCIERGE_CHAT_RATE_BURST" envDefault:"5"`
	ChatRequestTimeout time.Duration `env:"CONCIERGE_CHAT_TIMEOUT" envDefault:"30s"`

	// Audit / analytics
	GeoIPDBPath        string `env:"CONCIERGE_GEOIP_DB_PATH"`
	AuditRetentionDays int    `env:"CONCIERGE_AUDIT_RETENTION_DAYS" envDefault:"90"`
	AuditForward       bool   `env:"CONCIERGE_AUDIT_FORWARD" envDefault:"false"`

	// VIP directory bootstrap
	AdminEmail    string        `env:"CONCIERGE_ADMIN_EMAIL"`
	AdminPassword string        `env:"CONCIERGE_ADMIN_PASSWORD"`
	AdminName     string        `env:"CONCIERGE_ADMIN_NAME" envDefault:"Administrator"`
	APITokenTTL   time.Duration `env:"CONCIERGE_API_TOKEN_TTL" envDefault:"24h"`

	// Seeding configuration
	DoSeed bool `env:"CONCIERGE_DO_SEED" envDefault:"true"` // Seed demo catalog on empty database
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

// HCaptchaEnabled returns true if hCaptcha is configured.
func (c Config) HCaptchaEnabled() bool {
	return c.HCaptchaSiteKey != "" && c.HCaptchaSecretKey != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// BackendEnabled returns true if a remote catalog backend is configured.
func (c Config) BackendEnabled() bool {
	return c.BackendURL != ""
}

// RelayEnabled returns true if inquiries are forwarded to a form relay.
func (c Config) RelayEnabled() bool {
	return c.FormRelayURL != ""
}

// ChatEnabled returns true if the configured chat provider has credentials.
func (c Config) ChatEnabled() bool {
	switch c.ChatProvider {
	case ChatProviderGemini:
		return c.GeminiAPIKey != ""
	case ChatProviderOpenAI:
		return c.OpenAIAPIKey != ""
	default:
		return false
	}
}

// CacheTTLDuration returns the catalog cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// MinSessionSecretLength is the minimum required length for the session secret.
// The same secret signs API tokens, so HS256 needs at least 32 bytes.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("CONCIERGE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("CONCIERGE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("CONCIERGE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("CONCIERGE_ENV must be development or production, got %q", c.Env)
	}

	c.ChatProvider = strings.ToLower(strings.TrimSpace(c.ChatProvider))
	if c.ChatProvider != ChatProviderGemini && c.ChatProvider != ChatProviderOpenAI {
		return fmt.Errorf("CONCIERGE_CHAT_PROVIDER must be %q or %q, got %q",
			ChatProviderGemini, ChatProviderOpenAI, c.ChatProvider)
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("CONCIERGE_ADMIN_EMAIL and CONCIERGE_ADMIN_PASSWORD must be set together")
	}

	if c.AuditRetentionDays < 1 {
		c.AuditRetentionDays = 1
	}
	c.SiteURL = strings.TrimSuffix(c.SiteURL, "/")
	c.BackendURL = strings.TrimSuffix(c.BackendURL, "/")

	return nil
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
