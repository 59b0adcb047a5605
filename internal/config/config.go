// Package config loads JarvisFi configuration from the environment, an
// optional .env file, and an optional launcher YAML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration for the API server.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Services ExternalServices
	Limits   RateLimitConfig
	Locale   LocaleConfig
	Features FeatureFlags
}

// AppConfig identifies the application.
type AppConfig struct {
	Name        string `env:"APP_NAME,default=JarvisFi"`
	Version     string `env:"APP_VERSION,default=2.0.0"`
	Description string `env:"APP_DESCRIPTION,default=Your AI-Powered Financial Genius"`
	Environment string `env:"ENVIRONMENT,default=production"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST,default=0.0.0.0"`
	Port            int           `env:"SERVER_PORT,default=8000"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT,default=120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=text"`
	Output string `env:"LOG_OUTPUT,default=stdout"`
}

// DatabaseConfig holds PostgreSQL settings. An empty DSN selects the
// in-memory store.
type DatabaseConfig struct {
	DSN             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME,default=300s"`
}

// RedisConfig holds cache settings. An empty address selects the in-memory
// cache.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

// AuthConfig holds JWT and session settings.
type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET_KEY"`
	TokenTTL   time.Duration `env:"JWT_EXPIRE,default=24h"`
	Issuer     string        `env:"JWT_ISSUER,default=jarvisfi"`
	AdminEmail string        `env:"ADMIN_EMAIL"`
}

// ExternalServices points at the opaque AI, translation, voice, and weather
// backends. Empty endpoints disable the corresponding integration.
type ExternalServices struct {
	AdvisorURL     string `env:"ADVISOR_URL"`
	AdvisorKey     string `env:"ADVISOR_API_KEY"`
	TranslationURL string `env:"TRANSLATION_URL"`
	TranslationKey string `env:"TRANSLATION_API_KEY"`
	VoiceURL       string `env:"VOICE_URL"`
	VoiceKey       string `env:"VOICE_API_KEY"`
	WeatherURL     string `env:"WEATHER_API_URL"`
	WeatherKey     string `env:"WEATHER_API_KEY"`
}

// RateLimitConfig controls per-client request limiting.
type RateLimitConfig struct {
	RequestsPerSecond int `env:"RATE_LIMIT_RPS,default=10"`
	Burst             int `env:"RATE_LIMIT_BURST,default=20"`
}

// LocaleConfig controls languages and currency defaults.
type LocaleConfig struct {
	DefaultLanguage    string `env:"DEFAULT_LANGUAGE,default=en"`
	SupportedLanguages string `env:"SUPPORTED_LANGUAGES,default=en,ta,hi,te"`
	Currency           string `env:"CURRENCY,default=INR"`
}

// FeatureFlags toggles optional modules.
type FeatureFlags struct {
	VoiceEnabled     bool `env:"VOICE_ENABLED,default=true"`
	FarmerEnabled    bool `env:"FARMER_TOOLS_ENABLED,default=true"`
	CommunityEnabled bool `env:"COMMUNITY_FORUM_ENABLED,default=true"`
	AlertsEnabled    bool `env:"SMART_ALERTS_ENABLED,default=true"`
}

var validLanguages = map[string]bool{
	"en": true, "ta": true, "hi": true, "te": true,
	"bn": true, "gu": true, "kn": true, "ml": true,
	"mr": true, "or": true, "pa": true, "ur": true,
}

// Load reads .env when present, then decodes the environment.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}

	for _, lang := range c.SupportedLanguageList() {
		if !validLanguages[lang] {
			return fmt.Errorf("unsupported language %q", lang)
		}
	}
	if !c.LanguageSupported(c.Locale.DefaultLanguage) {
		return fmt.Errorf("default language %q not in supported set", c.Locale.DefaultLanguage)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Limits.RequestsPerSecond <= 0 || c.Limits.Burst <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}
	return nil
}

// SupportedLanguageList returns the configured language codes.
func (c *Config) SupportedLanguageList() []string {
	parts := strings.Split(c.Locale.SupportedLanguages, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
		}
	}
	return out
}

// LanguageSupported reports whether lang is in the configured set.
func (c *Config) LanguageSupported(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, supported := range c.SupportedLanguageList() {
		if supported == lang {
			return true
		}
	}
	return false
}

// Addr returns the host:port the server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
