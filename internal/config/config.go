// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Image store backends.
const (
	ImageStoreLocal = "local"
	ImageStoreGCS   = "gcs"
)

// Config holds every setting of the server.
type Config struct {
	Port          int
	DBPath        string
	StaticPath    string
	CORSOrigin    string
	LogLevel      string
	MaxImageBytes int64

	ImageStore         string
	UploadsDir         string
	GCSBucket          string
	GCSCredentialsFile string

	RedisAddr    string
	RedisChannel string

	OpenAI OpenAI
}

// OpenAI configures bill extraction. An empty APIKey disables it.
type OpenAI struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float32
	MaxTokens   int
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnvInt("PORT", 8080),
		DBPath:        getEnv("DB_PATH", "./data/fairshare.db"),
		StaticPath:    getEnv("STATIC_PATH", "../frontend/build"),
		CORSOrigin:    getEnv("FRONTEND_URL", "*"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		MaxImageBytes: int64(getEnvInt("MAX_IMAGE_BYTES", 5<<20)),

		ImageStore:         strings.ToLower(getEnv("IMAGE_STORE", ImageStoreLocal)),
		UploadsDir:         getEnv("UPLOADS_DIR", "./data/uploads"),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		RedisChannel: getEnv("REDIS_CHANNEL", "fairshare-events"),

		OpenAI: OpenAI{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_API_BASE_URL", ""),
			Model:       getEnv("OPENAI_API_MODEL", "gpt-4o"),
			Timeout:     getEnvMillis("OPENAI_API_TIMEOUT", 10*time.Second),
			MaxRetries:  getEnvInt("OPENAI_API_MAX_RETRIES", 3),
			Temperature: float32(getEnvFloat("OPENAI_API_TEMPERATURE", 0)),
			MaxTokens:   getEnvInt("OPENAI_API_MAX_TOKENS", 8000),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ImageStore {
	case ImageStoreLocal:
	case ImageStoreGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when IMAGE_STORE=%s", ImageStoreGCS)
		}
	default:
		return fmt.Errorf("unknown IMAGE_STORE %q (want %s or %s)", c.ImageStore, ImageStoreLocal, ImageStoreGCS)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("invalid MAX_IMAGE_BYTES %d", c.MaxImageBytes)
	}
	if c.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("invalid OPENAI_API_MAX_RETRIES %d", c.OpenAI.MaxRetries)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Ignoring invalid integer setting", "key", key, "value", raw)
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		slog.Warn("Ignoring invalid float setting", "key", key, "value", raw)
		return fallback
	}
	return v
}

// getEnvMillis accepts a Go duration ("10s") or a bare number of milliseconds.
func getEnvMillis(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("Ignoring invalid duration setting", "key", key, "value", raw)
		return fallback
	}
	return d
}
