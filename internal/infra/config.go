package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string // optional; selects the redis kv backend when set

	ImageWebhookURL       string
	VideoWebhookURL       string
	VideoStatusWebhookURL string

	SubmitTimeout time.Duration // tripled when reference media is attached

	ImageGrace    time.Duration
	ImageInterval time.Duration
	ImageBudget   time.Duration
	VideoGrace    time.Duration
	VideoInterval time.Duration
	VideoBudget   time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	GeoIPDBPath    string
	DefaultLocale  string
	AllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		ImageWebhookURL:       os.Getenv("IMAGE_WEBHOOK_URL"),
		VideoWebhookURL:       os.Getenv("VIDEO_WEBHOOK_URL"),
		VideoStatusWebhookURL: os.Getenv("VIDEO_STATUS_WEBHOOK_URL"),

		SubmitTimeout: time.Second * time.Duration(getEnvInt("SUBMIT_TIMEOUT_SECONDS", 60)),

		ImageGrace:    time.Second * time.Duration(getEnvInt("IMAGE_POLL_GRACE_SECONDS", 180)),
		ImageInterval: time.Second * time.Duration(getEnvInt("IMAGE_POLL_INTERVAL_SECONDS", 30)),
		ImageBudget:   time.Second * time.Duration(getEnvInt("IMAGE_POLL_BUDGET_SECONDS", 480)),
		VideoGrace:    time.Second * time.Duration(getEnvInt("VIDEO_POLL_GRACE_SECONDS", 180)),
		VideoInterval: time.Second * time.Duration(getEnvInt("VIDEO_POLL_INTERVAL_SECONDS", 30)),
		VideoBudget:   time.Second * time.Duration(getEnvInt("VIDEO_POLL_BUDGET_SECONDS", 480)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),

		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "fr"),
		AllowedOrigins: splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.DatabaseURL == "" && cfg.RedisURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or REDIS_URL is required")
	}

	if cfg.ImageWebhookURL == "" {
		return nil, fmt.Errorf("IMAGE_WEBHOOK_URL is required")
	}

	if cfg.VideoWebhookURL == "" {
		return nil, fmt.Errorf("VIDEO_WEBHOOK_URL is required")
	}

	if cfg.VideoStatusWebhookURL == "" {
		cfg.VideoStatusWebhookURL = cfg.VideoWebhookURL + "/status"
	}

	return cfg, nil
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
