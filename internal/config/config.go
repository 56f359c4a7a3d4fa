package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the invitation service.
type Config struct {
	BindAddr         string
	PublicBaseURL    string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	InviteTTL      time.Duration
	SweepInterval  time.Duration
	SweepRetention time.Duration

	DatabaseURL string

	NotifyMode       string
	NotifyWebhookURL string
	NotifyTimeout    time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		PublicBaseURL:    envOrDefault("APP_PUBLIC_BASE_URL", "http://localhost:8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "parley"),
		AllowAnyOrigin:   false,
		InviteTTL:        30 * time.Minute,
		SweepInterval:    5 * time.Minute,
		SweepRetention:   time.Hour,
		DatabaseURL:      envTrimmed("DATABASE_URL"),
		NotifyMode:       envOrDefault("NOTIFY_MODE", "log"),
		NotifyWebhookURL: envTrimmed("NOTIFY_WEBHOOK_URL"),
		NotifyTimeout:    5 * time.Second,
		ShutdownTimeout:  15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.InviteTTL, err = durationFromEnv("APP_INVITE_TTL", cfg.InviteTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.SweepInterval, err = durationFromEnv("APP_SWEEP_INTERVAL", cfg.SweepInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.SweepRetention, err = durationFromEnv("APP_SWEEP_RETENTION", cfg.SweepRetention)
	if err != nil {
		return Config{}, err
	}
	cfg.NotifyTimeout, err = durationFromEnv("NOTIFY_TIMEOUT", cfg.NotifyTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.InviteTTL < time.Minute {
		return Config{}, fmt.Errorf("APP_INVITE_TTL must be at least 1m")
	}
	if cfg.SweepInterval < 0 {
		return Config{}, fmt.Errorf("APP_SWEEP_INTERVAL must be >= 0 (0 disables the sweeper)")
	}
	if cfg.SweepRetention < 0 {
		return Config{}, fmt.Errorf("APP_SWEEP_RETENTION must be >= 0")
	}
	if strings.TrimSpace(cfg.PublicBaseURL) == "" {
		return Config{}, fmt.Errorf("APP_PUBLIC_BASE_URL must not be empty")
	}

	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
