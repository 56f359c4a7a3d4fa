package config

import (
	"testing"
	"time"
)

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_PUBLIC_BASE_URL",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_INVITE_TTL",
		"APP_SWEEP_INTERVAL",
		"APP_SWEEP_RETENTION",
		"DATABASE_URL",
		"NOTIFY_MODE",
		"NOTIFY_WEBHOOK_URL",
		"NOTIFY_TIMEOUT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.InviteTTL != 30*time.Minute {
		t.Fatalf("InviteTTL = %s, want 30m", cfg.InviteTTL)
	}
	if cfg.NotifyMode != "log" {
		t.Fatalf("NotifyMode = %q, want %q", cfg.NotifyMode, "log")
	}
	if cfg.MetricsNamespace != "parley" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "parley")
	}
	if cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin should default to false")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("APP_INVITE_TTL", "45m")
	t.Setenv("APP_SWEEP_INTERVAL", "0")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "true")
	t.Setenv("APP_PUBLIC_BASE_URL", "https://call.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.InviteTTL != 45*time.Minute {
		t.Fatalf("InviteTTL = %s, want 45m", cfg.InviteTTL)
	}
	if cfg.SweepInterval != 0 {
		t.Fatalf("SweepInterval = %s, want 0", cfg.SweepInterval)
	}
	if !cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin = false, want true")
	}
	if cfg.PublicBaseURL != "https://call.example.com" {
		t.Fatalf("PublicBaseURL = %q, want trailing slash trimmed", cfg.PublicBaseURL)
	}
}

func TestLoadRejectsShortTTL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_INVITE_TTL", "10s")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for TTL below 1m")
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error for APP_SHUTDOWN_TIMEOUT")
	}
}

func TestLoadRejectsMalformedBool(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "definitely")

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error for APP_ALLOW_ANY_ORIGIN")
	}
}
