package config

import (
	"os"
	"strings"
	"testing"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAppEnv, "production")
	t.Setenv("TOKRI_DB_DSN", "host=localhost port=5432 user=tokri dbname=tokri sslmode=disable")
	t.Setenv("TOKRI_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TOKRI_RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("TOKRI_RAZORPAY_KEY_SECRET", "rzp_test_secret")
}

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if !cfg.App.IsProd() {
		t.Fatal("expected IsProd to be true")
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if cfg.Razorpay.BaseURL != "https://api.razorpay.com/v1" {
		t.Fatalf("unexpected Razorpay base URL: %q", cfg.Razorpay.BaseURL)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected error when app env is missing")
	}
}

func TestLoad_BuildsDSNFromParts(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("TOKRI_DB_DSN", "")
	t.Setenv("TOKRI_DB_HOST", "db.internal")
	t.Setenv("TOKRI_DB_USER", "tokri")
	t.Setenv("TOKRI_DB_NAME", "tokri_prod")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !strings.Contains(cfg.DB.DSN, "host=db.internal") || !strings.Contains(cfg.DB.DSN, "dbname=tokri_prod") {
		t.Fatalf("unexpected DSN %q", cfg.DB.DSN)
	}
}

func TestLoad_IncompleteDBConfig(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("TOKRI_DB_DSN", "")
	t.Setenv("TOKRI_DB_HOST", "db.internal")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DSN parts are missing")
	}
}
