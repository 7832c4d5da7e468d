package config

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/flakewatch_test")
	t.Setenv("INGEST_TOKEN", "test-token")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("FLAKY_LOWER_BOUND", "")
	t.Setenv("FLAKY_UPPER_BOUND", "")
	t.Setenv("DEDUP_WINDOW", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 7430 {
		t.Errorf("port = %d, want 7430", cfg.HTTPPort)
	}
	if cfg.FlakyWindowDays != 30 || cfg.FlakySampleMax != 50 || cfg.FlakySampleMin != 10 {
		t.Errorf("unexpected classifier defaults: %+v", cfg)
	}
	if cfg.FlakyLowerBound != 0.10 || cfg.FlakyUpperBound != 0.90 {
		t.Errorf("bounds = [%v, %v], want [0.10, 0.90]", cfg.FlakyLowerBound, cfg.FlakyUpperBound)
	}
	if cfg.DedupWindow != 24*time.Hour {
		t.Errorf("dedup window = %v, want 24h", cfg.DedupWindow)
	}
	if cfg.SystemAccountID != uuid.Nil {
		t.Errorf("system account should default to nil, got %s", cfg.SystemAccountID)
	}
}

func TestLoad_RequiredVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("INGEST_TOKEN", "x")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("expected DATABASE_URL error, got %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/x")
	t.Setenv("INGEST_TOKEN", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "INGEST_TOKEN") {
		t.Errorf("expected INGEST_TOKEN error, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	systemID := uuid.New()
	t.Setenv("PORT", "8080")
	t.Setenv("SYSTEM_ACCOUNT_ID", systemID.String())
	t.Setenv("FLAKY_LOWER_BOUND", "0.05")
	t.Setenv("FLAKY_UPPER_BOUND", "0.95")
	t.Setenv("DEDUP_WINDOW", "48h")
	t.Setenv("PIPELINE_CONCURRENCY", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("port = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.SystemAccountID != systemID {
		t.Errorf("system account = %s, want %s", cfg.SystemAccountID, systemID)
	}
	if cfg.FlakyLowerBound != 0.05 || cfg.FlakyUpperBound != 0.95 {
		t.Errorf("bounds = [%v, %v]", cfg.FlakyLowerBound, cfg.FlakyUpperBound)
	}
	if cfg.DedupWindow != 48*time.Hour {
		t.Errorf("dedup window = %v, want 48h", cfg.DedupWindow)
	}
	if cfg.PipelineConcurrency != 8 {
		t.Errorf("concurrency = %d, want 8", cfg.PipelineConcurrency)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "http"},
		{"bad system account", "SYSTEM_ACCOUNT_ID", "not-a-uuid"},
		{"bad window", "FLAKY_WINDOW_DAYS", "month"},
		{"bad dedup window", "DEDUP_WINDOW", "1 day"},
		{"lower bound at zero", "FLAKY_LOWER_BOUND", "0"},
		{"upper bound at one", "FLAKY_UPPER_BOUND", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_InvertedBoundsRejected(t *testing.T) {
	setRequired(t)
	t.Setenv("FLAKY_LOWER_BOUND", "0.8")
	t.Setenv("FLAKY_UPPER_BOUND", "0.2")

	if _, err := Load(); err == nil {
		t.Error("expected error when lower >= upper")
	}
}
