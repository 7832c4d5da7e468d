// Package config handles environment variable loading for ports, database strings, etc.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port
	HTTPPort int

	// Shared-secret bearer token for the ingestion endpoint
	IngestToken string

	// OTLP collector endpoint for traces
	OTELEndpoint string

	// Outbound webhook for notification delivery. Empty disables delivery;
	// notification records are still written.
	NotifyWebhookURL string

	// Account recorded as the reporter of auto-created defects
	SystemAccountID uuid.UUID

	// Flaky classification window and thresholds. Hand-tuned; kept as
	// configuration rather than constants.
	FlakyWindowDays int
	FlakySampleMax  int
	FlakySampleMin  int
	FlakyLowerBound float64
	FlakyUpperBound float64

	// One open defect per failing test within this window
	DedupWindow time.Duration

	// Max concurrent triage continuations
	PipelineConcurrency int

	// Ingestion rate limit (requests per second, token bucket)
	IngestRateLimit float64
	IngestRateBurst int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:            7430,
		OTELEndpoint:        "localhost:4317",
		FlakyWindowDays:     30,
		FlakySampleMax:      50,
		FlakySampleMin:      10,
		FlakyLowerBound:     0.10,
		FlakyUpperBound:     0.90,
		DedupWindow:         24 * time.Hour,
		PipelineConcurrency: 4,
		IngestRateLimit:     50,
		IngestRateBurst:     100,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required (env: DATABASE_URL)")
	}

	cfg.IngestToken = os.Getenv("INGEST_TOKEN")
	if cfg.IngestToken == "" {
		return nil, fmt.Errorf("ingest_token is required (env: INGEST_TOKEN)")
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.HTTPPort = p
	}

	if v := os.Getenv("OTEL_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}

	cfg.NotifyWebhookURL = os.Getenv("NOTIFY_WEBHOOK_URL")

	if v := os.Getenv("SYSTEM_ACCOUNT_ID"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SYSTEM_ACCOUNT_ID: %w", err)
		}
		cfg.SystemAccountID = id
	}

	if v := os.Getenv("FLAKY_WINDOW_DAYS"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FLAKY_WINDOW_DAYS: %w", err)
		}
		cfg.FlakyWindowDays = d
	}

	if v := os.Getenv("FLAKY_SAMPLE_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FLAKY_SAMPLE_MAX: %w", err)
		}
		cfg.FlakySampleMax = n
	}

	if v := os.Getenv("FLAKY_SAMPLE_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FLAKY_SAMPLE_MIN: %w", err)
		}
		cfg.FlakySampleMin = n
	}

	if v := os.Getenv("FLAKY_LOWER_BOUND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid FLAKY_LOWER_BOUND: %w", err)
		}
		cfg.FlakyLowerBound = f
	}

	if v := os.Getenv("FLAKY_UPPER_BOUND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid FLAKY_UPPER_BOUND: %w", err)
		}
		cfg.FlakyUpperBound = f
	}

	if cfg.FlakyLowerBound <= 0 || cfg.FlakyUpperBound >= 1 || cfg.FlakyLowerBound >= cfg.FlakyUpperBound {
		return nil, fmt.Errorf("flaky bounds must satisfy 0 < lower < upper < 1, got [%v, %v]",
			cfg.FlakyLowerBound, cfg.FlakyUpperBound)
	}

	if v := os.Getenv("DEDUP_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DEDUP_WINDOW: %w", err)
		}
		cfg.DedupWindow = d
	}

	if v := os.Getenv("PIPELINE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PIPELINE_CONCURRENCY: %w", err)
		}
		cfg.PipelineConcurrency = n
	}

	if v := os.Getenv("INGEST_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid INGEST_RATE_LIMIT: %w", err)
		}
		cfg.IngestRateLimit = f
	}

	if v := os.Getenv("INGEST_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid INGEST_RATE_BURST: %w", err)
		}
		cfg.IngestRateBurst = n
	}

	return cfg, nil
}
