// Package main is the entry point for the flakewatch API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flakewatch/internal/config"
	"flakewatch/internal/logger"
	"flakewatch/internal/notify"
	"flakewatch/internal/observability"
	"flakewatch/internal/rules"
	"flakewatch/internal/server"
	"flakewatch/internal/store/postgres"
	"flakewatch/internal/triage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New()

	ctx := context.Background()
	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer store.Close()

	if *migrateFlag {
		log.Println("Running database migrations...")
		if err := postgres.Migrate(store.DB()); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
	}

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "flakewatch", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	// Observable gauge backed by the store; queried only when scraped.
	meter := otel.Meter("flakewatch")
	_, err = meter.Int64ObservableGauge("flakewatch.defects.open",
		metric.WithDescription("Current number of open defects"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			count, err := store.CountOpenDefects(ctx)
			if err != nil {
				log.Printf("Failed to count open defects: %v", err)
				return nil // Don't crash metrics scrape on DB error
			}
			obs.Observe(count)
			return nil
		}),
	)
	if err != nil {
		log.Printf("Failed to register open-defects metric: %v", err)
	}

	// Triage pipeline wiring
	notifier := notify.NewWebhookNotifier(store, cfg.NotifyWebhookURL, slogger)
	engine := rules.New(store, store, notifier, slogger)
	classifier := triage.NewClassifier(store, engine, triage.ClassifierConfig{
		WindowDays: cfg.FlakyWindowDays,
		SampleMax:  cfg.FlakySampleMax,
		SampleMin:  cfg.FlakySampleMin,
		LowerBound: cfg.FlakyLowerBound,
		UpperBound: cfg.FlakyUpperBound,
	}, slogger)
	coordinator := triage.NewCoordinator(store, notifier, engine,
		cfg.SystemAccountID, cfg.DedupWindow, slogger)
	pipeline := triage.NewPipeline(classifier, coordinator, engine,
		cfg.PipelineConcurrency, slogger)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := server.New(addr, store, pipeline, cfg, metricsHandler, slogger)

	go func() {
		log.Printf("FlakeWatch server starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := pipeline.Shutdown(shutdownCtx); err != nil {
		log.Printf("Pipeline shutdown incomplete: %v", err)
	}
	log.Println("Server exited properly")
}
