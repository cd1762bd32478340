// Worker consumes role/assignment change events from Kafka and applies the
// corresponding permission cache rebuilds, keeping project-wide recomputation
// off the mutation path. Set DATABASE_URL, KAFKA_BROKERS, CHANGE_EVENTS_TOPIC,
// and KAFKA_GROUP_ID; set OTEL_EXPORTER_OTLP_ENDPOINT to export telemetry.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"construct-authz/core/internal/authz"
	"construct-authz/core/internal/config"
	"construct-authz/core/internal/db"
	"construct-authz/core/internal/events/consumer"
	"construct-authz/core/internal/telemetry"
	otelsetup "construct-authz/core/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("worker: DATABASE_URL is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "construct-authz-worker", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("worker: telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("worker: telemetry shutdown: %v", err)
		}
	}()

	metrics, err := telemetry.NewMetrics(providers.MeterProvider.Meter("construct-authz"))
	if err != nil {
		log.Fatalf("worker: metrics: %v", err)
	}

	engine := authz.New(ctx, database, authz.Options{Metrics: metrics})
	if err := engine.Warm(ctx); err != nil {
		log.Fatalf("worker: warm cache: %v", err)
	}

	c := consumer.NewKafkaConsumer(brokers, cfg.ChangeEventsTopic, cfg.KafkaGroupID, engine.Scheduler())
	defer c.Close()

	log.Printf("worker: consuming from %s (group %s)", cfg.ChangeEventsTopic, cfg.KafkaGroupID)
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("worker: %v", err)
	}
	log.Println("worker: stopped")
}
