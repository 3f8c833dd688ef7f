package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/poamaps/incident-etl/internal/adapter/http"
	kafkaadapter "github.com/poamaps/incident-etl/internal/adapter/kafka"
	"github.com/poamaps/incident-etl/internal/adapter/nominatim"
	"github.com/poamaps/incident-etl/internal/adapter/twitter"
	"github.com/poamaps/incident-etl/internal/config"
	"github.com/poamaps/incident-etl/internal/domain"
	"github.com/poamaps/incident-etl/internal/observability"
	"github.com/poamaps/incident-etl/internal/pipeline"
	"github.com/poamaps/incident-etl/internal/scheduler"
	"github.com/poamaps/incident-etl/internal/store"
)

func main() {
	// A local .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	search := twitter.NewClient(cfg, logger)

	// Geocoder decorators, inside-out: raw client, provider-mandated
	// throttle, then the cache so hits never pay the throttle.
	var geocoder domain.Geocoder = nominatim.NewClient(cfg, metrics, logger)
	geocoder = nominatim.NewThrottled(geocoder, cfg.GeocodeMinInterval, clock)
	geocoder = nominatim.NewCached(geocoder, cfg.GeocodeCacheSize, metrics)

	var publisher pipeline.EventPublisher = pipeline.NopPublisher{}
	var kafkaPub *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	replies := pipeline.NewReplyResolver(search, 0)
	ingestion := pipeline.NewIngestion(search, replies, geocoder, db, db, publisher, metrics, logger)
	retirement := pipeline.NewRetirement(replies, db, publisher, metrics, logger)

	sched := scheduler.New(clock, cfg.BusinessHoursOnly, metrics, logger)
	sched.Add(scheduler.Job{
		Name:          "ingest",
		Interval:      cfg.IngestInterval,
		BusinessHours: true,
		Run: func(ctx context.Context) error {
			_, err := ingestion.Run(ctx, clock.Now().Add(-cfg.IngestLookback))
			return err
		},
	})
	sched.Add(scheduler.Job{
		Name:          "remove_resolved",
		Interval:      cfg.RetireInterval,
		BusinessHours: true,
		Run: func(ctx context.Context) error {
			_, err := retirement.RemoveResolved(ctx)
			return err
		},
	})
	sched.Add(scheduler.Job{
		Name:     "remove_stale",
		Interval: cfg.StaleInterval,
		Run: func(ctx context.Context) error {
			_, err := retirement.RemoveStale(ctx, clock.Now().Add(-cfg.StaleWindow))
			return err
		},
	})
	sched.Add(scheduler.Job{
		Name:     "remove_bridge_lifts",
		Interval: cfg.StaleInterval,
		Run: func(ctx context.Context) error {
			_, err := retirement.RemoveBridgeLifts(ctx, clock.Now().Add(-cfg.BridgeLiftWindow))
			return err
		},
	})

	srv := httpadapter.NewServer(cfg, db, db, db, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
}
