package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/SRUJA-N/patient-management-system/internal/config"
	"github.com/SRUJA-N/patient-management-system/internal/infrastructure"
	"github.com/SRUJA-N/patient-management-system/internal/infrastructure/kafka"
	"github.com/SRUJA-N/patient-management-system/internal/infrastructure/postgres"
	"github.com/SRUJA-N/patient-management-system/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "outbox-relay").Logger()

	cfg, err := config.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("relay metrics listening on :9093")
		http.ListenAndServe(":9093", mux)
	}()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	outboxRepo := postgres.NewOutboxRepository(pgPool)

	producer := kafka.NewProducer(kafka.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer producer.Close()

	relay := worker.NewRelay(outboxRepo, producer, worker.Config{
		Interval:  cfg.Relay.Interval,
		BatchSize: cfg.Relay.BatchSize,
	}, logger)

	if err := relay.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("relay stopped with error")
	}

	logger.Info().Msg("relay exiting")
}
