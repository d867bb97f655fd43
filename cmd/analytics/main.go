package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/analytics"
	"github.com/SRUJA-N/patient-management-system/internal/config"
	"github.com/SRUJA-N/patient-management-system/internal/infrastructure"
	"github.com/SRUJA-N/patient-management-system/internal/infrastructure/kafka"
	"github.com/SRUJA-N/patient-management-system/internal/infrastructure/postgres"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const consumerName = "analytics-service"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", consumerName).Logger()

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
		logger.Info().Msg("analytics metrics listening on :9091")
		http.ListenAndServe(":9091", mux)
	}()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	inboxRepo := postgres.NewInboxRepository(pgPool)
	processor := analytics.NewProcessor(inboxRepo, consumerName, logger)

	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = consumerName
	}
	kafkaConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, groupID)
	defer kafkaConsumer.Close()

	logger.Info().Str("group_id", groupID).Str("topic", cfg.Kafka.Topic).Msg("analytics consumer started")

	for {
		msg, err := kafkaConsumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error().Err(err).Msg("failed to fetch message")
			time.Sleep(1 * time.Second)
			continue
		}

		// Retry loop with doubling backoff; after maxRetries the message
		// is committed and dropped so one poison message cannot wedge the
		// partition.
		const maxRetries = 5
		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 {
				backoff := time.Duration(1<<attempt) * time.Second
				logger.Info().Int("attempt", attempt).Int("max", maxRetries).Dur("backoff", backoff).Msg("retrying message")
				time.Sleep(backoff)
			}

			processErr := processor.Handle(ctx, msg.Value)
			if processErr == nil {
				if err := kafkaConsumer.CommitMessages(ctx, msg); err != nil {
					logger.Error().Err(err).Msg("failed to commit kafka message")
				}
				break
			}

			logger.Error().Err(processErr).Msg("processing failed")
			if attempt == maxRetries {
				logger.Error().Int("retries", maxRetries).Err(processErr).Msg("dropping message after retries")
				if err := kafkaConsumer.CommitMessages(ctx, msg); err != nil {
					logger.Error().Err(err).Msg("failed to commit dropped message")
				}
			}
		}
	}

	logger.Info().Msg("analytics consumer exiting")
}
