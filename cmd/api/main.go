package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/api"
	"github.com/SRUJA-N/patient-management-system/internal/config"
	"github.com/SRUJA-N/patient-management-system/internal/infrastructure"
	"github.com/SRUJA-N/patient-management-system/internal/infrastructure/billingclient"
	"github.com/SRUJA-N/patient-management-system/internal/infrastructure/postgres"
	"github.com/SRUJA-N/patient-management-system/internal/usecase"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "patient-api").Logger()

	cfg, err := config.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	redisClient, err := infraFactory.Redis(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Repositories
	patientRepo := postgres.NewPatientRepository(pgPool)
	outboxRepo := postgres.NewOutboxRepository(pgPool)
	txManager := postgres.NewTxManager(pgPool)

	// Billing client: one long-lived HTTP client for the process.
	billingClient := billingclient.New(billingclient.Config{
		Address: cfg.Billing.Address,
		Timeout: cfg.Billing.Timeout,
	})
	defer billingClient.Close()

	// UseCases
	createPatientUC := usecase.NewCreatePatient(txManager, patientRepo, outboxRepo, billingClient,
		usecase.BillingPolicy{MaxAttempts: cfg.Billing.MaxAttempts, Backoff: cfg.Billing.Backoff}, logger)
	updatePatientUC := usecase.NewUpdatePatient(txManager, patientRepo, outboxRepo, logger)
	deletePatientUC := usecase.NewDeletePatient(txManager, patientRepo, outboxRepo, logger)
	getPatientUC := usecase.NewGetPatient(redisClient, patientRepo)
	listPatientsUC := usecase.NewListPatients(patientRepo)
	patientEventsUC := usecase.NewGetPatientEvents(outboxRepo)

	handlers := api.NewHandlers(createPatientUC, updatePatientUC, deletePatientUC,
		getPatientUC, listPatientsUC, patientEventsUC, logger)
	apiHandler := api.NewRouter(handlers, redisClient)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: apiHandler,
	}

	go func() {
		logger.Info().Str("port", cfg.HTTP.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exiting")
}
