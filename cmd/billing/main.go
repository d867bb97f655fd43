// The billing service provisions billing accounts for patients. The
// patient service calls it synchronously during create; account records
// live on this side of the boundary.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	ChiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type provisionRequest struct {
	PatientID string `json:"patientId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

type provisionResponse struct {
	AccountID string `json:"accountId"`
	Status    string `json:"status"`
}

// accountStore keeps provisioning idempotent per patient: a repeated
// provision call returns the existing account instead of minting a new
// id.
type accountStore struct {
	mu       sync.Mutex
	accounts map[string]string // patientID -> accountID
}

func (s *accountStore) provision(patientID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.accounts[patientID]; ok {
		return id
	}
	id := uuid.New().String()
	s.accounts[patientID] = id
	return id
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "billing-service").Logger()

	port := os.Getenv("BILLING_PORT")
	if port == "" {
		port = "9001"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := &accountStore{accounts: make(map[string]string)}

	r := chi.NewRouter()
	r.Use(ChiMiddleware.Recoverer)
	r.Use(ChiMiddleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Post("/accounts", func(w http.ResponseWriter, r *http.Request) {
		var req provisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.PatientID == "" || req.Email == "" {
			http.Error(w, `{"error": "patientId and email are required"}`, http.StatusUnprocessableEntity)
			return
		}

		accountID := store.provision(req.PatientID)
		logger.Info().
			Str("patient_id", req.PatientID).
			Str("account_id", accountID).
			Str("email", req.Email).
			Msg("billing account provisioned")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(provisionResponse{
			AccountID: accountID,
			Status:    "ACTIVE",
		})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Info().Str("port", port).Msg("billing service starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down billing service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}
}
