package api

import (
	"net/http"

	"github.com/SRUJA-N/patient-management-system/internal/api/middleware"

	"github.com/go-chi/chi/v5"
	ChiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func NewRouter(h *Handlers, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(ChiMiddleware.Logger)
	r.Use(ChiMiddleware.Recoverer)
	r.Use(ChiMiddleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/patients", func(r chi.Router) {
		r.With(middleware.Idempotency(redisClient)).Post("/", h.CreatePatient)
		r.Get("/", h.ListPatients)
		r.Get("/{id}", h.GetPatient)
		r.Put("/{id}", h.UpdatePatient)
		r.Delete("/{id}", h.DeletePatient)
		r.Get("/{id}/events", h.GetPatientEvents)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
