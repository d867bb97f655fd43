// Package analytics holds the consumer-side processing for the
// patient-events stream. The bus delivers at-least-once, so every event
// passes through the inbox before it counts: a redelivered event with a
// known (patientId, eventType, occurredAt) key is a no-op.
package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/domain/event"
	"github.com/SRUJA-N/patient-management-system/internal/domain/inbox"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_events_processed_total",
		Help: "The total number of patient events processed",
	}, []string{"event_type"})
	eventsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_events_duplicate_total",
		Help: "The total number of redelivered events dropped by the inbox",
	})
	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "analytics_processing_duration_seconds",
		Help:    "Time taken to process one patient event",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
	})
)

type Processor struct {
	inboxRepo    inbox.Repository
	consumerName string
	logger       zerolog.Logger
}

func NewProcessor(inboxRepo inbox.Repository, consumerName string, logger zerolog.Logger) *Processor {
	return &Processor{
		inboxRepo:    inboxRepo,
		consumerName: consumerName,
		logger:       logger,
	}
}

// Handle processes one message from the bus. A nil return means the
// offset can be committed; malformed payloads and unknown event types are
// logged and committed so they do not wedge the partition.
func (p *Processor) Handle(ctx context.Context, value []byte) error {
	started := time.Now()

	var ev event.PatientEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		p.logger.Error().Err(err).Msg("failed to unmarshal patient event")
		return nil
	}

	switch ev.EventType {
	case event.TypeCreated, event.TypeUpdated, event.TypeDeleted, event.TypeBillingProvisioningFailed:
	default:
		p.logger.Warn().Str("event_type", string(ev.EventType)).Msg("ignoring unknown event type")
		return nil
	}

	isNew, err := p.inboxRepo.SaveIfNotExists(ctx, &inbox.Record{
		Consumer:  p.consumerName,
		EventKey:  ev.DedupKey(),
		EventType: string(ev.EventType),
		PatientID: ev.PatientID,
	})
	if err != nil {
		return err
	}
	if !isNew {
		eventsDuplicate.Inc()
		p.logger.Debug().
			Str("event_key", ev.DedupKey()).
			Msg("duplicate delivery dropped")
		return nil
	}

	logEvent := p.logger.Info().
		Str("patient_id", ev.PatientID).
		Str("event_type", string(ev.EventType)).
		Time("occurred_at", ev.OccurredAt)
	if ev.Name != nil {
		logEvent = logEvent.Str("name", *ev.Name)
	}
	if ev.Email != nil {
		logEvent = logEvent.Str("email", *ev.Email)
	}

	switch ev.EventType {
	case event.TypeBillingProvisioningFailed:
		logEvent.Msg("patient billing provisioning failed, reconciliation required")
	default:
		logEvent.Msg("patient event received")
	}

	eventsProcessed.WithLabelValues(string(ev.EventType)).Inc()
	processingDuration.Observe(time.Since(started).Seconds())
	return nil
}
