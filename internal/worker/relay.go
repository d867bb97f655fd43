// Package worker contains the outbox relay: the dispatcher half of the
// transactional outbox. Mutations enqueue events in the same transaction
// as the state change; the relay drains them to the bus with
// at-least-once delivery.
package worker

import (
	"context"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/domain/outbox"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_outbox_events_published_total",
		Help: "The total number of events published to Kafka",
	})
	publishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_outbox_publish_errors_total",
		Help: "The total number of failed publish attempts",
	})
)

// Publisher is the bus write port. The production implementation is the
// Kafka producer with a hash balancer over the message key.
type Publisher interface {
	SendMessage(ctx context.Context, key, value []byte) error
	GetTopic() string
}

type Config struct {
	Interval  time.Duration
	BatchSize int
}

type Relay struct {
	outboxRepo outbox.Repository
	publisher  Publisher
	cfg        Config
	logger     zerolog.Logger
}

func NewRelay(outboxRepo outbox.Repository, publisher Publisher, cfg Config, logger zerolog.Logger) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Relay{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.logger.Info().Str("topic", r.publisher.GetTopic()).Msg("outbox relay started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.ProcessBatch(ctx); err != nil {
				r.logger.Error().Err(err).Msg("failed to process outbox batch")
			}
		}
	}
}

// ProcessBatch claims pending rows and publishes each keyed by patient id.
// The stored payload goes out verbatim; occurredAt was stamped when the
// event was built, so redelivered events keep their dedup key. Publish
// failures return rows to 'new' for the next poll.
func (r *Relay) ProcessBatch(ctx context.Context) error {
	events, err := r.outboxRepo.FetchBatch(ctx, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	var publishedIDs []string
	var failedIDs []string

	for _, e := range events {
		sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := r.publisher.SendMessage(sendCtx, []byte(e.PatientID), e.Payload)
		cancel()

		if err != nil {
			r.logger.Error().
				Err(err).
				Str("event_id", e.ID).
				Str("patient_id", e.PatientID).
				Str("event_type", e.EventType).
				Msg("failed to publish event")
			publishErrors.Inc()
			failedIDs = append(failedIDs, e.ID)
			continue
		}

		eventsPublished.Inc()
		r.logger.Info().
			Str("event_id", e.ID).
			Str("patient_id", e.PatientID).
			Str("event_type", e.EventType).
			Msg("event published")
		publishedIDs = append(publishedIDs, e.ID)
	}

	// Reset failed rows before marking published ones: a MarkPublished
	// error must not strand failed rows in 'processing', where no poll
	// would ever reclaim them.
	if len(failedIDs) > 0 {
		if err := r.outboxRepo.MarkFailed(ctx, failedIDs); err != nil {
			r.logger.Error().Err(err).Msg("failed to reset failed events")
		}
	}

	if len(publishedIDs) > 0 {
		if err := r.outboxRepo.MarkPublished(ctx, publishedIDs); err != nil {
			return err
		}
	}

	return nil
}
