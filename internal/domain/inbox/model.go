package inbox

import (
	"context"
	"time"
)

// Record is a consumer-side entry used for deduplication (Inbox pattern).
// EventKey is the event identity key (patientId|eventType|occurredAt).
type Record struct {
	Consumer    string    `json:"consumer"`
	EventKey    string    `json:"event_key"`
	EventType   string    `json:"event_type"`
	PatientID   string    `json:"patient_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

type Repository interface {
	// SaveIfNotExists returns true when the record is new, false when an
	// earlier delivery of the same event key was already processed.
	SaveIfNotExists(ctx context.Context, rec *Record) (bool, error)
}
