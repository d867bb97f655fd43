package outbox

import (
	"context"
	"time"
)

const (
	StatusNew        = "new"
	StatusProcessing = "processing"
	StatusPublished  = "published"
)

// Event is one outbox row. Payload holds the serialized wire event and is
// published to the bus verbatim; PatientID doubles as the partition key.
type Event struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	EventType string    `json:"event_type"`
	Payload   []byte    `json:"payload"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	Create(ctx context.Context, event *Event) error
	FetchBatch(ctx context.Context, limit int) ([]*Event, error)
	MarkPublished(ctx context.Context, ids []string) error
	MarkFailed(ctx context.Context, ids []string) error
	ListByPatientID(ctx context.Context, patientID string) ([]*Event, error)
}
