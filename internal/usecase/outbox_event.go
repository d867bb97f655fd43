package usecase

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/domain/event"
	"github.com/SRUJA-N/patient-management-system/internal/domain/outbox"

	"github.com/google/uuid"
)

// newOutboxEvent serializes a wire event into an outbox row. The payload
// is what the relay publishes verbatim, keyed by PatientID.
func newOutboxEvent(ev event.PatientEvent) (*outbox.Event, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal patient event: %w", err)
	}

	return &outbox.Event{
		ID:        uuid.New().String(),
		PatientID: ev.PatientID,
		EventType: string(ev.EventType),
		Payload:   payload,
		Status:    outbox.StatusNew,
		CreatedAt: time.Now().UTC(),
	}, nil
}
