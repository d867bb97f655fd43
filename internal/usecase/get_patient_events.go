package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/domain/event"
	"github.com/SRUJA-N/patient-management-system/internal/domain/outbox"
)

type PatientEventView struct {
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
	RecordedAt time.Time `json:"recordedAt"`
}

// GetPatientEvents is the audit view over the outbox: every event emitted
// for a patient and whether it has reached the bus yet. Events outlive the
// record, so the view still works after a delete.
type GetPatientEvents struct {
	outboxRepo outbox.Repository
}

func NewGetPatientEvents(outboxRepo outbox.Repository) *GetPatientEvents {
	return &GetPatientEvents{outboxRepo: outboxRepo}
}

func (uc *GetPatientEvents) Execute(ctx context.Context, patientID string) ([]*PatientEventView, error) {
	rows, err := uc.outboxRepo.ListByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	views := make([]*PatientEventView, 0, len(rows))
	for _, row := range rows {
		view := &PatientEventView{
			EventID:    row.ID,
			EventType:  row.EventType,
			Status:     row.Status,
			RecordedAt: row.CreatedAt,
		}
		var ev event.PatientEvent
		if err := json.Unmarshal(row.Payload, &ev); err == nil {
			view.OccurredAt = ev.OccurredAt
		}
		views = append(views, view)
	}

	return views, nil
}
