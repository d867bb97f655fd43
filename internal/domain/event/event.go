package event

import (
	"fmt"
	"time"
)

type Type string

const (
	TypeCreated                   Type = "CREATED"
	TypeUpdated                   Type = "UPDATED"
	TypeDeleted                   Type = "DELETED"
	TypeBillingProvisioningFailed Type = "BILLING_PROVISIONING_FAILED"
)

// PatientEvent is the wire representation published to Kafka. It is
// immutable once constructed: OccurredAt is stamped at construction time
// and survives redelivery, so consumers can deduplicate on DedupKey.
// Name and Email are null for DELETED events.
type PatientEvent struct {
	PatientID  string    `json:"patientId"`
	EventType  Type      `json:"eventType"`
	Name       *string   `json:"name"`
	Email      *string   `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewPatientEvent(t Type, patientID string, name, email string) PatientEvent {
	e := PatientEvent{
		PatientID:  patientID,
		EventType:  t,
		OccurredAt: time.Now().UTC(),
	}
	if t != TypeDeleted {
		e.Name = &name
		e.Email = &email
	}
	return e
}

// DedupKey is the event identity key (patientId, eventType, occurredAt).
// The bus delivers at-least-once; a consumer seeing the same key twice
// must treat the second delivery as a no-op.
func (e PatientEvent) DedupKey() string {
	return fmt.Sprintf("%s|%s|%s", e.PatientID, e.EventType, e.OccurredAt.UTC().Format(time.RFC3339Nano))
}
