package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/apperror"
	"github.com/SRUJA-N/patient-management-system/internal/domain/billing"
	"github.com/SRUJA-N/patient-management-system/internal/domain/event"
	"github.com/SRUJA-N/patient-management-system/internal/domain/patient"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func validCreateParams() CreatePatientParams {
	return CreatePatientParams{
		Name:        "Ann",
		Email:       "ann@x.com",
		PhoneNumber: "555",
		DateOfBirth: "1990-01-01",
		Priority:    2,
	}
}

func newCreateUC(repo *mockPatientRepo, ob *mockOutboxRepo, prov *mockProvisioner) *CreatePatient {
	return NewCreatePatient(passthroughTx{}, repo, ob, prov,
		BillingPolicy{MaxAttempts: 3, Backoff: time.Millisecond}, testLogger())
}

func TestCreatePatient_Success(t *testing.T) {
	repo := &mockPatientRepo{}
	ob := &mockOutboxRepo{}
	prov := &mockProvisioner{}
	uc := newCreateUC(repo, ob, prov)

	result, err := uc.Execute(context.Background(), validCreateParams())
	require.NoError(t, err)
	require.NotNil(t, result.Patient)

	assert.NotEmpty(t, result.Patient.ID, "store should assign an id")
	assert.Equal(t, "ann@x.com", result.Patient.Email)
	assert.Equal(t, billing.StatusActive, result.BillingStatus)
	assert.NotEmpty(t, result.BillingAccountID)

	assert.Equal(t, int32(1), prov.ProvisionCallCount, "exactly one provision call")

	created := ob.eventsOfType(string(event.TypeCreated))
	require.Len(t, created, 1, "exactly one CREATED event")
	assert.Equal(t, result.Patient.ID, created[0].PatientID)

	var ev event.PatientEvent
	require.NoError(t, json.Unmarshal(created[0].Payload, &ev))
	assert.Equal(t, result.Patient.ID, ev.PatientID)
	require.NotNil(t, ev.Email)
	assert.Equal(t, "ann@x.com", *ev.Email)
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestCreatePatient_DuplicateEmail(t *testing.T) {
	repo := &mockPatientRepo{
		ExistsByEmailFunc: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	ob := &mockOutboxRepo{}
	prov := &mockProvisioner{}
	uc := newCreateUC(repo, ob, prov)

	_, err := uc.Execute(context.Background(), validCreateParams())
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	assert.Equal(t, int32(0), repo.CreateCallCount, "no insert on duplicate email")
	assert.Equal(t, int32(0), prov.ProvisionCallCount, "no billing call on conflict")
	assert.Empty(t, ob.Created, "no events on conflict")
}

// A concurrent duplicate slips past the pre-check; the store's unique
// index rejects the insert and the caller still sees Conflict.
func TestCreatePatient_ConcurrentDuplicateEmail(t *testing.T) {
	repo := &mockPatientRepo{
		CreateFunc: func(ctx context.Context, p *patient.Patient) error {
			return apperror.Conflict("a patient with email %s already exists", p.Email)
		},
	}
	ob := &mockOutboxRepo{}
	prov := &mockProvisioner{}
	uc := newCreateUC(repo, ob, prov)

	_, err := uc.Execute(context.Background(), validCreateParams())
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, int32(0), prov.ProvisionCallCount)
}

func TestCreatePatient_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *CreatePatientParams)
	}{
		{"missing name", func(p *CreatePatientParams) { p.Name = "" }},
		{"missing email", func(p *CreatePatientParams) { p.Email = "" }},
		{"malformed email", func(p *CreatePatientParams) { p.Email = "not-an-email" }},
		{"missing phone", func(p *CreatePatientParams) { p.PhoneNumber = "" }},
		{"bad dob", func(p *CreatePatientParams) { p.DateOfBirth = "01/01/1990" }},
		{"priority too low", func(p *CreatePatientParams) { p.Priority = 0 }},
		{"priority too high", func(p *CreatePatientParams) { p.Priority = 4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockPatientRepo{}
			ob := &mockOutboxRepo{}
			prov := &mockProvisioner{}
			uc := newCreateUC(repo, ob, prov)

			params := validCreateParams()
			tt.mutate(&params)

			_, err := uc.Execute(context.Background(), params)
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.Equal(t, int32(0), repo.ExistsByEmailCallCount, "validation precedes store access")
			assert.Equal(t, int32(0), repo.CreateCallCount)
		})
	}
}

func TestCreatePatient_BillingUnavailable_PartialSuccess(t *testing.T) {
	repo := &mockPatientRepo{}
	ob := &mockOutboxRepo{}
	prov := &mockProvisioner{
		ProvisionFunc: func(ctx context.Context, patientID, name, email string) (*billing.Account, error) {
			return nil, apperror.Unavailable("billing service unreachable", nil)
		},
	}
	uc := newCreateUC(repo, ob, prov)

	result, err := uc.Execute(context.Background(), validCreateParams())
	require.NoError(t, err, "billing failure is a partial success, not an error")

	assert.Equal(t, int32(3), prov.ProvisionCallCount, "bounded retries")
	assert.Equal(t, BillingStatusFailed, result.BillingStatus)
	assert.Empty(t, result.BillingAccountID, "no fabricated account id")
	assert.Equal(t, int32(0), repo.DeleteCallCount, "record is never rolled back")

	require.Len(t, ob.eventsOfType(string(event.TypeCreated)), 1)
	failures := ob.eventsOfType(string(event.TypeBillingProvisioningFailed))
	require.Len(t, failures, 1, "failure event emitted")
	assert.Equal(t, result.Patient.ID, failures[0].PatientID)
}

func TestCreatePatient_BillingRejected_NoRetry(t *testing.T) {
	repo := &mockPatientRepo{}
	ob := &mockOutboxRepo{}
	prov := &mockProvisioner{
		ProvisionFunc: func(ctx context.Context, patientID, name, email string) (*billing.Account, error) {
			return nil, apperror.Rejected("malformed request", nil)
		},
	}
	uc := newCreateUC(repo, ob, prov)

	result, err := uc.Execute(context.Background(), validCreateParams())
	require.NoError(t, err)

	assert.Equal(t, int32(1), prov.ProvisionCallCount, "rejections are not retried")
	assert.Equal(t, BillingStatusFailed, result.BillingStatus)
	require.Len(t, ob.eventsOfType(string(event.TypeBillingProvisioningFailed)), 1)
}

func TestCreatePatient_StoreUnavailable(t *testing.T) {
	repo := &mockPatientRepo{
		CreateFunc: func(ctx context.Context, p *patient.Patient) error {
			return apperror.Unavailable("insert patient", nil)
		},
	}
	ob := &mockOutboxRepo{}
	prov := &mockProvisioner{}
	uc := newCreateUC(repo, ob, prov)

	_, err := uc.Execute(context.Background(), validCreateParams())
	require.Error(t, err)
	assert.Equal(t, apperror.KindUnavailable, apperror.KindOf(err))
	assert.Equal(t, int32(0), prov.ProvisionCallCount, "nothing to compensate, no billing call")
}

// Each operation instance stamps its own occurredAt, so the dedup keys of
// all events produced by one create are unique.
func TestCreatePatient_EventDedupKeysUnique(t *testing.T) {
	repo := &mockPatientRepo{}
	ob := &mockOutboxRepo{}
	prov := &mockProvisioner{
		ProvisionFunc: func(ctx context.Context, patientID, name, email string) (*billing.Account, error) {
			return nil, apperror.Rejected("nope", nil)
		},
	}
	uc := newCreateUC(repo, ob, prov)

	_, err := uc.Execute(context.Background(), validCreateParams())
	require.NoError(t, err)
	require.Len(t, ob.Created, 2)

	keys := make(map[string]struct{})
	for _, row := range ob.Created {
		var ev event.PatientEvent
		require.NoError(t, json.Unmarshal(row.Payload, &ev))
		keys[ev.DedupKey()] = struct{}{}
	}
	assert.Len(t, keys, 2, "dedup keys must not collide within one operation")
}
