package usecase

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/SRUJA-N/patient-management-system/internal/domain/billing"
	"github.com/SRUJA-N/patient-management-system/internal/domain/outbox"
	"github.com/SRUJA-N/patient-management-system/internal/domain/patient"

	"github.com/google/uuid"
)

// Compile-time checks that the mocks satisfy the contracts.
var (
	_ patient.Repository  = (*mockPatientRepo)(nil)
	_ outbox.Repository   = (*mockOutboxRepo)(nil)
	_ billing.Provisioner = (*mockProvisioner)(nil)
)

// passthroughTx runs the transactional function directly; the repos under
// test are in-memory so there is nothing to commit or roll back.
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	return tFunc(ctx)
}

type mockPatientRepo struct {
	CreateFunc                 func(ctx context.Context, p *patient.Patient) error
	GetByIDFunc                func(ctx context.Context, id string) (*patient.Patient, error)
	ListFunc                   func(ctx context.Context) ([]*patient.Patient, error)
	UpdateFunc                 func(ctx context.Context, p *patient.Patient) error
	DeleteFunc                 func(ctx context.Context, id string) error
	ExistsByIDFunc             func(ctx context.Context, id string) (bool, error)
	ExistsByEmailFunc          func(ctx context.Context, email string) (bool, error)
	ExistsByEmailExcludingFunc func(ctx context.Context, email, id string) (bool, error)

	CreateCallCount        int32
	UpdateCallCount        int32
	DeleteCallCount        int32
	ExistsByEmailCallCount int32
}

func (m *mockPatientRepo) Create(ctx context.Context, p *patient.Patient) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	// The store assigns identity on creation.
	p.ID = uuid.New().String()
	return nil
}

func (m *mockPatientRepo) GetByID(ctx context.Context, id string) (*patient.Patient, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented in mock")
}

func (m *mockPatientRepo) List(ctx context.Context) ([]*patient.Patient, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockPatientRepo) Update(ctx context.Context, p *patient.Patient) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	return nil
}

func (m *mockPatientRepo) Delete(ctx context.Context, id string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockPatientRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	if m.ExistsByIDFunc != nil {
		return m.ExistsByIDFunc(ctx, id)
	}
	return false, nil
}

func (m *mockPatientRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	atomic.AddInt32(&m.ExistsByEmailCallCount, 1)
	if m.ExistsByEmailFunc != nil {
		return m.ExistsByEmailFunc(ctx, email)
	}
	return false, nil
}

func (m *mockPatientRepo) ExistsByEmailExcluding(ctx context.Context, email, id string) (bool, error) {
	if m.ExistsByEmailExcludingFunc != nil {
		return m.ExistsByEmailExcludingFunc(ctx, email, id)
	}
	return false, nil
}

type mockOutboxRepo struct {
	CreateFunc func(ctx context.Context, e *outbox.Event) error

	Created []*outbox.Event
}

func (m *mockOutboxRepo) Create(ctx context.Context, e *outbox.Event) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, e); err != nil {
			return err
		}
	}
	m.Created = append(m.Created, e)
	return nil
}

func (m *mockOutboxRepo) FetchBatch(ctx context.Context, limit int) ([]*outbox.Event, error) {
	return nil, nil
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, ids []string) error { return nil }

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, ids []string) error { return nil }

func (m *mockOutboxRepo) ListByPatientID(ctx context.Context, patientID string) ([]*outbox.Event, error) {
	var events []*outbox.Event
	for _, e := range m.Created {
		if e.PatientID == patientID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *mockOutboxRepo) eventsOfType(eventType string) []*outbox.Event {
	var events []*outbox.Event
	for _, e := range m.Created {
		if e.EventType == eventType {
			events = append(events, e)
		}
	}
	return events
}

type mockProvisioner struct {
	ProvisionFunc func(ctx context.Context, patientID, name, email string) (*billing.Account, error)

	ProvisionCallCount int32
}

func (m *mockProvisioner) Provision(ctx context.Context, patientID, name, email string) (*billing.Account, error) {
	atomic.AddInt32(&m.ProvisionCallCount, 1)
	if m.ProvisionFunc != nil {
		return m.ProvisionFunc(ctx, patientID, name, email)
	}
	return &billing.Account{
		PatientID: patientID,
		AccountID: uuid.New().String(),
		Status:    billing.StatusActive,
	}, nil
}
