package usecase

import (
	"context"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/apperror"
	"github.com/SRUJA-N/patient-management-system/internal/domain/billing"
	"github.com/SRUJA-N/patient-management-system/internal/domain/event"
	"github.com/SRUJA-N/patient-management-system/internal/domain/outbox"
	"github.com/SRUJA-N/patient-management-system/internal/domain/patient"
	"github.com/SRUJA-N/patient-management-system/internal/infrastructure/postgres"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	billingProvisionAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patient_billing_provision_attempts_total",
		Help: "The total number of billing provisioning call attempts",
	})
	billingProvisionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patient_billing_provisioning_failed_total",
		Help: "The total number of creates that completed without a billing account",
	})
)

// BillingStatusFailed is the compensation marker surfaced on a create
// whose billing provisioning did not succeed. The patient record exists
// and reconciliation is owed downstream.
const BillingStatusFailed = "PROVISIONING_FAILED"

type BillingPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

type CreatePatient struct {
	txManager   postgres.Transactor
	patientRepo patient.Repository
	outboxRepo  outbox.Repository
	provisioner billing.Provisioner
	policy      BillingPolicy
	logger      zerolog.Logger
}

func NewCreatePatient(
	txManager postgres.Transactor,
	patientRepo patient.Repository,
	outboxRepo outbox.Repository,
	provisioner billing.Provisioner,
	policy BillingPolicy,
	logger zerolog.Logger,
) *CreatePatient {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}
	if policy.Backoff <= 0 {
		policy.Backoff = 200 * time.Millisecond
	}
	return &CreatePatient{
		txManager:   txManager,
		patientRepo: patientRepo,
		outboxRepo:  outboxRepo,
		provisioner: provisioner,
		policy:      policy,
		logger:      logger,
	}
}

type CreatePatientParams struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Priority    int    `json:"priority" validate:"required,min=1,max=3"`
}

type CreatePatientResult struct {
	Patient          *patient.Patient
	BillingAccountID string
	BillingStatus    string
}

// Execute persists the patient and its CREATED event in one transaction,
// then provisions the billing account synchronously. Billing failure
// after retries does not undo the record: the create completes as a
// partial success carrying BillingStatusFailed, and a
// BILLING_PROVISIONING_FAILED event joins the stream.
func (uc *CreatePatient) Execute(ctx context.Context, params CreatePatientParams) (*CreatePatientResult, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	dob, err := parseDate("dateOfBirth", params.DateOfBirth)
	if err != nil {
		return nil, err
	}

	newPatient := &patient.Patient{
		Name:           params.Name,
		Email:          params.Email,
		PhoneNumber:    params.PhoneNumber,
		DateOfBirth:    dob,
		RegisteredDate: time.Now().UTC(),
		Priority:       params.Priority,
	}

	err = uc.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		// Pre-check is an optimization; the unique index on email is the
		// real arbiter for concurrent duplicates.
		exists, err := uc.patientRepo.ExistsByEmail(txCtx, newPatient.Email)
		if err != nil {
			return err
		}
		if exists {
			return apperror.Conflict("a patient with email %s already exists", newPatient.Email)
		}

		if err := uc.patientRepo.Create(txCtx, newPatient); err != nil {
			return err
		}

		created := event.NewPatientEvent(event.TypeCreated, newPatient.ID, newPatient.Name, newPatient.Email)
		outboxEvent, err := newOutboxEvent(created)
		if err != nil {
			return err
		}
		return uc.outboxRepo.Create(txCtx, outboxEvent)
	})
	if err != nil {
		return nil, err
	}

	result := &CreatePatientResult{Patient: newPatient}

	account, err := uc.provisionWithRetry(ctx, newPatient)
	if err != nil {
		uc.recordBillingFailure(ctx, newPatient, err)
		result.BillingStatus = BillingStatusFailed
		return result, nil
	}

	uc.logger.Info().
		Str("patient_id", newPatient.ID).
		Str("billing_account_id", account.AccountID).
		Str("billing_status", account.Status).
		Msg("billing account provisioned")

	result.BillingAccountID = account.AccountID
	result.BillingStatus = account.Status
	return result, nil
}

// provisionWithRetry issues the synchronous billing call with bounded
// exponential backoff. Only Unavailable is retryable; Rejected fails
// immediately. The per-attempt deadline lives in the client.
func (uc *CreatePatient) provisionWithRetry(ctx context.Context, p *patient.Patient) (*billing.Account, error) {
	var account *billing.Account
	var err error

	for attempt := 0; attempt < uc.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := uc.policy.Backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, apperror.Unavailable("billing call cancelled", ctx.Err())
			case <-time.After(backoff):
			}
		}

		billingProvisionAttempts.Inc()
		account, err = uc.provisioner.Provision(ctx, p.ID, p.Name, p.Email)
		if err == nil {
			return account, nil
		}

		if apperror.KindOf(err) != apperror.KindUnavailable {
			return nil, err
		}

		uc.logger.Warn().
			Err(err).
			Str("patient_id", p.ID).
			Int("attempt", attempt+1).
			Int("max_attempts", uc.policy.MaxAttempts).
			Msg("billing provisioning attempt failed")
	}

	return nil, err
}

func (uc *CreatePatient) recordBillingFailure(ctx context.Context, p *patient.Patient, cause error) {
	billingProvisionFailures.Inc()
	uc.logger.Error().
		Err(cause).
		Str("patient_id", p.ID).
		Str("email", p.Email).
		Msg("billing provisioning failed, patient kept for reconciliation")

	failure := event.NewPatientEvent(event.TypeBillingProvisioningFailed, p.ID, p.Name, p.Email)
	outboxEvent, err := newOutboxEvent(failure)
	if err != nil {
		uc.logger.Error().Err(err).Str("patient_id", p.ID).Msg("failed to build billing failure event")
		return
	}
	if err := uc.outboxRepo.Create(ctx, outboxEvent); err != nil {
		uc.logger.Error().Err(err).Str("patient_id", p.ID).Msg("failed to enqueue billing failure event")
	}
}
