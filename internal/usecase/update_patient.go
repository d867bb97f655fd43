package usecase

import (
	"context"

	"github.com/SRUJA-N/patient-management-system/internal/apperror"
	"github.com/SRUJA-N/patient-management-system/internal/domain/event"
	"github.com/SRUJA-N/patient-management-system/internal/domain/outbox"
	"github.com/SRUJA-N/patient-management-system/internal/domain/patient"
	"github.com/SRUJA-N/patient-management-system/internal/infrastructure/postgres"

	"github.com/rs/zerolog"
)

type UpdatePatient struct {
	txManager   postgres.Transactor
	patientRepo patient.Repository
	outboxRepo  outbox.Repository
	logger      zerolog.Logger
}

func NewUpdatePatient(
	txManager postgres.Transactor,
	patientRepo patient.Repository,
	outboxRepo outbox.Repository,
	logger zerolog.Logger,
) *UpdatePatient {
	return &UpdatePatient{
		txManager:   txManager,
		patientRepo: patientRepo,
		outboxRepo:  outboxRepo,
		logger:      logger,
	}
}

type UpdatePatientParams struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Priority    int    `json:"priority" validate:"required,min=1,max=3"`
}

// Execute applies the field changes and records the UPDATED event in the
// same transaction. Updates never call billing: the account identity does
// not change with patient details.
func (uc *UpdatePatient) Execute(ctx context.Context, id string, params UpdatePatientParams) (*patient.Patient, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	dob, err := parseDate("dateOfBirth", params.DateOfBirth)
	if err != nil {
		return nil, err
	}

	existing, err := uc.patientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = uc.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		taken, err := uc.patientRepo.ExistsByEmailExcluding(txCtx, params.Email, id)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict("a patient with email %s already exists", params.Email)
		}

		existing.Name = params.Name
		existing.Email = params.Email
		existing.PhoneNumber = params.PhoneNumber
		existing.DateOfBirth = dob
		existing.Priority = params.Priority

		if err := uc.patientRepo.Update(txCtx, existing); err != nil {
			return err
		}

		updated := event.NewPatientEvent(event.TypeUpdated, existing.ID, existing.Name, existing.Email)
		outboxEvent, err := newOutboxEvent(updated)
		if err != nil {
			return err
		}
		return uc.outboxRepo.Create(txCtx, outboxEvent)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("patient_id", existing.ID).
		Str("email", existing.Email).
		Msg("patient updated")

	return existing, nil
}
