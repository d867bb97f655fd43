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

type DeletePatient struct {
	txManager   postgres.Transactor
	patientRepo patient.Repository
	outboxRepo  outbox.Repository
	logger      zerolog.Logger
}

func NewDeletePatient(
	txManager postgres.Transactor,
	patientRepo patient.Repository,
	outboxRepo outbox.Repository,
	logger zerolog.Logger,
) *DeletePatient {
	return &DeletePatient{
		txManager:   txManager,
		patientRepo: patientRepo,
		outboxRepo:  outboxRepo,
		logger:      logger,
	}
}

// Execute removes the record and records the DELETED event atomically.
// The event carries no name/email. A second delete of the same id
// observes no row and returns NotFound.
func (uc *DeletePatient) Execute(ctx context.Context, id string) error {
	exists, err := uc.patientRepo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("patient not found with id %s", id)
	}

	deleted := event.NewPatientEvent(event.TypeDeleted, id, "", "")
	outboxEvent, err := newOutboxEvent(deleted)
	if err != nil {
		return err
	}

	err = uc.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.outboxRepo.Create(txCtx, outboxEvent); err != nil {
			return err
		}
		return uc.patientRepo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	uc.logger.Info().Str("patient_id", id).Msg("patient deleted")
	return nil
}
