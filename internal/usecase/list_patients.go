package usecase

import (
	"context"

	"github.com/SRUJA-N/patient-management-system/internal/domain/patient"
)

type ListPatients struct {
	patientRepo patient.Repository
}

func NewListPatients(patientRepo patient.Repository) *ListPatients {
	return &ListPatients{patientRepo: patientRepo}
}

func (uc *ListPatients) Execute(ctx context.Context) ([]*patient.Patient, error) {
	return uc.patientRepo.List(ctx)
}
