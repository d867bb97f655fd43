package api

import (
	"encoding/json"
	"net/http"

	"github.com/SRUJA-N/patient-management-system/internal/apperror"
	"github.com/SRUJA-N/patient-management-system/internal/domain/patient"
	"github.com/SRUJA-N/patient-management-system/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handlers struct {
	createPatientUC *usecase.CreatePatient
	updatePatientUC *usecase.UpdatePatient
	deletePatientUC *usecase.DeletePatient
	getPatientUC    *usecase.GetPatient
	listPatientsUC  *usecase.ListPatients
	patientEventsUC *usecase.GetPatientEvents
	logger          zerolog.Logger
}

func NewHandlers(
	createPatientUC *usecase.CreatePatient,
	updatePatientUC *usecase.UpdatePatient,
	deletePatientUC *usecase.DeletePatient,
	getPatientUC *usecase.GetPatient,
	listPatientsUC *usecase.ListPatients,
	patientEventsUC *usecase.GetPatientEvents,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		createPatientUC: createPatientUC,
		updatePatientUC: updatePatientUC,
		deletePatientUC: deletePatientUC,
		getPatientUC:    getPatientUC,
		listPatientsUC:  listPatientsUC,
		patientEventsUC: patientEventsUC,
		logger:          logger,
	}
}

// patientResponse is the external patient representation. Billing fields
// appear on create responses only.
type patientResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	PhoneNumber      string `json:"phoneNumber"`
	DateOfBirth      string `json:"dateOfBirth"`
	RegisteredDate   string `json:"registeredDate"`
	Priority         int    `json:"priority"`
	BillingAccountID string `json:"billingAccountId,omitempty"`
	BillingStatus    string `json:"billingStatus,omitempty"`
}

func toPatientResponse(p *patient.Patient) patientResponse {
	return patientResponse{
		ID:             p.ID,
		Name:           p.Name,
		Email:          p.Email,
		PhoneNumber:    p.PhoneNumber,
		DateOfBirth:    p.DateOfBirth.Format("2006-01-02"),
		RegisteredDate: p.RegisteredDate.Format("2006-01-02"),
		Priority:       p.Priority,
	}
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		Kind:    kind.String(),
		Message: err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handlers) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var params usecase.CreatePatientParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.writeError(w, apperror.Validation("invalid request body"))
		return
	}

	result, err := h.createPatientUC.Execute(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := toPatientResponse(result.Patient)
	resp.BillingAccountID = result.BillingAccountID
	resp.BillingStatus = result.BillingStatus

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, apperror.Validation("missing patient id"))
		return
	}

	var params usecase.UpdatePatientParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.writeError(w, apperror.Validation("invalid request body"))
		return
	}

	updated, err := h.updatePatientUC.Execute(r.Context(), id, params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPatientResponse(updated))
}

func (h *Handlers) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, apperror.Validation("missing patient id"))
		return
	}

	if err := h.deletePatientUC.Execute(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetPatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, apperror.Validation("missing patient id"))
		return
	}

	p, err := h.getPatientUC.Execute(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPatientResponse(p))
}

func (h *Handlers) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.listPatientsUC.Execute(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]patientResponse, 0, len(patients))
	for _, p := range patients {
		resp = append(resp, toPatientResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetPatientEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, apperror.Validation("missing patient id"))
		return
	}

	events, err := h.patientEventsUC.Execute(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}
