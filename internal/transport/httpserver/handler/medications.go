package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"therapy-support-go/internal/domain/access"
	medicationdomain "therapy-support-go/internal/domain/medication"
	"therapy-support-go/internal/transport/httpserver/middleware"
)

type createMedicationRequest struct {
	Name       string   `json:"name"`
	Dosage     string   `json:"dosage"`
	Frequency  string   `json:"frequency"`
	TimeToTake []string `json:"time_to_take"`
	Notes      string   `json:"notes"`
}

type updateMedicationRequest struct {
	Name       *string   `json:"name"`
	Dosage     *string   `json:"dosage"`
	Frequency  *string   `json:"frequency"`
	TimeToTake *[]string `json:"time_to_take"`
	Notes      *string   `json:"notes"`
	Active     *bool     `json:"active"`
}

type medicationResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Dosage     string    `json:"dosage"`
	Frequency  string    `json:"frequency"`
	TimeToTake []string  `json:"time_to_take"`
	Notes      string    `json:"notes"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

type medicationListResponse struct {
	Items []medicationResponse `json:"items"`
}

type doseResponse struct {
	MedicationID string `json:"medication_id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Time         string `json:"time"`
	Pending      bool   `json:"pending"`
	PastDue      bool   `json:"past_due"`
}

type doseListResponse struct {
	Items []doseResponse `json:"items"`
}

func toMedicationResponse(med medicationdomain.Medication) medicationResponse {
	times := []string(med.TimeToTake)
	if times == nil {
		times = []string{}
	}
	return medicationResponse{
		ID:         med.ID,
		UserID:     med.UserID,
		Name:       med.Name,
		Dosage:     med.Dosage,
		Frequency:  med.Frequency,
		TimeToTake: times,
		Notes:      med.Notes,
		Active:     med.Active,
		CreatedAt:  med.CreatedAt,
	}
}

func toMedicationListResponse(meds []medicationdomain.Medication) medicationListResponse {
	items := make([]medicationResponse, 0, len(meds))
	for _, med := range meds {
		items = append(items, toMedicationResponse(med))
	}
	return medicationListResponse{Items: items}
}

func (h *Handlers) CreateMedication(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req createMedicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	med, err := h.Medications.Create(r.Context(), medicationdomain.CreateInput{
		UserID:     caller.ID,
		Name:       req.Name,
		Dosage:     req.Dosage,
		Frequency:  req.Frequency,
		TimeToTake: req.TimeToTake,
		Notes:      req.Notes,
	})
	if err != nil {
		if errors.Is(err, medicationdomain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.log.InternalError("medications.create: create failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toMedicationResponse(*med))
}

func (h *Handlers) ListMedications(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	activeOnly, err := parseBoolParam(r.URL.Query().Get("active"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "active must be a boolean")
		return
	}

	meds, err := h.Medications.List(r.Context(), caller.ID, activeOnly)
	if err != nil {
		h.log.InternalError("medications.list: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toMedicationListResponse(meds))
}

func (h *Handlers) ListPatientMedications(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	patientID := chi.URLParam(r, "patientID")
	if caller.ID != patientID && !access.Allowed(caller.Role, access.PermViewPatientRecords) {
		writeError(w, http.StatusForbidden, "forbidden", "therapists only")
		return
	}
	meds, err := h.Medications.ListForPatient(r.Context(), identity(caller), patientID)
	if err != nil {
		if errors.Is(err, access.ErrNoRelationship) {
			h.log.BusinessError("medications.list_patient: access denied", err, "user_id", caller.ID, "patient_id", patientID)
			writeError(w, http.StatusForbidden, "forbidden", "no therapeutic relationship with this patient")
			return
		}
		h.log.InternalError("medications.list_patient: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toMedicationListResponse(meds))
}

func (h *Handlers) UpdateMedication(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req updateMedicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	med, err := h.Medications.Update(r.Context(), medicationdomain.UpdateInput{
		ID:         chi.URLParam(r, "medicationID"),
		UserID:     caller.ID,
		Name:       req.Name,
		Dosage:     req.Dosage,
		Frequency:  req.Frequency,
		TimeToTake: req.TimeToTake,
		Notes:      req.Notes,
		Active:     req.Active,
	})
	if err != nil {
		switch {
		case errors.Is(err, medicationdomain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, medicationdomain.ErrMedicationNotFound):
			writeError(w, http.StatusNotFound, "medication_not_found", "medication not found")
		default:
			h.log.InternalError("medications.update: update failed", err, "user_id", caller.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toMedicationResponse(*med))
}

func (h *Handlers) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	err := h.Medications.Delete(r.Context(), caller.ID, chi.URLParam(r, "medicationID"))
	if err != nil {
		if errors.Is(err, medicationdomain.ErrMedicationNotFound) {
			writeError(w, http.StatusNotFound, "medication_not_found", "medication not found")
			return
		}
		h.log.InternalError("medications.delete: delete failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "medication deactivated"})
}

// TodayMedications lists today's doses flagged against the server clock.
func (h *Handlers) TodayMedications(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	doses, err := h.Medications.Today(r.Context(), caller.ID, time.Now())
	if err != nil {
		h.log.InternalError("medications.today: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	items := make([]doseResponse, 0, len(doses))
	for _, dose := range doses {
		items = append(items, doseResponse{
			MedicationID: dose.MedicationID,
			Name:         dose.Name,
			Dosage:       dose.Dosage,
			Time:         dose.Time,
			Pending:      dose.Pending,
			PastDue:      dose.PastDue,
		})
	}
	writeJSON(w, http.StatusOK, doseListResponse{Items: items})
}
