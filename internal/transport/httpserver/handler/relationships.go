package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"therapy-support-go/internal/domain/access"
	relationshipdomain "therapy-support-go/internal/domain/relationship"
	"therapy-support-go/internal/transport/httpserver/middleware"
)

type relationRequest struct {
	TherapistID string `json:"therapist_id"`
	PatientID   string `json:"patient_id"`
}

type relationResponse struct {
	ID          string    `json:"id"`
	TherapistID string    `json:"therapist_id"`
	PatientID   string    `json:"patient_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type patientSummaryResponse struct {
	ID                     string                            `json:"id"`
	Email                  string                            `json:"email"`
	FirstName              string                            `json:"first_name"`
	LastName               string                            `json:"last_name"`
	CreatedAt              time.Time                         `json:"created_at"`
	AssignedAt             time.Time                         `json:"assigned_at"`
	MoodEntriesCount       int64                             `json:"mood_entries_count"`
	ActiveMedicationsCount int64                             `json:"active_medications_count"`
	LastMoodEntry          *relationshipdomain.MoodSnapshot  `json:"last_mood_entry"`
	RecentMoodEntries      []relationshipdomain.MoodSnapshot `json:"recent_mood_entries"`
	AverageMood            *float64                          `json:"average_mood,omitempty"`
}

type patientSummaryListResponse struct {
	Items    []patientSummaryResponse `json:"items"`
	Degraded bool                     `json:"degraded"`
}

func (h *Handlers) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	if !access.Allowed(caller.Role, access.PermManageRelationships) {
		writeError(w, http.StatusForbidden, "forbidden", "therapists only")
		return
	}

	var req relationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.TherapistID) == "" || strings.TrimSpace(req.PatientID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "therapist_id and patient_id are required")
		return
	}

	relation, err := h.Relationships.Create(r.Context(), identity(caller), req.TherapistID, req.PatientID)
	if err != nil {
		switch {
		case errors.Is(err, relationshipdomain.ErrNotOwnRelation):
			h.log.BusinessError("relationships.create: not own relation", err, "user_id", caller.ID)
			writeError(w, http.StatusForbidden, "forbidden", "only therapists can manage their own relationships")
		case errors.Is(err, relationshipdomain.ErrTherapistNotFound):
			writeError(w, http.StatusNotFound, "therapist_not_found", "therapist not found")
		case errors.Is(err, relationshipdomain.ErrPatientNotFound):
			writeError(w, http.StatusNotFound, "patient_not_found", "patient not found")
		case errors.Is(err, relationshipdomain.ErrRelationExists):
			h.log.BusinessError("relationships.create: duplicate", err, "user_id", caller.ID)
			writeError(w, http.StatusConflict, "relationship_exists", "relationship already exists")
		default:
			h.log.InternalError("relationships.create: create failed", err, "user_id", caller.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, relationResponse{
		ID:          relation.ID,
		TherapistID: relation.TherapistID,
		PatientID:   relation.PatientID,
		CreatedAt:   relation.CreatedAt,
	})
}

func (h *Handlers) RemoveRelationship(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	if !access.Allowed(caller.Role, access.PermManageRelationships) {
		writeError(w, http.StatusForbidden, "forbidden", "therapists only")
		return
	}

	var req relationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.TherapistID) == "" || strings.TrimSpace(req.PatientID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "therapist_id and patient_id are required")
		return
	}

	err := h.Relationships.Remove(r.Context(), identity(caller), req.TherapistID, req.PatientID)
	if err != nil {
		switch {
		case errors.Is(err, relationshipdomain.ErrNotOwnRelation):
			h.log.BusinessError("relationships.remove: not own relation", err, "user_id", caller.ID)
			writeError(w, http.StatusForbidden, "forbidden", "you can only remove your own relationships")
		case errors.Is(err, relationshipdomain.ErrRelationNotFound):
			writeError(w, http.StatusNotFound, "relationship_not_found", "relationship not found")
		default:
			h.log.InternalError("relationships.remove: remove failed", err, "user_id", caller.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "relationship removed"})
}

// ListMyPatients returns the therapist's patients with read-time stats.
// Stat failures degrade the response instead of failing it.
func (h *Handlers) ListMyPatients(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	if !access.Allowed(caller.Role, access.PermListAssignedPatients) {
		writeError(w, http.StatusForbidden, "forbidden", "therapists only")
		return
	}

	summaries, degraded, err := h.Relationships.ListPatientsOf(r.Context(), caller.ID)
	if err != nil {
		h.log.InternalError("relationships.list_patients: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	items := make([]patientSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		recent := summary.Stats.RecentMoodEntries
		if recent == nil {
			recent = []relationshipdomain.MoodSnapshot{}
		}
		items = append(items, patientSummaryResponse{
			ID:                     summary.ID,
			Email:                  summary.Email,
			FirstName:              summary.FirstName,
			LastName:               summary.LastName,
			CreatedAt:              summary.CreatedAt,
			AssignedAt:             summary.AssignedAt,
			MoodEntriesCount:       summary.Stats.MoodEntriesCount,
			ActiveMedicationsCount: summary.Stats.ActiveMedicationsCount,
			LastMoodEntry:          summary.Stats.LastMoodEntry,
			RecentMoodEntries:      recent,
			AverageMood:            summary.Stats.AverageMood,
		})
	}

	writeJSON(w, http.StatusOK, patientSummaryListResponse{Items: items, Degraded: degraded})
}

func identity(caller middleware.User) access.Identity {
	return access.Identity{ID: caller.ID, Role: caller.Role}
}
