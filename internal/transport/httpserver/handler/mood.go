package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"therapy-support-go/internal/domain/access"
	mooddomain "therapy-support-go/internal/domain/mood"
	"therapy-support-go/internal/transport/httpserver/middleware"
)

type createMoodRequest struct {
	MoodRating int    `json:"mood_rating"`
	Notes      string `json:"notes"`
	EntryDate  string `json:"entry_date"`
}

type updateMoodRequest struct {
	MoodRating *int    `json:"mood_rating"`
	Notes      *string `json:"notes"`
	EntryDate  *string `json:"entry_date"`
}

type moodEntryResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MoodRating int       `json:"mood_rating"`
	Notes      string    `json:"notes"`
	EntryDate  string    `json:"entry_date"`
	CreatedAt  time.Time `json:"created_at"`
}

type moodListResponse struct {
	Items []moodEntryResponse `json:"items"`
}

type moodStatsResponse struct {
	TotalEntries  int64               `json:"total_entries"`
	AverageMood   *float64            `json:"average_mood"`
	WeeklyAverage *float64            `json:"weekly_average"`
	RecentEntries []moodEntryResponse `json:"recent_entries"`
}

func toMoodEntryResponse(entry mooddomain.Entry) moodEntryResponse {
	return moodEntryResponse{
		ID:         entry.ID,
		UserID:     entry.UserID,
		MoodRating: entry.MoodRating,
		Notes:      entry.Notes,
		EntryDate:  entry.EntryDate.Format("2006-01-02"),
		CreatedAt:  entry.CreatedAt,
	}
}

func toMoodListResponse(entries []mooddomain.Entry) moodListResponse {
	items := make([]moodEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toMoodEntryResponse(entry))
	}
	return moodListResponse{Items: items}
}

func (h *Handlers) CreateMoodEntry(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req createMoodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	entryDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.EntryDate != "" {
		parsed, err := parseDateParam(req.EntryDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "entry_date must be YYYY-MM-DD")
			return
		}
		entryDate = *parsed
	}

	entry, err := h.Mood.Create(r.Context(), mooddomain.CreateEntryInput{
		UserID:     caller.ID,
		MoodRating: req.MoodRating,
		Notes:      req.Notes,
		EntryDate:  entryDate,
	})
	if err != nil {
		if errors.Is(err, mooddomain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.log.InternalError("mood.create: create failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toMoodEntryResponse(*entry))
}

func (h *Handlers) ListMoodEntries(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	filter, ok := h.moodFilterFromQuery(w, r)
	if !ok {
		return
	}

	entries, err := h.Mood.List(r.Context(), caller.ID, filter)
	if err != nil {
		h.log.InternalError("mood.list: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toMoodListResponse(entries))
}

// ListPatientMoodEntries serves a therapist reading an assigned patient's
// diary. The patient themselves can also use it with their own id.
func (h *Handlers) ListPatientMoodEntries(w http.ResponseWriter, r *http.Request) {
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
	filter, ok := h.moodFilterFromQuery(w, r)
	if !ok {
		return
	}

	entries, err := h.Mood.ListForPatient(r.Context(), identity(caller), patientID, filter)
	if err != nil {
		if errors.Is(err, access.ErrNoRelationship) {
			h.log.BusinessError("mood.list_patient: access denied", err, "user_id", caller.ID, "patient_id", patientID)
			writeError(w, http.StatusForbidden, "forbidden", "no therapeutic relationship with this patient")
			return
		}
		h.log.InternalError("mood.list_patient: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toMoodListResponse(entries))
}

func (h *Handlers) UpdateMoodEntry(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req updateMoodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	input := mooddomain.UpdateEntryInput{
		ID:         chi.URLParam(r, "entryID"),
		UserID:     caller.ID,
		MoodRating: req.MoodRating,
		Notes:      req.Notes,
	}
	if req.EntryDate != nil {
		parsed, err := parseDateParam(*req.EntryDate)
		if err != nil || parsed == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "entry_date must be YYYY-MM-DD")
			return
		}
		input.EntryDate = parsed
	}

	entry, err := h.Mood.Update(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, mooddomain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, mooddomain.ErrEntryNotFound):
			writeError(w, http.StatusNotFound, "entry_not_found", "mood entry not found")
		default:
			h.log.InternalError("mood.update: update failed", err, "user_id", caller.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toMoodEntryResponse(*entry))
}

func (h *Handlers) DeleteMoodEntry(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	err := h.Mood.Delete(r.Context(), caller.ID, chi.URLParam(r, "entryID"))
	if err != nil {
		if errors.Is(err, mooddomain.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, "entry_not_found", "mood entry not found")
			return
		}
		h.log.InternalError("mood.delete: delete failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "mood entry deleted"})
}

func (h *Handlers) MoodStats(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	stats, err := h.Mood.Stats(r.Context(), caller.ID)
	if err != nil {
		h.log.InternalError("mood.stats: stats failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	recent := make([]moodEntryResponse, 0, len(stats.RecentEntries))
	for _, entry := range stats.RecentEntries {
		recent = append(recent, toMoodEntryResponse(entry))
	}
	writeJSON(w, http.StatusOK, moodStatsResponse{
		TotalEntries:  stats.TotalEntries,
		AverageMood:   stats.AverageMood,
		WeeklyAverage: stats.WeeklyAverage,
		RecentEntries: recent,
	})
}

func (h *Handlers) moodFilterFromQuery(w http.ResponseWriter, r *http.Request) (mooddomain.ListFilter, bool) {
	var filter mooddomain.ListFilter

	from, err := parseDateParam(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "from must be YYYY-MM-DD")
		return filter, false
	}
	to, err := parseDateParam(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "to must be YYYY-MM-DD")
		return filter, false
	}
	limit, err := parseIntParam(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
		return filter, false
	}

	filter.From = from
	filter.To = to
	filter.Limit = limit
	return filter, true
}
