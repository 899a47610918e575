package handler

import (
	"net/http"

	"therapy-support-go/internal/domain/access"
	userdomain "therapy-support-go/internal/domain/user"
	"therapy-support-go/internal/transport/httpserver/middleware"
)

type userListResponse struct {
	Items []userResponse `json:"items"`
}

func toUserList(accounts []userdomain.User) userListResponse {
	items := make([]userResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, toUserResponse(&accounts[i]))
	}
	return userListResponse{Items: items}
}

// ListTherapists backs the patient's "start new conversation" picker:
// every therapist, unfiltered by relationship.
func (h *Handlers) ListTherapists(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	if !access.Allowed(caller.Role, access.PermListTherapists) {
		writeError(w, http.StatusForbidden, "forbidden", "patients only")
		return
	}

	therapists, err := h.Relationships.ListTherapistsAvailableTo(r.Context())
	if err != nil {
		h.log.InternalError("users.list_therapists: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toUserList(therapists))
}

// ListAllPatients returns every patient so a therapist can pick one to
// assign.
func (h *Handlers) ListAllPatients(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	if !access.Allowed(caller.Role, access.PermListAllPatients) {
		writeError(w, http.StatusForbidden, "forbidden", "therapists only")
		return
	}

	patients, err := h.Users.ListPatients(r.Context())
	if err != nil {
		h.log.InternalError("users.list_patients: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toUserList(patients))
}

// ListUnassignedPatients returns patients not yet assigned to the calling
// therapist.
func (h *Handlers) ListUnassignedPatients(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	if !access.Allowed(caller.Role, access.PermListAllPatients) {
		writeError(w, http.StatusForbidden, "forbidden", "therapists only")
		return
	}

	patients, err := h.Relationships.ListUnassignedPatients(r.Context(), caller.ID)
	if err != nil {
		h.log.InternalError("users.list_unassigned: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toUserList(patients))
}
