package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	notificationdomain "therapy-support-go/internal/domain/notification"
	"therapy-support-go/internal/transport/httpserver/middleware"
)

type notificationResponse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at"`
}

type notificationListResponse struct {
	Items []notificationResponse `json:"items"`
}

type reminderSweepResponse struct {
	Created []notificationdomain.Reminder `json:"created"`
}

func toNotificationResponse(n notificationdomain.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
}

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	limit, err := parseIntParam(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
		return
	}
	unreadOnly, err := parseBoolParam(r.URL.Query().Get("unread"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unread must be a boolean")
		return
	}

	notifications, err := h.Notifications.List(r.Context(), caller.ID, limit, unreadOnly)
	if err != nil {
		h.log.InternalError("notifications.list: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	items := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, notificationListResponse{Items: items})
}

func (h *Handlers) UnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	count, err := h.Notifications.UnreadCount(r.Context(), caller.ID)
	if err != nil {
		h.log.InternalError("notifications.unread_count: count failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, unreadCountResponse{UnreadCount: count})
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	notification, err := h.Notifications.MarkRead(r.Context(), caller.ID, chi.URLParam(r, "notificationID"))
	if err != nil {
		if errors.Is(err, notificationdomain.ErrNotificationNotFound) {
			writeError(w, http.StatusNotFound, "notification_not_found", "notification not found")
			return
		}
		h.log.InternalError("notifications.mark_read: mark failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toNotificationResponse(*notification))
}

func (h *Handlers) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	if err := h.Notifications.MarkAllRead(r.Context(), caller.ID); err != nil {
		h.log.InternalError("notifications.mark_all_read: mark failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "all notifications marked read"})
}

func (h *Handlers) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	err := h.Notifications.Delete(r.Context(), caller.ID, chi.URLParam(r, "notificationID"))
	if err != nil {
		if errors.Is(err, notificationdomain.ErrNotificationNotFound) {
			writeError(w, http.StatusNotFound, "notification_not_found", "notification not found")
			return
		}
		h.log.InternalError("notifications.delete: delete failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "notification deleted"})
}

// MedicationReminderSweep creates due medication reminders for the next
// hour. It is meant to be hit by a scheduler, not end users.
func (h *Handlers) MedicationReminderSweep(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	created, err := h.Notifications.MedicationReminderSweep(r.Context(), time.Now())
	if err != nil {
		h.log.InternalError("notifications.sweep: sweep failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	if created == nil {
		created = []notificationdomain.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminderSweepResponse{Created: created})
}
