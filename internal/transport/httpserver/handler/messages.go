package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"therapy-support-go/internal/domain/access"
	messagingdomain "therapy-support-go/internal/domain/messaging"
	"therapy-support-go/internal/transport/httpserver/middleware"
)

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

type messageResponse struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at"`
}

type messageViewResponse struct {
	messageResponse
	SenderFirstName string `json:"sender_first_name"`
	SenderLastName  string `json:"sender_last_name"`
	SenderRole      string `json:"sender_role"`
}

type messageListResponse struct {
	Items []messageViewResponse `json:"items"`
}

type conversationResponse struct {
	OtherUserID     string    `json:"other_user_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Role            string    `json:"role"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	UnreadCount     int64     `json:"unread_count"`
}

type conversationListResponse struct {
	Items []conversationResponse `json:"items"`
}

type unreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type markReadResponse struct {
	MarkedRead int64 `json:"marked_read"`
}

func toMessageResponse(msg messagingdomain.Message) messageResponse {
	return messageResponse{
		ID:          msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Content:     msg.Content,
		CreatedAt:   msg.CreatedAt,
		ReadAt:      msg.ReadAt,
	}
}

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	msg, err := h.Messages.Send(r.Context(), identity(caller), req.RecipientID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, messagingdomain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, messagingdomain.ErrRecipientNotFound):
			writeError(w, http.StatusNotFound, "recipient_not_found", "recipient not found")
		case errors.Is(err, access.ErrNoRelationship):
			h.log.BusinessError("messages.send: no relationship", err, "user_id", caller.ID, "recipient_id", req.RecipientID)
			writeError(w, http.StatusForbidden, "forbidden", "no therapeutic relationship with this user")
		default:
			h.log.InternalError("messages.send: send failed", err, "user_id", caller.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(*msg))
}

// ListMessagesWith returns the two-way thread oldest first and marks the
// incoming half as read.
func (h *Handlers) ListMessagesWith(w http.ResponseWriter, r *http.Request) {
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
	offset, err := parseIntParam(r.URL.Query().Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "offset must be a non-negative integer")
		return
	}

	otherUserID := chi.URLParam(r, "userID")
	views, err := h.Messages.ListMessagesWith(r.Context(), identity(caller), otherUserID, messagingdomain.ListFilter{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		if errors.Is(err, access.ErrNoRelationship) {
			h.log.BusinessError("messages.list: no relationship", err, "user_id", caller.ID, "other_user_id", otherUserID)
			writeError(w, http.StatusForbidden, "forbidden", "no therapeutic relationship with this user")
			return
		}
		h.log.InternalError("messages.list: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	items := make([]messageViewResponse, 0, len(views))
	for _, view := range views {
		items = append(items, messageViewResponse{
			messageResponse: toMessageResponse(view.Message),
			SenderFirstName: view.SenderFirstName,
			SenderLastName:  view.SenderLastName,
			SenderRole:      view.SenderRole,
		})
	}
	writeJSON(w, http.StatusOK, messageListResponse{Items: items})
}

func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	conversations, err := h.Messages.ListConversations(r.Context(), caller.ID)
	if err != nil {
		h.log.InternalError("messages.conversations: list failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	items := make([]conversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		items = append(items, conversationResponse{
			OtherUserID:     conv.OtherUserID,
			FirstName:       conv.FirstName,
			LastName:        conv.LastName,
			Role:            conv.Role,
			LastMessage:     conv.LastMessage,
			LastMessageTime: conv.LastMessageTime,
			UnreadCount:     conv.UnreadCount,
		})
	}
	writeJSON(w, http.StatusOK, conversationListResponse{Items: items})
}

func (h *Handlers) UnreadMessageCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	count, err := h.Messages.UnreadCount(r.Context(), caller.ID)
	if err != nil {
		h.log.InternalError("messages.unread_count: count failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, unreadCountResponse{UnreadCount: count})
}

func (h *Handlers) MarkMessagesRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	marked, err := h.Messages.MarkRead(r.Context(), caller.ID, chi.URLParam(r, "userID"))
	if err != nil {
		h.log.InternalError("messages.mark_read: mark failed", err, "user_id", caller.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, markReadResponse{MarkedRead: marked})
}
