package apiserver

import (
	"errors"
	"net/http"

	"lyceum/internal/middleware"
	"lyceum/internal/services"
)

// NotificationHandler serves the user's notification inbox.
type NotificationHandler struct {
	NotificationService services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler instance.
func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{NotificationService: notificationService}
}

// ListNotifications handles GET /notifications.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	notifications, err := h.NotificationService.ListNotifications(r.Context(), userID, limit, offset)
	if err != nil {
		writeJSONError(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, notifications)
}

// MarkRead handles POST /notifications/{notificationId}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	notificationID, err := pathID(r, "notificationId")
	if err != nil {
		writeJSONError(w, "invalid notification id", http.StatusBadRequest)
		return
	}

	if err := h.NotificationService.MarkRead(r.Context(), notificationID, userID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSONError(w, "failed to mark notification read", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "marked read"})
}

// UnreadCount handles GET /notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	count, err := h.NotificationService.CountUnread(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "failed to count unread notifications", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]int64{"unread": count})
}
