package driver

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alorle/iptv-catalog/internal/notification"
)

// NotificationHTTPHandler exposes user notifications.
type NotificationHTTPHandler struct {
	center *notification.Center
}

// NewNotificationHTTPHandler creates a new HTTP handler for notifications.
func NewNotificationHTTPHandler(center *notification.Center) *NotificationHTTPHandler {
	return &NotificationHTTPHandler{center: center}
}

// noticeResponse represents a notice in JSON format.
type noticeResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	CreatedAt  string `json:"created_at"`
	Persistent bool   `json:"persistent"`
}

// Register adds the notification routes to r.
func (h *NotificationHTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/notifications", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/{id}", h.handleDismiss).Methods(http.MethodDelete)
}

// handleList handles GET /api/notifications
func (h *NotificationHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	notices := h.center.List()

	resp := make([]noticeResponse, len(notices))
	for i, n := range notices {
		resp[i] = noticeResponse{
			ID:         n.ID,
			Kind:       string(n.Kind),
			Message:    n.Message,
			CreatedAt:  formatTime(n.CreatedAt),
			Persistent: n.Persistent,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDismiss handles DELETE /api/notifications/{id}
func (h *NotificationHTTPHandler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if !h.center.Dismiss(mux.Vars(r)["id"]) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
