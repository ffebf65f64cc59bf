package driver

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alorle/iptv-catalog/internal/application"
)

// PlayerHTTPHandler handles HTTP requests for playback control.
type PlayerHTTPHandler struct {
	service *application.PlaybackService
}

// NewPlayerHTTPHandler creates a new HTTP handler for the player.
func NewPlayerHTTPHandler(service *application.PlaybackService) *PlayerHTTPHandler {
	return &PlayerHTTPHandler{service: service}
}

// playerResponse represents the player state in JSON format.
type playerResponse struct {
	State     string           `json:"state"`
	Channel   *channelResponse `json:"channel,omitempty"`
	StreamURL string           `json:"stream_url,omitempty"`
	Kind      string           `json:"kind,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func toPlayerResponse(status application.PlaybackStatus) playerResponse {
	resp := playerResponse{
		State:     string(status.State),
		StreamURL: status.StreamURL,
		Kind:      string(status.Kind),
		Error:     status.Error,
	}
	if status.Channel != nil {
		ch := toChannelResponse(*status.Channel)
		resp.Channel = &ch
	}
	return resp
}

// Register adds the player routes to r.
func (h *PlayerHTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/player", h.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/player", h.handleStop).Methods(http.MethodDelete)
	// retry must be registered before {id}
	r.HandleFunc("/api/player/retry", h.handleRetry).Methods(http.MethodPost)
	r.HandleFunc("/api/player/{id}", h.handlePlay).Methods(http.MethodPost)
}

// handleStatus handles GET /api/player
func (h *PlayerHTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPlayerResponse(h.service.Status()))
}

// handlePlay handles POST /api/player/{id}
func (h *PlayerHTTPHandler) handlePlay(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Play(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlayerResponse(status))
}

// handleRetry handles POST /api/player/retry
func (h *PlayerHTTPHandler) handleRetry(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Retry(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlayerResponse(status))
}

// handleStop handles DELETE /api/player
func (h *PlayerHTTPHandler) handleStop(w http.ResponseWriter, r *http.Request) {
	h.service.Stop()
	w.WriteHeader(http.StatusNoContent)
}
