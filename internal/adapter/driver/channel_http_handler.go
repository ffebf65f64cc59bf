package driver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/alorle/iptv-catalog/internal/application"
	"github.com/alorle/iptv-catalog/internal/channel"
)

// ChannelHTTPHandler handles HTTP requests for channel management.
type ChannelHTTPHandler struct {
	service *application.CatalogService
}

// NewChannelHTTPHandler creates a new HTTP handler for channels.
func NewChannelHTTPHandler(service *application.CatalogService) *ChannelHTTPHandler {
	return &ChannelHTTPHandler{service: service}
}

// channelRequest represents the JSON body for creating or updating a channel.
type channelRequest struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Logo     string `json:"logo"`
	Group    string `json:"group"`
	Category string `json:"category"`
}

func (req channelRequest) fields() (application.ChannelFields, error) {
	category := channel.CategoryLive
	if req.Category != "" {
		var err error
		category, err = channel.ParseCategory(req.Category)
		if err != nil {
			return application.ChannelFields{}, err
		}
	}
	return application.ChannelFields{
		Name:     req.Name,
		URL:      req.URL,
		Logo:     req.Logo,
		Group:    req.Group,
		Category: category,
	}, nil
}

// statsResponse represents catalog statistics in JSON format.
type statsResponse struct {
	Counts    map[string]int `json:"counts"`
	Total     int            `json:"total"`
	Favorites int            `json:"favorites"`
}

// Register adds the channel routes to r.
func (h *ChannelHTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/channels", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/channels", h.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/api/channels", h.handleClear).Methods(http.MethodDelete)
	r.HandleFunc("/api/channels/{id}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/api/channels/{id}", h.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/api/channels/{id}", h.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/api/channels/{id}/favorite", h.handleToggleFavorite).Methods(http.MethodPost)
	r.HandleFunc("/api/stats", h.handleStats).Methods(http.MethodGet)
}

// handleList handles GET /api/channels?category=&favorites=
func (h *ChannelHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var category *channel.Category
	if raw := query.Get("category"); raw != "" {
		c, err := channel.ParseCategory(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		category = &c
	}

	favoritesOnly := false
	if raw := query.Get("favorites"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "favorites must be a boolean")
			return
		}
		favoritesOnly = v
	}

	channels := h.service.ListChannels(category, favoritesOnly)
	writeJSON(w, http.StatusOK, toChannelResponses(channels))
}

// handleCreate handles POST /api/channels
func (h *ChannelHTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fields, err := req.fields()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ch, err := h.service.AddChannel(r.Context(), fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toChannelResponse(ch))
}

// handleClear handles DELETE /api/channels
func (h *ChannelHTTPHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGet handles GET /api/channels/{id}
func (h *ChannelHTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ch, err := h.service.GetChannel(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChannelResponse(ch))
}

// handleUpdate handles PUT /api/channels/{id}
func (h *ChannelHTTPHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fields, err := req.fields()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ch, err := h.service.UpdateChannel(r.Context(), mux.Vars(r)["id"], fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChannelResponse(ch))
}

// handleDelete handles DELETE /api/channels/{id}
func (h *ChannelHTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteChannel(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleFavorite handles POST /api/channels/{id}/favorite
func (h *ChannelHTTPHandler) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ch, err := h.service.ToggleFavorite(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChannelResponse(ch))
}

// handleStats handles GET /api/stats
func (h *ChannelHTTPHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.service.Stats()

	counts := make(map[string]int, len(stats.Counts))
	for category, n := range stats.Counts {
		counts[category.String()] = n
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Counts:    counts,
		Total:     stats.Total,
		Favorites: stats.Favorites,
	})
}
