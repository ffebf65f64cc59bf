package driver

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alorle/iptv-catalog/internal/application"
)

// HealthHTTPHandler handles HTTP requests for health checks.
type HealthHTTPHandler struct {
	service *application.HealthService
}

// NewHealthHTTPHandler creates a new HTTP handler for health checks.
func NewHealthHTTPHandler(service *application.HealthService) *HealthHTTPHandler {
	return &HealthHTTPHandler{service: service}
}

// healthResponse represents the JSON response for health check endpoint.
type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Error  string `json:"error,omitempty"`
}

// Register adds the health route to r.
func (h *HealthHTTPHandler) Register(r *mux.Router) {
	r.Handle("/api/health", h).Methods(http.MethodGet)
}

// ServeHTTP handles GET /api/health
func (h *HealthHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.service.Check(r.Context())

	resp := healthResponse{
		Status: status.Status,
		Store:  status.Store.Status,
		Error:  status.Store.Error,
	}

	httpStatus := http.StatusOK
	if status.Status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
