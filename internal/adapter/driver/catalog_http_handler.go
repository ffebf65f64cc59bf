package driver

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alorle/iptv-catalog/internal/application"
)

const exportFilename = "iptv-channels.json"

// CatalogHTTPHandler handles export and import of the catalog document.
type CatalogHTTPHandler struct {
	service *application.CatalogService
}

// NewCatalogHTTPHandler creates a new HTTP handler for catalog documents.
func NewCatalogHTTPHandler(service *application.CatalogService) *CatalogHTTPHandler {
	return &CatalogHTTPHandler{service: service}
}

// Register adds the catalog document routes to r.
func (h *CatalogHTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/catalog/export", h.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/import", h.handleImport).Methods(http.MethodPost)
}

// handleExport handles GET /api/catalog/export
func (h *CatalogHTTPHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Export(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// handleImport handles POST /api/catalog/import
func (h *CatalogHTTPHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	up, err := openUpload(w, r, exportFilename)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	data, err := h.service.ReadUpload(up.name, up.body)
	up.body.Close()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	added, err := h.service.ImportDocument(r.Context(), data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toImportResponse(added))
}
