package driver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alorle/iptv-catalog/internal/application"
)

// PlaylistHTTPHandler handles HTTP requests for M3U playlist import and export.
type PlaylistHTTPHandler struct {
	service *application.CatalogService
	logger  *slog.Logger
}

// NewPlaylistHTTPHandler creates a new HTTP handler for playlists.
func NewPlaylistHTTPHandler(service *application.CatalogService, logger *slog.Logger) *PlaylistHTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaylistHTTPHandler{service: service, logger: logger}
}

// importURLRequest represents the JSON body for importing a remote playlist.
type importURLRequest struct {
	URL string `json:"url"`
}

// Register adds the playlist routes to r.
func (h *PlaylistHTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/playlists/import", h.handleImport).Methods(http.MethodPost)
	r.HandleFunc("/api/playlists/import-url", h.handleImportURL).Methods(http.MethodPost)
	r.HandleFunc("/playlist.m3u", h.handleExport).Methods(http.MethodGet)
}

func isPreview(r *http.Request) bool {
	return r.URL.Query().Get("preview") == "true"
}

// handleImport handles POST /api/playlists/import[?preview=true]
func (h *PlaylistHTTPHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	up, err := openUpload(w, r, "playlist.m3u")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if up.isFile && !isPreview(r) {
		defer up.body.Close()
		added, err := h.service.ImportPlaylistFile(r.Context(), up.name, up.body)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toImportResponse(added))
		return
	}

	data, err := h.service.ReadUpload(up.name, up.body)
	up.body.Close()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if isPreview(r) {
		entries, err := h.service.PreviewPlaylist(string(data))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPreviewResponse(entries))
		return
	}

	added, err := h.service.ImportPlaylistText(r.Context(), string(data))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toImportResponse(added))
}

// handleImportURL handles POST /api/playlists/import-url[?preview=true]
func (h *PlaylistHTTPHandler) handleImportURL(w http.ResponseWriter, r *http.Request) {
	var req importURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if isPreview(r) {
		entries, err := h.service.PreviewPlaylistURL(r.Context(), req.URL)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPreviewResponse(entries))
		return
	}

	added, err := h.service.ImportPlaylistURL(r.Context(), req.URL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toImportResponse(added))
}

// handleExport handles GET /playlist.m3u
func (h *PlaylistHTTPHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "audio/mpegurl")
	w.WriteHeader(http.StatusOK)
	if err := h.service.ExportM3U(w); err != nil {
		h.logger.Error("failed to write playlist", "error", err)
	}
}
