package driver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/alorle/iptv-catalog/internal/application"
	"github.com/alorle/iptv-catalog/internal/catalog"
	"github.com/alorle/iptv-catalog/internal/channel"
	"github.com/alorle/iptv-catalog/internal/port/driven"
)

const maxUploadBytes = 32 << 20

// errorResponse represents a JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

// channelResponse represents a channel in JSON format.
type channelResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Logo       string `json:"logo,omitempty"`
	Group      string `json:"group,omitempty"`
	Category   string `json:"category"`
	IsFavorite bool   `json:"is_favorite"`
}

// entryResponse represents a parsed, not yet committed, playlist entry.
type entryResponse struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Logo     string `json:"logo,omitempty"`
	Group    string `json:"group,omitempty"`
	Category string `json:"category"`
}

// importResponse is returned by every import endpoint.
type importResponse struct {
	Imported int               `json:"imported"`
	Channels []channelResponse `json:"channels"`
}

// previewResponse is returned by import endpoints with ?preview=true.
type previewResponse struct {
	Count   int             `json:"count"`
	Entries []entryResponse `json:"entries"`
}

func toChannelResponse(ch channel.Channel) channelResponse {
	return channelResponse{
		ID:         ch.ID(),
		Name:       ch.Name(),
		URL:        ch.URL(),
		Logo:       ch.Logo(),
		Group:      ch.Group(),
		Category:   ch.Category().String(),
		IsFavorite: ch.IsFavorite(),
	}
}

func toChannelResponses(channels []channel.Channel) []channelResponse {
	resp := make([]channelResponse, len(channels))
	for i, ch := range channels {
		resp[i] = toChannelResponse(ch)
	}
	return resp
}

func toEntryResponses(entries []channel.Entry) []entryResponse {
	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = entryResponse{
			Name:     e.Name(),
			URL:      e.URL(),
			Logo:     e.Logo(),
			Group:    e.Group(),
			Category: e.Category().String(),
		}
	}
	return resp
}

func toImportResponse(channels []channel.Channel) importResponse {
	return importResponse{
		Imported: len(channels),
		Channels: toChannelResponses(channels),
	}
}

func toPreviewResponse(entries []channel.Entry) previewResponse {
	return previewResponse{
		Count:   len(entries),
		Entries: toEntryResponses(entries),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps a use-case error to its HTTP status.
// Unexpected errors are not exposed to the client.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, channel.ErrEmptyName),
		errors.Is(err, channel.ErrEmptyURL),
		errors.Is(err, channel.ErrEmptyID),
		errors.Is(err, channel.ErrInvalidCategory),
		errors.Is(err, application.ErrInvalidPlaylistURL),
		errors.Is(err, application.ErrRead),
		errors.Is(err, catalog.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, channel.ErrChannelNotFound):
		return http.StatusNotFound
	case errors.Is(err, channel.ErrDuplicateID),
		errors.Is(err, application.ErrImportInProgress),
		errors.Is(err, application.ErrNothingToRetry):
		return http.StatusConflict
	case errors.Is(err, application.ErrNoChannelsFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, driven.ErrNetwork),
		errors.Is(err, driven.ErrPlayback):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
