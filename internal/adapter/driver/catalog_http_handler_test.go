package driver

import (
	"net/http"
	"strings"
	"testing"
)

func TestCatalogHTTPHandler_ExportImportRoundTrip(t *testing.T) {
	src := newTestServer(t)
	seeded := src.seed(t)
	src.doJSON(http.MethodPost, "/api/channels/"+seeded[0].ID+"/favorite", "")

	w := src.doJSON(http.MethodGet, "/api/catalog/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="iptv-channels.json"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	doc := w.Body.String()

	dst := newTestServer(t)
	w = dst.do(http.MethodPost, "/api/catalog/import", "application/json", strings.NewReader(doc))
	if w.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
	if resp := decode[importResponse](t, w); resp.Imported != 2 {
		t.Errorf("imported = %d, want 2", resp.Imported)
	}

	got := decode[channelResponse](t, dst.doJSON(http.MethodGet, "/api/channels/"+seeded[0].ID, ""))
	if got.Name != "Channel A" || !got.IsFavorite {
		t.Errorf("imported channel lost its data: %+v", got)
	}

	// importing the same document again collides on every id
	w = dst.do(http.MethodPost, "/api/catalog/import", "application/json", strings.NewReader(doc))
	if w.Code != http.StatusConflict {
		t.Errorf("re-import status = %d, want 409", w.Code)
	}
	if stats := decode[statsResponse](t, dst.doJSON(http.MethodGet, "/api/stats", "")); stats.Total != 2 {
		t.Errorf("total after rejected import = %d, want 2", stats.Total)
	}
}

func TestCatalogHTTPHandler_ImportInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "this is not json"},
		{name: "object instead of list", body: `{"id":"x"}`},
		{name: "missing url", body: `[{"id":"a","name":"A"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			w := s.do(http.MethodPost, "/api/catalog/import", "application/json", strings.NewReader(tt.body))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestCatalogHTTPHandler_ImportMultipart(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartBody(t, "file", "backup.json",
		`[{"id":"a","name":"A","url":"http://a","category":"series","isFavorite":true}]`)
	w := s.do(http.MethodPost, "/api/catalog/import", contentType, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	got := decode[channelResponse](t, s.doJSON(http.MethodGet, "/api/channels/a", ""))
	if got.Category != "series" || !got.IsFavorite {
		t.Errorf("unexpected channel: %+v", got)
	}
}
