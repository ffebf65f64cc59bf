package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/alorle/iptv-catalog/internal/application"
	"github.com/alorle/iptv-catalog/internal/notification"
	"github.com/alorle/iptv-catalog/internal/port/driven"
)

const testPlaylist = `#EXTM3U
#EXTINF:-1 tvg-logo="http://x/a.png" group-title="Movies - HD",Channel A
http://a.example/stream.m3u8
#EXTINF:-1 group-title="News",Channel B
http://b.example/stream.m3u8
`

// memoryStore is an in-memory driven.CatalogStore.
type memoryStore struct {
	mu       sync.Mutex
	document []byte
	pingErr  error
}

func (m *memoryStore) Get(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.document == nil {
		return nil, driven.ErrCatalogNotFound
	}
	return m.document, nil
}

func (m *memoryStore) Set(ctx context.Context, document []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.document = document
	return nil
}

func (m *memoryStore) Ping(ctx context.Context) error { return m.pingErr }

// stubFetcher serves playlists from a map keyed by URL.
type stubFetcher struct {
	playlists map[string]string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (driven.FetchResult, error) {
	content, ok := f.playlists[url]
	if !ok {
		return driven.FetchResult{}, fmt.Errorf("%w: 404 Not Found", driven.ErrNetwork)
	}
	return driven.FetchResult{Content: content, Strategy: driven.StrategyDirect}, nil
}

// stubEngine opens sessions that never fail unless openErr is set.
type stubEngine struct {
	openErr error
}

func (e *stubEngine) Open(ctx context.Context, url string) (driven.PlaybackSession, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	return &stubSession{url: url, errs: make(chan error)}, nil
}

type stubSession struct {
	url  string
	errs chan error
	once sync.Once
}

func (s *stubSession) StreamURL() string       { return s.url }
func (s *stubSession) Kind() driven.StreamKind { return driven.StreamHLS }
func (s *stubSession) Errors() <-chan error    { return s.errs }

func (s *stubSession) Close() error {
	s.once.Do(func() { close(s.errs) })
	return nil
}

type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

type testServer struct {
	router  *mux.Router
	store   *memoryStore
	fetcher *stubFetcher
	engine  *stubEngine
	notices *notification.Center
	catalog *application.CatalogService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := &testServer{
		router:  mux.NewRouter(),
		store:   &memoryStore{},
		fetcher: &stubFetcher{playlists: map[string]string{}},
		engine:  &stubEngine{},
		notices: notification.NewCenter(time.Minute),
	}
	s.catalog = application.NewCatalogService(s.store, s.fetcher, s.notices, &sequenceIDs{}, nil)
	playback := application.NewPlaybackService(ctx, s.catalog, s.engine, s.notices, nil)
	health := application.NewHealthService(s.store)

	NewChannelHTTPHandler(s.catalog).Register(s.router)
	NewPlaylistHTTPHandler(s.catalog, nil).Register(s.router)
	NewCatalogHTTPHandler(s.catalog).Register(s.router)
	NewPlayerHTTPHandler(playback).Register(s.router)
	NewNotificationHTTPHandler(s.notices).Register(s.router)
	NewHealthHTTPHandler(health).Register(s.router)

	return s
}

func (s *testServer) do(method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return s.do(method, target, "application/json", r)
}

// seed imports testPlaylist and returns the created channels.
func (s *testServer) seed(t *testing.T) []channelResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/api/playlists/import", "text/plain", strings.NewReader(testPlaylist))
	if w.Code != http.StatusCreated {
		t.Fatalf("seed import status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[importResponse](t, w).Channels
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}
