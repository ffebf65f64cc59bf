package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/alorle/iptv-catalog/internal/port/driven"
)

// mockCatalogStore is a mock implementation of driven.CatalogStore for testing.
// Without overrides it behaves like an in-memory store.
type mockCatalogStore struct {
	getFunc  func(ctx context.Context) ([]byte, error)
	setFunc  func(ctx context.Context, document []byte) error
	pingFunc func(ctx context.Context) error

	mu       sync.Mutex
	document []byte
	sets     int
}

func (m *mockCatalogStore) Get(ctx context.Context) ([]byte, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.document == nil {
		return nil, driven.ErrCatalogNotFound
	}
	return m.document, nil
}

func (m *mockCatalogStore) Set(ctx context.Context, document []byte) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, document)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.document = document
	m.sets++
	return nil
}

func (m *mockCatalogStore) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

func (m *mockCatalogStore) stored() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.document)
}

// mockPlaylistFetcher is a mock implementation of driven.PlaylistFetcher for testing.
type mockPlaylistFetcher struct {
	fetchFunc func(ctx context.Context, url string) (driven.FetchResult, error)
}

func (m *mockPlaylistFetcher) Fetch(ctx context.Context, url string) (driven.FetchResult, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, url)
	}
	return driven.FetchResult{}, fmt.Errorf("%w: not configured", driven.ErrNetwork)
}

// mockPlaybackEngine is a mock implementation of driven.PlaybackEngine for testing.
type mockPlaybackEngine struct {
	openFunc func(ctx context.Context, url string) (driven.PlaybackSession, error)

	mu     sync.Mutex
	opened []string
}

func (m *mockPlaybackEngine) Open(ctx context.Context, url string) (driven.PlaybackSession, error) {
	m.mu.Lock()
	m.opened = append(m.opened, url)
	m.mu.Unlock()
	if m.openFunc != nil {
		return m.openFunc(ctx, url)
	}
	return newMockSession(url), nil
}

func (m *mockPlaybackEngine) openedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.opened...)
}

// mockSession is a mock implementation of driven.PlaybackSession for testing.
type mockSession struct {
	url    string
	errs   chan error
	once   sync.Once
	mu     sync.Mutex
	closed bool
}

func newMockSession(url string) *mockSession {
	return &mockSession{url: url, errs: make(chan error, 1)}
}

func (m *mockSession) StreamURL() string       { return m.url }
func (m *mockSession) Kind() driven.StreamKind { return driven.StreamHLS }
func (m *mockSession) Errors() <-chan error    { return m.errs }

func (m *mockSession) Close() error {
	m.once.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.errs)
	})
	return nil
}

func (m *mockSession) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// fail reports a fatal error and ends the session, as an engine would.
func (m *mockSession) fail(err error) {
	m.once.Do(func() {
		m.errs <- err
		close(m.errs)
	})
}

// sequenceIDs hands out "id-1", "id-2", ...
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
