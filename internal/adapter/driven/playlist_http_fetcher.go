package driven

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alorle/iptv-catalog/circuitbreaker"
	port "github.com/alorle/iptv-catalog/internal/port/driven"
	"github.com/alorle/iptv-catalog/metrics"
)

const (
	defaultTimeout = 30 * time.Second

	// playlistAccept lists the playlist media types, then anything.
	playlistAccept = "application/x-mpegURL, application/vnd.apple.mpegurl, text/plain, */*"

	maxPlaylistBytes = 32 << 20
)

// PlaylistHTTPFetcher fetches remote playlists over HTTP.
// It implements the driven.PlaylistFetcher port with two explicit strategies:
// a direct GET and, when that fails, a GET through an allorigins-style relay.
type PlaylistHTTPFetcher struct {
	client   *http.Client
	proxyURL string
	breaker  circuitbreaker.CircuitBreaker
	logger   *slog.Logger
	maxBytes int64
}

// NewPlaylistHTTPFetcher creates a new playlist fetcher.
// An empty proxyURL disables the proxy fallback. If client is nil, a default
// HTTP client with a 30-second timeout is used. breaker may be nil.
func NewPlaylistHTTPFetcher(client *http.Client, proxyURL string, breaker circuitbreaker.CircuitBreaker, logger *slog.Logger) *PlaylistHTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaylistHTTPFetcher{
		client:   client,
		proxyURL: proxyURL,
		breaker:  breaker,
		logger:   logger,
		maxBytes: maxPlaylistBytes,
	}
}

// Fetch retrieves the playlist at rawURL. Failures wrap driven.ErrNetwork and
// carry the cause of every attempted strategy.
func (f *PlaylistHTTPFetcher) Fetch(ctx context.Context, rawURL string) (port.FetchResult, error) {
	content, directErr := f.fetchDirect(ctx, rawURL)
	if directErr == nil {
		metrics.RecordPlaylistFetch(string(port.StrategyDirect), "ok")
		return port.FetchResult{Content: content, Strategy: port.StrategyDirect}, nil
	}
	metrics.RecordPlaylistFetch(string(port.StrategyDirect), "error")

	if f.proxyURL == "" {
		return port.FetchResult{}, fmt.Errorf("%w: direct: %w", port.ErrNetwork, directErr)
	}
	if ctx.Err() != nil {
		return port.FetchResult{}, fmt.Errorf("%w: direct: %w", port.ErrNetwork, directErr)
	}

	f.logger.Info("direct playlist fetch failed, trying proxy", "url", rawURL, "error", directErr)

	var proxyErr error
	fetch := func() error {
		content, proxyErr = f.fetchProxy(ctx, rawURL)
		if proxyErr != nil && ctx.Err() != nil {
			// the caller gave up, the proxy did not fail
			return circuitbreaker.Ignore(proxyErr)
		}
		return proxyErr
	}
	if f.breaker != nil {
		if err := f.breaker.Execute(fetch); err != nil {
			proxyErr = err
		}
	} else {
		_ = fetch()
	}

	if proxyErr != nil {
		metrics.RecordPlaylistFetch(string(port.StrategyProxy), "error")
		return port.FetchResult{}, fmt.Errorf("%w: direct: %w; proxy: %w", port.ErrNetwork, directErr, proxyErr)
	}

	metrics.RecordPlaylistFetch(string(port.StrategyProxy), "ok")
	return port.FetchResult{Content: content, Strategy: port.StrategyProxy}, nil
}

func (f *PlaylistHTTPFetcher) fetchDirect(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", playlistAccept)

	body, err := f.do(req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// proxyResponse is the allorigins /get envelope.
type proxyResponse struct {
	Contents string `json:"contents"`
}

func (f *PlaylistHTTPFetcher) fetchProxy(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(f.proxyURL)
	if err != nil {
		return "", fmt.Errorf("parsing proxy URL: %w", err)
	}
	q := u.Query()
	q.Set("url", rawURL)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating proxy request: %w", err)
	}

	body, err := f.do(req)
	if err != nil {
		return "", err
	}

	var envelope proxyResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decoding proxy response: %w", err)
	}
	if envelope.Contents == "" {
		return "", fmt.Errorf("proxy returned no contents")
	}

	return envelope.Contents, nil
}

func (f *PlaylistHTTPFetcher) do(req *http.Request) ([]byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("playlist exceeds %d bytes", f.maxBytes)
	}
	return body, nil
}
