package driven

import (
	"context"
	"errors"
)

// ErrNetwork is wrapped by every PlaylistFetcher failure: the request could
// not be made, or the server answered with a non-success status.
var ErrNetwork = errors.New("network error")

// FetchStrategy records how playlist text was obtained.
type FetchStrategy string

const (
	StrategyDirect FetchStrategy = "direct"
	StrategyProxy  FetchStrategy = "proxy"
)

// FetchResult is the successful outcome of a playlist fetch.
type FetchResult struct {
	Content  string
	Strategy FetchStrategy
}

// PlaylistFetcher retrieves remote playlist text.
// Implementations try the URL directly first and may fall back to a proxy.
type PlaylistFetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}
