package driven

import (
	port "github.com/alorle/iptv-catalog/internal/port/driven"
)

// Compile-time check that CatalogBoltDBStore implements CatalogStore interface
var _ port.CatalogStore = (*CatalogBoltDBStore)(nil)

// Compile-time check that PlaylistHTTPFetcher implements PlaylistFetcher interface
var _ port.PlaylistFetcher = (*PlaylistHTTPFetcher)(nil)

// Compile-time check that HLSPlaybackEngine implements PlaybackEngine interface
var _ port.PlaybackEngine = (*HLSPlaybackEngine)(nil)

// Compile-time check that playbackSession implements PlaybackSession interface
var _ port.PlaybackSession = (*playbackSession)(nil)
