package driven

import (
	"context"
	"errors"
)

// ErrPlayback is wrapped by fatal stream errors reported by a PlaybackEngine,
// both when opening a stream and asynchronously through PlaybackSession.Errors.
var ErrPlayback = errors.New("playback error")

// StreamKind describes how a stream is delivered.
type StreamKind string

const (
	StreamHLS    StreamKind = "hls"
	StreamDirect StreamKind = "direct"
)

// PlaybackEngine opens streams for playback. It is a driven port; all
// adaptive-bitrate and decoding concerns stay behind it.
type PlaybackEngine interface {
	// Open starts playback of the stream at url. The returned session stays
	// alive until Close is called or ctx is cancelled.
	Open(ctx context.Context, url string) (PlaybackSession, error)
}

// PlaybackSession is a live playback handle.
type PlaybackSession interface {
	// StreamURL returns the URL actually being played, e.g. the selected
	// variant of an HLS master playlist.
	StreamURL() string

	// Kind returns how the stream is delivered.
	Kind() StreamKind

	// Errors delivers fatal errors raised after Open succeeded. The channel
	// is closed when the session ends.
	Errors() <-chan error

	// Close stops playback and releases resources.
	Close() error
}
