package driven

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/grafov/m3u8"

	port "github.com/alorle/iptv-catalog/internal/port/driven"
)

const defaultMaxRefreshFailures = 3

// HLSPlaybackEngine implements the PlaybackEngine port.
// URLs mentioning m3u8 are treated as HLS: the manifest is resolved to a media
// playlist and live playlists are refreshed to detect a dead stream. Any other
// URL is a direct stream that only has to answer successfully.
type HLSPlaybackEngine struct {
	client       *http.Client
	maxFailures  int
	logger       *slog.Logger
	refreshEvery func(*m3u8.MediaPlaylist) time.Duration
}

// NewHLSPlaybackEngine creates a playback engine. maxFailures is the number of
// consecutive live refresh failures tolerated before the session fails.
func NewHLSPlaybackEngine(client *http.Client, maxFailures int, logger *slog.Logger) *HLSPlaybackEngine {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if maxFailures <= 0 {
		maxFailures = defaultMaxRefreshFailures
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HLSPlaybackEngine{
		client:       client,
		maxFailures:  maxFailures,
		logger:       logger,
		refreshEvery: targetDuration,
	}
}

func targetDuration(pl *m3u8.MediaPlaylist) time.Duration {
	d := time.Duration(pl.TargetDuration * float64(time.Second))
	if d < time.Second {
		d = time.Second
	}
	return d
}

// Open starts playback of streamURL. Monitoring of live HLS streams runs until
// the session is closed or ctx is cancelled.
func (e *HLSPlaybackEngine) Open(ctx context.Context, streamURL string) (port.PlaybackSession, error) {
	if !strings.Contains(streamURL, "m3u8") {
		return e.openDirect(ctx, streamURL)
	}
	return e.openHLS(ctx, streamURL)
}

func (e *HLSPlaybackEngine) openDirect(ctx context.Context, streamURL string) (port.PlaybackSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", port.ErrPlayback, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", port.ErrPlayback, err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected HTTP status: %d", port.ErrPlayback, resp.StatusCode)
	}

	s := newPlaybackSession(port.StreamDirect, streamURL)
	s.idle()
	return s, nil
}

func (e *HLSPlaybackEngine) openHLS(ctx context.Context, manifestURL string) (port.PlaybackSession, error) {
	playlist, listType, err := e.load(ctx, manifestURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", port.ErrPlayback, err)
	}

	mediaURL := manifestURL
	if listType == m3u8.MASTER {
		mediaURL, err = selectVariant(manifestURL, playlist.(*m3u8.MasterPlaylist))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", port.ErrPlayback, err)
		}

		playlist, listType, err = e.load(ctx, mediaURL)
		if err != nil {
			return nil, fmt.Errorf("%w: loading variant: %w", port.ErrPlayback, err)
		}
		if listType != m3u8.MEDIA {
			return nil, fmt.Errorf("%w: variant %s is not a media playlist", port.ErrPlayback, mediaURL)
		}
	}

	media := playlist.(*m3u8.MediaPlaylist)
	if media.Closed && media.Count() == 0 {
		return nil, fmt.Errorf("%w: playlist has no segments", port.ErrPlayback)
	}

	s := newPlaybackSession(port.StreamHLS, mediaURL)
	if media.Closed {
		s.idle()
		return s, nil
	}

	interval := e.refreshEvery(media)
	sessionCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.start(func() {
		e.monitor(sessionCtx, s, mediaURL, interval)
	})
	return s, nil
}

// monitor refreshes a live media playlist until the session ends, the
// playlist is closed, or refreshes fail maxFailures times in a row.
// ctx is cancelled by Close, which aborts an in-flight refresh.
func (e *HLSPlaybackEngine) monitor(ctx context.Context, s *playbackSession, mediaURL string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
		}
		// the ticker can win the select after Close
		if ctx.Err() != nil {
			return
		}

		playlist, listType, err := e.load(ctx, mediaURL)
		if err == nil && listType != m3u8.MEDIA {
			err = errors.New("refresh returned a master playlist")
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			e.logger.Warn("live playlist refresh failed",
				"url", mediaURL,
				"failures", failures,
				"error", err,
			)
			if failures >= e.maxFailures {
				s.errs <- fmt.Errorf("%w: stream stopped responding after %d attempts: %w", port.ErrPlayback, failures, err)
				return
			}
			continue
		}

		failures = 0
		if playlist.(*m3u8.MediaPlaylist).Closed {
			e.logger.Debug("live playlist ended", "url", mediaURL)
			return
		}
	}
}

func (e *HLSPlaybackEngine) load(ctx context.Context, playlistURL string) (m3u8.Playlist, m3u8.ListType, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playlistURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", playlistAccept)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode)
	}

	playlist, listType, err := m3u8.DecodeFrom(bufio.NewReader(resp.Body), true)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding playlist: %w", err)
	}
	return playlist, listType, nil
}

// selectVariant returns the absolute URL of the highest-bandwidth variant.
func selectVariant(masterURL string, master *m3u8.MasterPlaylist) (string, error) {
	var best *m3u8.Variant
	for _, v := range master.Variants {
		if v == nil {
			continue
		}
		if best == nil || v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	if best == nil {
		return "", errors.New("master playlist has no variants")
	}

	base, err := url.Parse(masterURL)
	if err != nil {
		return "", fmt.Errorf("parsing master URL: %w", err)
	}
	ref, err := url.Parse(strings.TrimSpace(best.URI))
	if err != nil {
		return "", fmt.Errorf("parsing variant URI: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// playbackSession implements port.PlaybackSession.
type playbackSession struct {
	streamURL string
	kind      port.StreamKind

	errs      chan error
	done      chan struct{}
	finished  chan struct{}
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newPlaybackSession(kind port.StreamKind, streamURL string) *playbackSession {
	return &playbackSession{
		streamURL: streamURL,
		kind:      kind,
		errs:      make(chan error, 1),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
	}
}

// start runs monitor in its own goroutine. Errors is closed when it returns.
func (s *playbackSession) start(monitor func()) {
	go func() {
		defer close(s.finished)
		defer close(s.errs)
		defer func() {
			if s.cancel != nil {
				s.cancel()
			}
		}()
		monitor()
	}()
}

// idle marks a session that has nothing to monitor.
func (s *playbackSession) idle() {
	close(s.errs)
	close(s.finished)
}

func (s *playbackSession) StreamURL() string     { return s.streamURL }
func (s *playbackSession) Kind() port.StreamKind { return s.kind }
func (s *playbackSession) Errors() <-chan error  { return s.errs }

func (s *playbackSession) Close() error {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		close(s.done)
	})
	<-s.finished
	return nil
}
