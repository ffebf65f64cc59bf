package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alorle/iptv-catalog/internal/channel"
	"github.com/alorle/iptv-catalog/internal/notification"
	"github.com/alorle/iptv-catalog/internal/port/driven"
	"github.com/alorle/iptv-catalog/metrics"
)

// PlaybackState is the state of the player.
type PlaybackState string

const (
	PlaybackIdle    PlaybackState = "idle"
	PlaybackLoading PlaybackState = "loading"
	PlaybackPlaying PlaybackState = "playing"
	PlaybackFailed  PlaybackState = "failed"
)

// PlaybackStatus is a snapshot of the player.
type PlaybackStatus struct {
	State     PlaybackState
	Channel   *channel.Channel
	StreamURL string
	Kind      driven.StreamKind
	Error     string
}

// PlaybackService plays the selected channel through a PlaybackEngine.
// Fatal stream errors leave the player in the failed state with a persistent
// notice until the user retries or selects another channel.
type PlaybackService struct {
	ctx     context.Context
	catalog *CatalogService
	engine  driven.PlaybackEngine
	notices *notification.Center
	logger  *slog.Logger

	mu         sync.Mutex
	generation uint64
	session    driven.PlaybackSession
	channel    *channel.Channel
	state      PlaybackState
	lastErr    string
}

// NewPlaybackService creates a PlaybackService. Sessions live until stopped or
// until ctx is cancelled. Playback stops when the catalog clears the selection.
func NewPlaybackService(ctx context.Context, catalog *CatalogService, engine driven.PlaybackEngine, notices *notification.Center, logger *slog.Logger) *PlaybackService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PlaybackService{
		ctx:     ctx,
		catalog: catalog,
		engine:  engine,
		notices: notices,
		logger:  logger,
		state:   PlaybackIdle,
	}
	catalog.OnSelectionCleared(s.Stop)
	return s
}

// Play selects the channel and starts playing it, replacing any current session.
// Returns channel.ErrChannelNotFound if it does not exist, or an error
// wrapping driven.ErrPlayback if the stream cannot be opened.
func (s *PlaybackService) Play(ctx context.Context, id string) (PlaybackStatus, error) {
	if err := ctx.Err(); err != nil {
		return PlaybackStatus{}, err
	}

	ch, err := s.catalog.Select(id)
	if err != nil {
		return PlaybackStatus{}, err
	}
	s.dismissPlaybackNotices()

	return s.start(ch)
}

// Retry re-opens the stream of the selected channel. The catalog is not modified.
// Returns ErrNothingToRetry if no channel is selected.
func (s *PlaybackService) Retry(ctx context.Context) (PlaybackStatus, error) {
	if err := ctx.Err(); err != nil {
		return PlaybackStatus{}, err
	}

	ch, ok := s.catalog.Active()
	if !ok {
		return PlaybackStatus{}, ErrNothingToRetry
	}
	s.dismissPlaybackNotices()

	return s.start(ch)
}

// Stop ends the current session and clears the selection.
func (s *PlaybackService) Stop() {
	s.mu.Lock()
	s.generation++
	prev := s.session
	s.session = nil
	s.channel = nil
	s.state = PlaybackIdle
	s.lastErr = ""
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	s.catalog.ClearSelection()
	s.dismissPlaybackNotices()
}

// Status returns the current player state.
func (s *PlaybackService) Status() PlaybackStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *PlaybackService) statusLocked() PlaybackStatus {
	status := PlaybackStatus{
		State: s.state,
		Error: s.lastErr,
	}
	if s.channel != nil {
		ch := *s.channel
		status.Channel = &ch
	}
	if s.session != nil {
		status.StreamURL = s.session.StreamURL()
		status.Kind = s.session.Kind()
	}
	return status
}

func (s *PlaybackService) start(ch channel.Channel) (PlaybackStatus, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	prev := s.session
	s.session = nil
	s.channel = &ch
	s.state = PlaybackLoading
	s.lastErr = ""
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}

	session, err := s.engine.Open(s.ctx, ch.URL())

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// Superseded by another Play, Retry or Stop.
		if session != nil {
			_ = session.Close()
		}
		return s.statusLocked(), nil
	}
	if err != nil {
		s.failLocked(ch, err)
		return s.statusLocked(), err
	}

	s.session = session
	s.state = PlaybackPlaying
	s.logger.Info("playback started",
		"channel_id", ch.ID(),
		"url", session.StreamURL(),
		"kind", session.Kind(),
	)
	go s.watch(gen, ch, session)

	return s.statusLocked(), nil
}

// watch waits for asynchronous fatal errors of a session.
func (s *PlaybackService) watch(gen uint64, ch channel.Channel, session driven.PlaybackSession) {
	for err := range session.Errors() {
		s.mu.Lock()
		if gen == s.generation {
			s.failLocked(ch, err)
		}
		s.mu.Unlock()
	}
}

// failLocked must be called with mu held.
func (s *PlaybackService) failLocked(ch channel.Channel, err error) {
	s.state = PlaybackFailed
	s.lastErr = err.Error()
	metrics.RecordPlaybackError()
	s.logger.Error("playback failed", "channel_id", ch.ID(), "url", ch.URL(), "error", err)
	if s.notices != nil {
		s.notices.Push(notification.KindPlayback, "Playback error: "+err.Error())
	}
}

func (s *PlaybackService) dismissPlaybackNotices() {
	if s.notices != nil {
		s.notices.DismissKind(notification.KindPlayback)
	}
}
