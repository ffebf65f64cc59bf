package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/alorle/iptv-catalog/internal/catalog"
	"github.com/alorle/iptv-catalog/internal/channel"
	"github.com/alorle/iptv-catalog/internal/m3u"
	"github.com/alorle/iptv-catalog/internal/notification"
	"github.com/alorle/iptv-catalog/internal/port/driven"
	"github.com/alorle/iptv-catalog/metrics"
)

// Import sources, used as metric labels and log attributes.
const (
	SourceText     = "text"
	SourceFile     = "file"
	SourceURL      = "url"
	SourceDocument = "document"
	SourceManual   = "manual"
)

// ChannelFields are the user-editable fields of a channel.
type ChannelFields struct {
	Name     string
	URL      string
	Logo     string
	Group    string
	Category channel.Category
}

func (f ChannelFields) entry() (channel.Entry, error) {
	return channel.NewEntry(f.Name, f.URL, f.Logo, f.Group, f.Category)
}

// CatalogStats summarizes the catalog.
type CatalogStats struct {
	Counts    map[channel.Category]int
	Total     int
	Favorites int
}

// CatalogService provides use cases for the channel catalog.
// It owns the in-memory catalog; every mutation is written to the store
// before it becomes visible, so a failed write leaves the catalog unchanged.
type CatalogService struct {
	store   driven.CatalogStore
	fetcher driven.PlaylistFetcher
	notices *notification.Center
	ids     catalog.IDGenerator
	logger  *slog.Logger

	mu        sync.Mutex
	catalog   *catalog.Catalog
	listeners []func()

	// importMu serializes fetch-triggered imports.
	importMu sync.Mutex
}

// NewCatalogService creates a CatalogService with an empty catalog.
// Call Hydrate to load the persisted catalog. ids may be nil.
func NewCatalogService(store driven.CatalogStore, fetcher driven.PlaylistFetcher, notices *notification.Center, ids catalog.IDGenerator, logger *slog.Logger) *CatalogService {
	if ids == nil {
		ids = catalog.UUIDGenerator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		store:   store,
		fetcher: fetcher,
		notices: notices,
		ids:     ids,
		logger:  logger,
		catalog: catalog.New(ids),
	}
}

// Hydrate loads the persisted catalog. When nothing was stored yet and
// seedSamples is set, the catalog starts with the demo channels.
// A stored document that cannot be decoded is logged and ignored.
func (s *CatalogService) Hydrate(ctx context.Context, seedSamples bool) error {
	data, err := s.store.Get(ctx)
	switch {
	case errors.Is(err, driven.ErrCatalogNotFound):
		if !seedSamples {
			s.logger.Info("no stored catalog, starting empty")
			return nil
		}
		return s.seed(ctx)
	case err != nil:
		return fmt.Errorf("reading stored catalog: %w", err)
	}

	channels, err := catalog.DecodeDocument(data)
	if err != nil {
		s.logger.Error("stored catalog is unreadable, starting empty", "error", err)
		return nil
	}
	loaded, err := catalog.FromChannels(s.ids, channels)
	if err != nil {
		s.logger.Error("stored catalog is inconsistent, starting empty", "error", err)
		return nil
	}

	s.mu.Lock()
	s.catalog = loaded
	s.updateGauges()
	s.mu.Unlock()

	s.logger.Info("catalog loaded", "channels", loaded.Len())
	return nil
}

func (s *CatalogService) seed(ctx context.Context) error {
	entries, err := sampleEntries()
	if err != nil {
		return fmt.Errorf("building sample channels: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.catalog.Clone()
	next.Merge(entries)
	if err := s.commit(ctx, next); err != nil {
		// Samples are shown even if they could not be stored.
		s.catalog = next
		s.updateGauges()
	}
	s.logger.Info("catalog seeded with sample channels", "channels", next.Len())
	return nil
}

// ListChannels returns channels in catalog order, optionally restricted to a
// category and to favorites.
func (s *CatalogService) ListChannels(category *channel.Category, favoritesOnly bool) []channel.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()

	var channels []channel.Channel
	if category != nil {
		channels = s.catalog.ByCategory(*category)
	} else {
		channels = s.catalog.Channels()
	}
	if !favoritesOnly {
		return channels
	}

	favorites := channels[:0]
	for _, ch := range channels {
		if ch.IsFavorite() {
			favorites = append(favorites, ch)
		}
	}
	return favorites
}

// GetChannel returns the channel with the given id.
// Returns channel.ErrChannelNotFound if it does not exist.
func (s *CatalogService) GetChannel(id string) (channel.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.catalog.Get(id)
	if !ok {
		return channel.Channel{}, channel.ErrChannelNotFound
	}
	return ch, nil
}

// Stats returns per-category counts, the total and the number of favorites.
func (s *CatalogService) Stats() CatalogStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return CatalogStats{
		Counts:    s.catalog.Counts(),
		Total:     s.catalog.Len(),
		Favorites: len(s.catalog.Favorites()),
	}
}

// AddChannel adds a single manually entered channel.
func (s *CatalogService) AddChannel(ctx context.Context, fields ChannelFields) (channel.Channel, error) {
	entry, err := fields.entry()
	if err != nil {
		return channel.Channel{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.catalog.Clone()
	added := next.Merge([]channel.Entry{entry})
	if err := s.commit(ctx, next); err != nil {
		return channel.Channel{}, err
	}

	s.logger.Info("channel added", "channel_id", added[0].ID(), "source", SourceManual)
	return added[0], nil
}

// PreviewPlaylist parses playlist text without touching the catalog.
func (s *CatalogService) PreviewPlaylist(text string) ([]channel.Entry, error) {
	entries := m3u.Parse(text)
	if len(entries) == 0 {
		return nil, ErrNoChannelsFound
	}
	return entries, nil
}

// PreviewPlaylistURL fetches and parses a remote playlist without touching the catalog.
func (s *CatalogService) PreviewPlaylistURL(ctx context.Context, rawURL string) ([]channel.Entry, error) {
	rawURL, err := normalizePlaylistURL(rawURL)
	if err != nil {
		return nil, err
	}

	result, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.notify(notification.KindNetwork, "Failed to fetch playlist: "+err.Error())
		return nil, err
	}
	return s.PreviewPlaylist(result.Content)
}

// ImportPlaylistText parses playlist text and merges the entries into the catalog.
// Returns ErrNoChannelsFound if the text yields no entries.
func (s *CatalogService) ImportPlaylistText(ctx context.Context, text string) ([]channel.Channel, error) {
	return s.importEntries(ctx, SourceText, m3u.Parse(text))
}

// ReadUpload reads an uploaded file or request body. A failure is surfaced as
// a read notice and returned wrapping ErrRead.
func (s *CatalogService) ReadUpload(name string, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		s.notify(notification.KindRead, "Failed to read file "+name)
		return nil, fmt.Errorf("%w %s: %w", ErrRead, name, err)
	}
	return data, nil
}

// ImportPlaylistFile reads an uploaded playlist and merges its entries.
// Returns an error wrapping ErrRead if r fails.
func (s *CatalogService) ImportPlaylistFile(ctx context.Context, name string, r io.Reader) ([]channel.Channel, error) {
	data, err := s.ReadUpload(name, r)
	if err != nil {
		metrics.RecordPlaylistImport(SourceFile, "error", 0)
		return nil, err
	}
	return s.importEntries(ctx, SourceFile, m3u.Parse(string(data)))
}

// ImportPlaylistURL fetches a remote playlist and merges its entries.
// Only one URL import runs at a time; a concurrent call returns
// ErrImportInProgress. A fetch failure leaves the catalog untouched.
func (s *CatalogService) ImportPlaylistURL(ctx context.Context, rawURL string) ([]channel.Channel, error) {
	rawURL, err := normalizePlaylistURL(rawURL)
	if err != nil {
		return nil, err
	}

	if !s.importMu.TryLock() {
		return nil, ErrImportInProgress
	}
	defer s.importMu.Unlock()

	result, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		metrics.RecordPlaylistImport(SourceURL, "error", 0)
		s.notify(notification.KindNetwork, "Failed to fetch playlist: "+err.Error())
		s.logger.Warn("playlist fetch failed", "url", rawURL, "error", err)
		return nil, err
	}
	s.logger.Debug("playlist fetched", "url", rawURL, "strategy", result.Strategy)

	return s.importEntries(ctx, SourceURL, m3u.Parse(result.Content))
}

func (s *CatalogService) importEntries(ctx context.Context, source string, entries []channel.Entry) ([]channel.Channel, error) {
	if len(entries) == 0 {
		metrics.RecordPlaylistImport(source, "empty", 0)
		s.notify(notification.KindParse, "No valid channels found in the playlist")
		return nil, ErrNoChannelsFound
	}

	s.mu.Lock()
	next := s.catalog.Clone()
	added := next.Merge(entries)
	err := s.commit(ctx, next)
	s.mu.Unlock()

	if err != nil {
		metrics.RecordPlaylistImport(source, "error", 0)
		return nil, err
	}

	metrics.RecordPlaylistImport(source, "ok", len(added))
	s.notify(notification.KindInfo, fmt.Sprintf("Successfully imported %d channels", len(added)))
	s.logger.Info("playlist imported", "source", source, "channels", len(added))
	return added, nil
}

// ToggleFavorite flips the favorite flag of a channel.
// Returns channel.ErrChannelNotFound if it does not exist.
func (s *CatalogService) ToggleFavorite(ctx context.Context, id string) (channel.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.catalog.Clone()
	ch, ok := next.ToggleFavorite(id)
	if !ok {
		return channel.Channel{}, channel.ErrChannelNotFound
	}
	if err := s.commit(ctx, next); err != nil {
		return channel.Channel{}, err
	}
	return ch, nil
}

// UpdateChannel replaces the editable fields of a channel, keeping its id
// and favorite flag.
func (s *CatalogService) UpdateChannel(ctx context.Context, id string, fields ChannelFields) (channel.Channel, error) {
	entry, err := fields.entry()
	if err != nil {
		return channel.Channel{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.catalog.Clone()
	ch, err := next.Update(id, entry)
	if err != nil {
		return channel.Channel{}, err
	}
	if err := s.commit(ctx, next); err != nil {
		return channel.Channel{}, err
	}
	return ch, nil
}

// DeleteChannel removes a channel. Deleting the active channel clears the
// selection and notifies selection listeners.
func (s *CatalogService) DeleteChannel(ctx context.Context, id string) error {
	s.mu.Lock()
	next := s.catalog.Clone()
	removed, selectionCleared := next.Remove(id)
	if !removed {
		s.mu.Unlock()
		return channel.ErrChannelNotFound
	}
	err := s.commit(ctx, next)
	listeners := s.listeners
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.logger.Info("channel deleted", "channel_id", id)
	if selectionCleared {
		notifyAll(listeners)
	}
	return nil
}

// ClearAll removes every channel and the active selection.
func (s *CatalogService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	_, hadSelection := s.catalog.Active()
	next := s.catalog.Clone()
	next.Clear()
	err := s.commit(ctx, next)
	listeners := s.listeners
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.logger.Info("catalog cleared")
	if hadSelection {
		notifyAll(listeners)
	}
	return nil
}

// Export returns the catalog as a JSON document.
func (s *CatalogService) Export(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return catalog.EncodeDocument(s.catalog.Channels())
}

// ImportDocument appends the channels of an exported JSON document, keeping
// their ids and favorite flags. It returns an error wrapping
// catalog.ErrInvalidDocument for malformed input and channel.ErrDuplicateID
// when an id already exists; in both cases the catalog is unchanged.
func (s *CatalogService) ImportDocument(ctx context.Context, data []byte) ([]channel.Channel, error) {
	channels, err := catalog.DecodeDocument(data)
	if err != nil {
		metrics.RecordPlaylistImport(SourceDocument, "error", 0)
		s.notify(notification.KindFormat, "Invalid JSON file")
		return nil, err
	}

	s.mu.Lock()
	next := s.catalog.Clone()
	if err := next.Append(channels); err != nil {
		s.mu.Unlock()
		metrics.RecordPlaylistImport(SourceDocument, "error", 0)
		s.notify(notification.KindFormat, "Imported channels conflict with existing channels")
		return nil, err
	}
	err = s.commit(ctx, next)
	s.mu.Unlock()

	if err != nil {
		metrics.RecordPlaylistImport(SourceDocument, "error", 0)
		return nil, err
	}

	metrics.RecordPlaylistImport(SourceDocument, "ok", len(channels))
	s.notify(notification.KindInfo, fmt.Sprintf("Successfully imported %d channels", len(channels)))
	return channels, nil
}

// ExportM3U writes the catalog as an M3U playlist.
func (s *CatalogService) ExportM3U(w io.Writer) error {
	s.mu.Lock()
	channels := s.catalog.Channels()
	s.mu.Unlock()

	enc := m3u.NewEncoder()
	for _, ch := range channels {
		enc.AddChannel(ch)
	}
	return enc.Encode(w)
}

// Select makes a channel the active selection. The selection is not persisted.
func (s *CatalogService) Select(id string) (channel.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Select(id)
}

// Active returns the selected channel, if any.
func (s *CatalogService) Active() (channel.Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Active()
}

// ClearSelection unsets the active selection without notifying listeners.
func (s *CatalogService) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog.ClearSelection()
}

// OnSelectionCleared registers fn to run after a delete or clear-all removes
// the active selection. fn runs without the catalog lock held.
func (s *CatalogService) OnSelectionCleared(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// commit persists next and makes it the current catalog. Must be called with mu held.
func (s *CatalogService) commit(ctx context.Context, next *catalog.Catalog) error {
	doc, err := catalog.EncodeDocument(next.Channels())
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := s.store.Set(ctx, doc); err != nil {
		metrics.RecordCatalogPersistFailure()
		s.notify(notification.KindRead, "Failed to save channels")
		s.logger.Error("failed to persist catalog", "error", err)
		return fmt.Errorf("persisting catalog: %w", err)
	}

	s.catalog = next
	s.updateGauges()
	return nil
}

// updateGauges must be called with mu held.
func (s *CatalogService) updateGauges() {
	for cat, n := range s.catalog.Counts() {
		metrics.SetCatalogChannels(cat.String(), n)
	}
}

func (s *CatalogService) notify(kind notification.Kind, message string) {
	if s.notices != nil {
		s.notices.Push(kind, message)
	}
}

func notifyAll(listeners []func()) {
	for _, fn := range listeners {
		fn()
	}
}

// normalizePlaylistURL trims rawURL and checks it is an absolute http(s) URL.
func normalizePlaylistURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrInvalidPlaylistURL
	}
	return rawURL, nil
}
