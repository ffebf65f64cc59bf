package application

import "errors"

// Use-case errors. Adapter errors (driven.ErrNetwork, driven.ErrPlayback) and
// catalog.ErrInvalidDocument pass through wrapped.
var (
	// ErrNoChannelsFound is returned when a playlist yields no entries.
	// The catalog is left untouched.
	ErrNoChannelsFound = errors.New("no valid channels found in the playlist")

	// ErrRead is returned when an uploaded file cannot be read.
	ErrRead = errors.New("failed to read file")

	// ErrInvalidPlaylistURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidPlaylistURL = errors.New("playlist url must be an absolute http or https url")

	// ErrImportInProgress is returned when a URL import is requested while
	// another one is still outstanding.
	ErrImportInProgress = errors.New("a playlist import is already in progress")

	// ErrNothingToRetry is returned by Retry when no channel is selected.
	ErrNothingToRetry = errors.New("no channel selected for playback")
)
