package channel

import (
	"strings"
)

// Entry is a playable stream described by a playlist or a form, before it
// has been committed to the catalog.
type Entry struct {
	name     string
	url      string
	logo     string
	group    string
	category Category
}

// NewEntry creates a new Entry. Name and url are trimmed and must not be empty;
// logo and group are optional. The url scheme is not checked.
func NewEntry(name, url, logo, group string, category Category) (Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, ErrEmptyName
	}

	url = strings.TrimSpace(url)
	if url == "" {
		return Entry{}, ErrEmptyURL
	}

	if !category.Valid() {
		return Entry{}, ErrInvalidCategory
	}

	return Entry{
		name:     name,
		url:      url,
		logo:     strings.TrimSpace(logo),
		group:    strings.TrimSpace(group),
		category: category,
	}, nil
}

// Name returns the display name.
func (e Entry) Name() string {
	return e.name
}

// URL returns the playback URI.
func (e Entry) URL() string {
	return e.url
}

// Logo returns the image URI, or an empty string.
func (e Entry) Logo() string {
	return e.logo
}

// Group returns the free-text group label, or an empty string.
func (e Entry) Group() string {
	return e.group
}

// Category returns the entry's category.
func (e Entry) Category() Category {
	return e.category
}

// Channel represents a member of the channel catalog.
// It is an Entry with a catalog-assigned identity and a favorite flag.
type Channel struct {
	id       string
	entry    Entry
	favorite bool
}

// NewChannel creates a new, non-favorite Channel for the given entry.
// Returns ErrEmptyID if id is empty or contains only whitespace.
func NewChannel(id string, entry Entry) (Channel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Channel{}, ErrEmptyID
	}
	return Channel{id: id, entry: entry}, nil
}

// ReconstructChannel recreates a Channel from persisted or imported data.
// It performs no validation and must only be fed values that were validated before.
func ReconstructChannel(id string, entry Entry, favorite bool) Channel {
	return Channel{id: id, entry: entry, favorite: favorite}
}

// ID returns the catalog identifier.
func (c Channel) ID() string {
	return c.id
}

// Entry returns the channel's descriptive fields.
func (c Channel) Entry() Entry {
	return c.entry
}

// Name returns the display name.
func (c Channel) Name() string {
	return c.entry.name
}

// URL returns the playback URI.
func (c Channel) URL() string {
	return c.entry.url
}

// Logo returns the image URI, or an empty string.
func (c Channel) Logo() string {
	return c.entry.logo
}

// Group returns the group label, or an empty string.
func (c Channel) Group() string {
	return c.entry.group
}

// Category returns the channel's category.
func (c Channel) Category() Category {
	return c.entry.category
}

// IsFavorite reports whether the channel is marked as favorite.
func (c Channel) IsFavorite() bool {
	return c.favorite
}

// ToggleFavorite flips the favorite flag.
func (c *Channel) ToggleFavorite() {
	c.favorite = !c.favorite
}

// Edit replaces the descriptive fields, keeping the id and favorite flag.
func (c *Channel) Edit(entry Entry) {
	c.entry = entry
}
