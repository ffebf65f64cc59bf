package catalog

import (
	"slices"

	"github.com/alorle/iptv-catalog/internal/channel"
)

// Catalog is the collection of channels shown to the user. Channels are
// indexed by id and kept in insertion order. It also tracks the active
// selection, which is the channel currently being played.
//
// A Catalog is not safe for concurrent use.
type Catalog struct {
	ids    IDGenerator
	byID   map[string]channel.Channel
	order  []string
	active string
}

// New creates an empty catalog that assigns ids with the given generator.
func New(ids IDGenerator) *Catalog {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Catalog{
		ids:  ids,
		byID: make(map[string]channel.Channel),
	}
}

// FromChannels creates a catalog holding channels in the given order.
// Returns channel.ErrDuplicateID if two channels share an id.
func FromChannels(ids IDGenerator, channels []channel.Channel) (*Catalog, error) {
	c := New(ids)
	if err := c.Append(channels); err != nil {
		return nil, err
	}
	return c, nil
}

// Clone returns an independent copy of the catalog, selection included.
func (c *Catalog) Clone() *Catalog {
	clone := &Catalog{
		ids:    c.ids,
		byID:   make(map[string]channel.Channel, len(c.byID)),
		order:  slices.Clone(c.order),
		active: c.active,
	}
	for id, ch := range c.byID {
		clone.byID[id] = ch
	}
	return clone
}

// Len returns the number of channels.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Channels returns every channel in catalog order.
func (c *Catalog) Channels() []channel.Channel {
	return c.filter(func(channel.Channel) bool { return true })
}

// Get returns the channel with the given id.
func (c *Catalog) Get(id string) (channel.Channel, bool) {
	ch, ok := c.byID[id]
	return ch, ok
}

// Merge commits parsed or manually entered entries to the catalog.
// Each entry gets a fresh id that differs from every id already in the
// catalog, including ids assigned earlier in the same batch. Entries are
// appended as non-favorites; existing channels are left untouched and no
// deduplication by name or url is performed.
func (c *Catalog) Merge(entries []channel.Entry) []channel.Channel {
	added := make([]channel.Channel, 0, len(entries))
	for _, e := range entries {
		ch := channel.ReconstructChannel(c.nextID(), e, false)
		c.insert(ch)
		added = append(added, ch)
	}
	return added
}

// Append adds channels keeping the ids they carry. It is all-or-nothing:
// if any id is already in the catalog or repeats within channels, it returns
// channel.ErrDuplicateID and the catalog is unchanged.
func (c *Catalog) Append(channels []channel.Channel) error {
	seen := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		if ch.ID() == "" {
			return channel.ErrEmptyID
		}
		if _, exists := c.byID[ch.ID()]; exists {
			return channel.ErrDuplicateID
		}
		if _, repeated := seen[ch.ID()]; repeated {
			return channel.ErrDuplicateID
		}
		seen[ch.ID()] = struct{}{}
	}

	for _, ch := range channels {
		c.insert(ch)
	}
	return nil
}

// ByCategory returns the channels in category, in catalog order.
func (c *Catalog) ByCategory(category channel.Category) []channel.Channel {
	return c.filter(func(ch channel.Channel) bool { return ch.Category() == category })
}

// Favorites returns the favorite channels, in catalog order.
func (c *Catalog) Favorites() []channel.Channel {
	return c.filter(channel.Channel.IsFavorite)
}

// Counts returns the number of channels per category. Every category is
// present in the result, with zero when empty.
func (c *Catalog) Counts() map[channel.Category]int {
	counts := make(map[channel.Category]int, len(channel.Categories()))
	for _, cat := range channel.Categories() {
		counts[cat] = 0
	}
	for _, ch := range c.byID {
		counts[ch.Category()]++
	}
	return counts
}

// ToggleFavorite flips the favorite flag of the channel with the given id.
// It is a no-op returning false if the id is absent.
func (c *Catalog) ToggleFavorite(id string) (channel.Channel, bool) {
	ch, ok := c.byID[id]
	if !ok {
		return channel.Channel{}, false
	}
	ch.ToggleFavorite()
	c.byID[id] = ch
	return ch, true
}

// Update replaces the descriptive fields of a channel.
// Returns channel.ErrChannelNotFound if the id is absent.
func (c *Catalog) Update(id string, entry channel.Entry) (channel.Channel, error) {
	ch, ok := c.byID[id]
	if !ok {
		return channel.Channel{}, channel.ErrChannelNotFound
	}
	ch.Edit(entry)
	c.byID[id] = ch
	return ch, nil
}

// Remove deletes the channel with the given id. If it was the active
// selection, the selection is cleared.
func (c *Catalog) Remove(id string) (removed, selectionCleared bool) {
	if _, ok := c.byID[id]; !ok {
		return false, false
	}

	delete(c.byID, id)
	if i := slices.Index(c.order, id); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}

	if c.active == id {
		c.active = ""
		return true, true
	}
	return true, false
}

// Clear removes every channel and the active selection.
func (c *Catalog) Clear() {
	c.byID = make(map[string]channel.Channel)
	c.order = nil
	c.active = ""
}

// Select makes the channel with the given id the active selection.
// Returns channel.ErrChannelNotFound if the id is absent.
func (c *Catalog) Select(id string) (channel.Channel, error) {
	ch, ok := c.byID[id]
	if !ok {
		return channel.Channel{}, channel.ErrChannelNotFound
	}
	c.active = id
	return ch, nil
}

// Active returns the selected channel, if any.
func (c *Catalog) Active() (channel.Channel, bool) {
	if c.active == "" {
		return channel.Channel{}, false
	}
	return c.Get(c.active)
}

// ClearSelection unsets the active selection.
func (c *Catalog) ClearSelection() {
	c.active = ""
}

func (c *Catalog) insert(ch channel.Channel) {
	c.byID[ch.ID()] = ch
	c.order = append(c.order, ch.ID())
}

func (c *Catalog) nextID() string {
	for {
		id := c.ids.NewID()
		if id == "" {
			continue
		}
		if _, taken := c.byID[id]; !taken {
			return id
		}
	}
}

func (c *Catalog) filter(keep func(channel.Channel) bool) []channel.Channel {
	out := make([]channel.Channel, 0, len(c.order))
	for _, id := range c.order {
		if ch := c.byID[id]; keep(ch) {
			out = append(out, ch)
		}
	}
	return out
}
