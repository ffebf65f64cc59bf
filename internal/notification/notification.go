// Package notification keeps the user-visible messages produced by catalog
// and playback operations. Most notices expire on their own after a fixed
// delay; playback failures stay until they are dismissed.
package notification

import (
	"sort"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a transient notice stays visible.
const DefaultTTL = 5 * time.Second

// Kind identifies the operation outcome a notice reports.
type Kind string

const (
	KindInfo     Kind = "info"
	KindParse    Kind = "parse"
	KindNetwork  Kind = "network"
	KindRead     Kind = "read"
	KindFormat   Kind = "format"
	KindPlayback Kind = "playback"
)

// Persistent reports whether notices of this kind must be dismissed explicitly.
func (k Kind) Persistent() bool {
	return k == KindPlayback
}

// Notice is a single message for the user.
type Notice struct {
	ID         string
	Kind       Kind
	Message    string
	CreatedAt  time.Time
	Persistent bool
}

// Center stores notices. It is safe for concurrent use.
type Center struct {
	cache *gocache.Cache
	now   func() time.Time
}

// NewCenter creates a Center whose transient notices expire after ttl.
// A non-positive ttl selects DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		cache: gocache.New(ttl, 2*ttl),
		now:   time.Now,
	}
}

// Push records a new notice and returns it.
func (c *Center) Push(kind Kind, message string) Notice {
	n := Notice{
		ID:         uuid.NewString(),
		Kind:       kind,
		Message:    message,
		CreatedAt:  c.now(),
		Persistent: kind.Persistent(),
	}

	if n.Persistent {
		c.cache.Set(n.ID, n, gocache.NoExpiration)
	} else {
		c.cache.SetDefault(n.ID, n)
	}
	return n
}

// List returns the notices that have not expired or been dismissed, oldest first.
func (c *Center) List() []Notice {
	items := c.cache.Items()
	notices := make([]Notice, 0, len(items))
	for _, item := range items {
		if n, ok := item.Object.(Notice); ok {
			notices = append(notices, n)
		}
	}
	sort.Slice(notices, func(i, j int) bool {
		if notices[i].CreatedAt.Equal(notices[j].CreatedAt) {
			return notices[i].ID < notices[j].ID
		}
		return notices[i].CreatedAt.Before(notices[j].CreatedAt)
	})
	return notices
}

// Dismiss removes a notice. It reports whether the notice was present.
func (c *Center) Dismiss(id string) bool {
	if _, ok := c.cache.Get(id); !ok {
		return false
	}
	c.cache.Delete(id)
	return true
}

// DismissKind removes every notice of the given kind.
func (c *Center) DismissKind(kind Kind) {
	for id, item := range c.cache.Items() {
		if n, ok := item.Object.(Notice); ok && n.Kind == kind {
			c.cache.Delete(id)
		}
	}
}
