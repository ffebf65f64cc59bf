package catalog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alorle/iptv-catalog/internal/channel"
)

// ErrInvalidDocument is returned when an export document cannot be read back
// as a list of channels.
var ErrInvalidDocument = errors.New("invalid catalog document")

// channelDocument is the JSON form of a channel in export documents and in
// the persisted catalog.
type channelDocument struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	URL        string           `json:"url"`
	Logo       string           `json:"logo,omitempty"`
	Category   channel.Category `json:"category"`
	Group      string           `json:"group,omitempty"`
	IsFavorite bool             `json:"isFavorite"`
}

// EncodeDocument serializes channels as a pretty-printed JSON array, one
// object per channel and nothing else around it.
func EncodeDocument(channels []channel.Channel) ([]byte, error) {
	docs := make([]channelDocument, len(channels))
	for i, ch := range channels {
		docs[i] = channelDocument{
			ID:         ch.ID(),
			Name:       ch.Name(),
			URL:        ch.URL(),
			Logo:       ch.Logo(),
			Category:   ch.Category(),
			Group:      ch.Group(),
			IsFavorite: ch.IsFavorite(),
		}
	}
	return json.MarshalIndent(docs, "", "  ")
}

// DecodeDocument parses a document produced by EncodeDocument. Ids are kept
// as provided. Any structural problem, including an id repeated within the
// document, is reported as an error wrapping ErrInvalidDocument.
func DecodeDocument(data []byte) ([]channel.Channel, error) {
	var docs []channelDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if docs == nil {
		return nil, fmt.Errorf("%w: expected a list of channels", ErrInvalidDocument)
	}

	channels := make([]channel.Channel, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		entry, err := channel.NewEntry(doc.Name, doc.URL, doc.Logo, doc.Group, doc.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %d: %v", ErrInvalidDocument, i, err)
		}

		ch, err := channel.NewChannel(doc.ID, entry)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %d: %v", ErrInvalidDocument, i, err)
		}
		if _, dup := seen[ch.ID()]; dup {
			return nil, fmt.Errorf("%w: channel %d: duplicate id %q", ErrInvalidDocument, i, ch.ID())
		}
		seen[ch.ID()] = struct{}{}

		if doc.IsFavorite {
			ch.ToggleFavorite()
		}
		channels = append(channels, ch)
	}

	return channels, nil
}
