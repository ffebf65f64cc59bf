package m3u

import (
	"fmt"
	"io"
	"strings"

	"github.com/alorle/iptv-catalog/internal/channel"
)

// Encoder writes catalog channels as an extended M3U playlist.
//
// The output is lossy. A name containing a comma parses back as the text after
// its last comma, since EXTINF has no escaping. Ids and favorites are not
// written, and the category survives only through group-title, so a channel
// without a group parses back as live.
type Encoder struct {
	items []channel.Channel
}

func NewEncoder() *Encoder {
	return &Encoder{items: []channel.Channel{}}
}

func (e *Encoder) AddChannel(ch channel.Channel) {
	e.items = append(e.items, ch)
}

func (e *Encoder) Encode(w io.Writer) error {
	if _, err := fmt.Fprint(w, "#EXTM3U\n"); err != nil {
		return err
	}

	for _, item := range e.items {
		if err := encodeChannel(w, item); err != nil {
			return err
		}
	}

	return nil
}

func encodeChannel(w io.Writer, ch channel.Channel) error {
	if _, err := fmt.Fprint(w, "#EXTINF:-1"); err != nil {
		return err
	}

	if ch.Logo() != "" {
		if _, err := fmt.Fprintf(w, " tvg-logo=\"%s\"", attrValue(ch.Logo())); err != nil {
			return err
		}
	}

	if ch.Group() != "" {
		if _, err := fmt.Fprintf(w, " group-title=\"%s\"", attrValue(ch.Group())); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, ",%s\n%s\n", singleLine(ch.Name()), singleLine(ch.URL())); err != nil {
		return err
	}

	return nil
}

// attrValue strips characters that would end the quoted attribute or the line.
func attrValue(s string) string {
	return strings.ReplaceAll(singleLine(s), `"`, "'")
}

func singleLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
