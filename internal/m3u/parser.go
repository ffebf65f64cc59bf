package m3u

import (
	"io"
	"regexp"
	"strings"

	"github.com/alorle/iptv-catalog/internal/channel"
)

const extinfPrefix = "#EXTINF:"

var (
	tvgLogoRegex    = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	groupTitleRegex = regexp.MustCompile(`group-title="([^"]*)"`)

	// streamSchemes are the prefixes a line must start with to be taken as a
	// stream URI. "http" and "rtmp" also cover https and rtmps.
	streamSchemes = []string{"http", "rtmp"}
)

// Parse converts playlist text into catalog entries in source order.
//
// Each #EXTINF line is paired with the next non-empty line, which must look
// like a stream URI. Pairs without a URI, and metadata lines without a
// display name after the last comma, are skipped. Parse never fails: a
// playlist without valid pairs yields an empty slice.
func Parse(text string) []channel.Entry {
	lines := strings.Split(text, "\n")
	entries := make([]channel.Entry, 0)

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, extinfPrefix) {
			continue
		}

		next := nextNonEmpty(lines, i+1)
		if next < 0 {
			break
		}

		uri := strings.TrimSpace(lines[next])
		if !IsStreamURI(uri) {
			// Leave the line in place: it may be the next #EXTINF.
			continue
		}
		i = next

		entry, ok := entryFromMetadata(line, uri)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

// ParseReader reads the whole playlist from r and parses it.
// It only fails when reading fails.
func ParseReader(r io.Reader) ([]channel.Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}

// IsStreamURI reports whether s starts with a recognized stream scheme prefix.
func IsStreamURI(s string) bool {
	lower := strings.ToLower(s)
	for _, scheme := range streamSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// ClassifyGroup infers a category from a group label. Movies take precedence
// over series; anything unmatched is live.
func ClassifyGroup(group string) channel.Category {
	g := strings.ToLower(group)
	switch {
	case strings.Contains(g, "movie"), strings.Contains(g, "film"):
		return channel.CategoryMovies
	case strings.Contains(g, "series"), strings.Contains(g, "show"):
		return channel.CategorySeries
	default:
		return channel.CategoryLive
	}
}

// DisplayName returns the trimmed text after the last comma of an EXTINF line,
// or an empty string if there is no comma.
func DisplayName(extinf string) string {
	idx := strings.LastIndex(extinf, ",")
	if idx == -1 {
		return ""
	}
	return strings.TrimSpace(extinf[idx+1:])
}

func entryFromMetadata(extinf, uri string) (channel.Entry, bool) {
	name := DisplayName(extinf)
	if name == "" {
		return channel.Entry{}, false
	}

	logo := attribute(tvgLogoRegex, extinf)
	group := attribute(groupTitleRegex, extinf)

	entry, err := channel.NewEntry(name, uri, logo, group, ClassifyGroup(group))
	if err != nil {
		return channel.Entry{}, false
	}
	return entry, true
}

func attribute(re *regexp.Regexp, line string) string {
	if m := re.FindStringSubmatch(line); len(m) > 1 {
		return m[1]
	}
	return ""
}

func nextNonEmpty(lines []string, from int) int {
	for j := from; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) != "" {
			return j
		}
	}
	return -1
}
