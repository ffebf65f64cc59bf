package m3u

import (
	"bytes"
	"testing"

	"github.com/alorle/iptv-catalog/internal/channel"
)

func TestEncoder_Encode(t *testing.T) {
	a := channel.ReconstructChannel("1", mustEntry(t, "Channel A", "http://example.com/a.m3u8", "http://x/a.png", "Movies - HD", channel.CategoryMovies), false)
	b := channel.ReconstructChannel("2", mustEntry(t, "News", "http://example.com/news", "", "", channel.CategoryLive), true)

	enc := NewEncoder()
	enc.AddChannel(a)
	enc.AddChannel(b)

	var buf bytes.Buffer
	if err := enc.Encode(&buf); err != nil {
		t.Fatalf("Encode() unexpected error = %v", err)
	}

	want := "#EXTM3U\n" +
		"#EXTINF:-1 tvg-logo=\"http://x/a.png\" group-title=\"Movies - HD\",Channel A\n" +
		"http://example.com/a.m3u8\n" +
		"#EXTINF:-1,News\n" +
		"http://example.com/news\n"

	if got := buf.String(); got != want {
		t.Errorf("Encode() =\n%s\nwant\n%s", got, want)
	}
}

func TestEncoder_ParseRoundTrip(t *testing.T) {
	channels := []channel.Channel{
		channel.ReconstructChannel("1", mustEntry(t, "Channel A", "http://example.com/a.m3u8", "http://x/a.png", "Movies", channel.CategoryMovies), false),
		channel.ReconstructChannel("2", mustEntry(t, "Show", "https://example.com/s.m3u8", "", "Series", channel.CategorySeries), false),
		channel.ReconstructChannel("3", mustEntry(t, "Live", "rtmp://example.com/live", "", "", channel.CategoryLive), false),
	}

	enc := NewEncoder()
	for _, ch := range channels {
		enc.AddChannel(ch)
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf); err != nil {
		t.Fatalf("Encode() unexpected error = %v", err)
	}

	entries := Parse(buf.String())
	if len(entries) != len(channels) {
		t.Fatalf("Parse(Encode()) returned %d entries, want %d", len(entries), len(channels))
	}
	for i, e := range entries {
		if e != channels[i].Entry() {
			t.Errorf("entry %d = %+v, want %+v", i, e, channels[i].Entry())
		}
	}
}

func TestEncoder_EmptyCatalog(t *testing.T) {
	var buf bytes.Buffer
	if err := NewEncoder().Encode(&buf); err != nil {
		t.Fatalf("Encode() unexpected error = %v", err)
	}
	if buf.String() != "#EXTM3U\n" {
		t.Errorf("Encode() = %q, want header only", buf.String())
	}
}

func TestEncoder_LossyFields(t *testing.T) {
	comma := channel.ReconstructChannel("1", mustEntry(t, "Foo, HD", "http://example.com/foo", "", "", channel.CategoryLive), false)
	ungrouped := channel.ReconstructChannel("2", mustEntry(t, "Film", "http://example.com/film", "", "", channel.CategoryMovies), true)

	enc := NewEncoder()
	enc.AddChannel(comma)
	enc.AddChannel(ungrouped)

	var buf bytes.Buffer
	if err := enc.Encode(&buf); err != nil {
		t.Fatalf("Encode() unexpected error = %v", err)
	}

	entries := Parse(buf.String())
	if len(entries) != 2 {
		t.Fatalf("Parse(Encode()) returned %d entries, want 2", len(entries))
	}
	if entries[0].Name() != "HD" {
		t.Errorf("name = %q, want text after the last comma", entries[0].Name())
	}
	if entries[1].Category() != channel.CategoryLive {
		t.Errorf("ungrouped category = %s, want live", entries[1].Category())
	}
	if entries[0].URL() != comma.URL() || entries[1].URL() != ungrouped.URL() {
		t.Error("URLs must survive the round trip")
	}
}
