package application

import "github.com/alorle/iptv-catalog/internal/channel"

type sample struct {
	name, url, group string
	category         channel.Category
}

// samples seed an empty catalog on first start.
var samples = []sample{
	{
		name:     "Sample Live Stream",
		url:      "https://demo-live.dacast.com/30a0155c75d7468a8b0dc3071d1b2ad7/index.m3u8",
		group:    "Demo",
		category: channel.CategoryLive,
	},
	{
		name:     "Big Buck Bunny",
		url:      "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
		group:    "Demo",
		category: channel.CategoryMovies,
	},
}

func sampleEntries() ([]channel.Entry, error) {
	entries := make([]channel.Entry, 0, len(samples))
	for _, s := range samples {
		e, err := channel.NewEntry(s.name, s.url, "", s.group, s.category)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
