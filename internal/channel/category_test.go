package channel_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/alorle/iptv-catalog/internal/channel"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    channel.Category
		wantErr bool
	}{
		{input: "live", want: channel.CategoryLive},
		{input: "movies", want: channel.CategoryMovies},
		{input: "series", want: channel.CategorySeries},
		{input: "  Movies ", want: channel.CategoryMovies},
		{input: "SERIES", want: channel.CategorySeries},
		{input: "", wantErr: true},
		{input: "radio", wantErr: true},
		{input: "movie", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := channel.ParseCategory(tt.input)
			if tt.wantErr {
				if !errors.Is(err, channel.ErrInvalidCategory) {
					t.Errorf("ParseCategory(%q) error = %v, want ErrInvalidCategory", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCategory(%q) unexpected error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCategoryString(t *testing.T) {
	for _, c := range channel.Categories() {
		parsed, err := channel.ParseCategory(c.String())
		if err != nil {
			t.Fatalf("ParseCategory(%q) unexpected error = %v", c.String(), err)
		}
		if parsed != c {
			t.Errorf("ParseCategory(%q) = %v, want %v", c.String(), parsed, c)
		}
	}

	if got := channel.Category(9).String(); got != "Category(9)" {
		t.Errorf("String() of invalid category = %q", got)
	}
}

func TestCategoryJSON(t *testing.T) {
	type wrapper struct {
		Category channel.Category `json:"category"`
	}

	data, err := json.Marshal(wrapper{Category: channel.CategorySeries})
	if err != nil {
		t.Fatalf("Marshal() unexpected error = %v", err)
	}
	if string(data) != `{"category":"series"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"category":"movies"}`), &w); err != nil {
		t.Fatalf("Unmarshal() unexpected error = %v", err)
	}
	if w.Category != channel.CategoryMovies {
		t.Errorf("Unmarshal() category = %v, want movies", w.Category)
	}

	if err := json.Unmarshal([]byte(`{"category":"radio"}`), &w); err == nil {
		t.Error("Unmarshal() of unknown category succeeded, want error")
	}

	if _, err := json.Marshal(wrapper{Category: channel.Category(7)}); err == nil {
		t.Error("Marshal() of invalid category succeeded, want error")
	}
}
