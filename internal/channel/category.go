package channel

import (
	"fmt"
	"strings"
)

// Category classifies a channel for filtering. The zero value is CategoryLive.
type Category uint8

const (
	CategoryLive Category = iota
	CategoryMovies
	CategorySeries
)

var categoryNames = [...]string{
	CategoryLive:   "live",
	CategoryMovies: "movies",
	CategorySeries: "series",
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CategoryLive, CategoryMovies, CategorySeries}
}

// ParseCategory converts a case-insensitive category name to a Category.
// Returns ErrInvalidCategory for any other value.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	return int(c) < len(categoryNames)
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, uint8(c))
	}
	return []byte(categoryNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
