// Package population places decorative and wildlife instances on synthesized terrain.
package population

import (
	"fmt"
	"strings"
)

// Category identifies one kind of placed object. Each category owns one InstanceSet.
type Category uint8

// Category constants.
const (
	Canopy Category = iota
	Trunk
	Deer
	Wolf
	Snake
)

var categoryNames = [...]string{
	Canopy: "tree-canopy",
	Trunk:  "tree-trunk",
	Deer:   "deer",
	Wolf:   "wolf",
	Snake:  "snake",
}

var defaultModels = [...]string{
	Canopy: "assets/tree-canopy.obj",
	Trunk:  "assets/tree-trunk.obj",
	Deer:   "assets/deer.obj",
	Wolf:   "assets/wolf.obj",
	Snake:  "assets/snake.obj",
}

// DefaultModels returns the stock model asset path of each category.
func DefaultModels() map[Category]string {
	out := make(map[Category]string, len(defaultModels))
	for i, p := range defaultModels {
		out[Category(i)] = p
	}
	return out
}

// AllCategories returns every category in declaration order.
func AllCategories() []Category {
	return []Category{Canopy, Trunk, Deer, Wolf, Snake}
}

// String returns the config name of the category.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// ParseCategory parses a config name such as "deer" or "tree-canopy".
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range categoryNames {
		if n == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	v, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
