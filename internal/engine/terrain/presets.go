package terrain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPreset is returned by FindPreset for names not in Presets.
var ErrUnknownPreset = errors.New("unknown terrain preset")

// Preset is a named elevation map shipped with the texture set.
type Preset struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	File    string `json:"file"`
	Default bool   `json:"default,omitempty"`
}

var presets = []Preset{
	{Name: "world", Label: "World", File: "world.png", Default: true},
	{Name: "japan", Label: "Japan", File: "japan.png"},
	{Name: "sri-lanka", Label: "Sri Lanka", File: "sri lanka.png"},
	{Name: "ireland", Label: "Ireland", File: "ireland.png"},
	{Name: "hawaii", Label: "Hawaii", File: "hawaii.png"},
}

// Presets returns the built-in terrain presets in menu order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// DefaultPreset returns the preset loaded at startup.
func DefaultPreset() Preset {
	for _, p := range presets {
		if p.Default {
			return p
		}
	}
	return presets[0]
}

// FindPreset looks a preset up by name or file name, case-insensitively.
func FindPreset(name string) (Preset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, p := range presets {
		if p.Name == key || strings.ToLower(p.File) == key {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%q: %w", name, ErrUnknownPreset)
}
