// Package biome classifies terrain cells from a classification image.
package biome

import (
	"fmt"
	"strings"

	"github.com/Faultbox/biomeforge/internal/engine/raster"
)

// ID is a packed 24-bit classification value: red<<16 | green<<8 | blue.
type ID uint32

// Canonical classification colors. Pack must produce exactly these values
// for the matching pixels or every lookup falls through to Unclassified.
const (
	IDDesert       ID = 0xFFFF00
	IDForest       ID = 0x00FF00
	IDWinterForest ID = 0x0000FF
	IDCity         ID = 0xFF0000
)

// Pack combines the first three channels of a classification pixel.
func Pack(r, g, b uint8) ID {
	return ID(r)<<16 | ID(g)<<8 | ID(b)
}

// String returns the ID as a hex color, e.g. "#00ff00".
func (id ID) String() string {
	return fmt.Sprintf("#%06x", uint32(id))
}

// Biome is the named classification of a terrain cell.
type Biome uint8

// Biome constants. Unclassified covers water and any unknown color.
const (
	Unclassified Biome = iota
	Desert
	Forest
	WinterForest
	City
)

// All lists every biome in declaration order.
var All = []Biome{Unclassified, Desert, Forest, WinterForest, City}

// Classify maps a packed ID to its biome.
func Classify(id ID) Biome {
	switch id {
	case IDDesert:
		return Desert
	case IDForest:
		return Forest
	case IDWinterForest:
		return WinterForest
	case IDCity:
		return City
	default:
		return Unclassified
	}
}

var names = [...]string{
	Unclassified: "water",
	Desert:       "desert",
	Forest:       "forest",
	WinterForest: "winter-forest",
	City:         "city",
}

// String returns the config name of the biome.
func (b Biome) String() string {
	if int(b) < len(names) {
		return names[b]
	}
	return fmt.Sprintf("Biome(%d)", uint8(b))
}

// ParseBiome parses a config name. "unclassified" is accepted as an alias of "water".
func ParseBiome(s string) (Biome, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "unclassified" {
		return Unclassified, nil
	}
	for i, n := range names {
		if n == s {
			return Biome(i), nil
		}
	}
	return Unclassified, fmt.Errorf("unknown biome %q", s)
}

// MarshalText implements encoding.TextMarshaler for YAML and JSON.
func (b Biome) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Biome) UnmarshalText(text []byte) error {
	v, err := ParseBiome(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// palette holds the terrain vertex color (linear RGB) per biome.
var palette = [...][3]float32{
	Unclassified: {0, 0.5, 0.9},
	Desert:       {0.7, 0.6, 0.1},
	Forest:       {0.1, 0.8, 0.3},
	WinterForest: {0.75, 0.8, 0.9},
	City:         {0.3, 0.2, 0.5},
}

// Color returns the terrain tint for a biome.
func Color(b Biome) [3]float32 {
	if int(b) < len(palette) {
		return palette[b]
	}
	return palette[Unclassified]
}

// Index maps grid coordinates to classification IDs. Rows[y][x] matches
// pixel (x, y) of the classification image. Read-only once built.
type Index struct {
	Width  int
	Height int
	Rows   [][]ID
}

// BuildIndex packs every pixel of the classification image.
func BuildIndex(img *raster.Image) *Index {
	idx := &Index{
		Width:  img.Width,
		Height: img.Height,
		Rows:   make([][]ID, img.Height),
	}
	for y := range img.Height {
		row := make([]ID, img.Width)
		for x := range img.Width {
			r, g, b, _ := img.Pixel(x, y)
			row[x] = Pack(r, g, b)
		}
		idx.Rows[y] = row
	}
	return idx
}

// At returns the packed ID at (x, y).
func (idx *Index) At(x, y int) ID {
	return idx.Rows[y][x]
}

// BiomeAt returns the classified biome at (x, y).
func (idx *Index) BiomeAt(x, y int) Biome {
	return Classify(idx.At(x, y))
}

// Histogram counts cells per biome.
func (idx *Index) Histogram() map[Biome]int {
	h := make(map[Biome]int, len(All))
	for _, row := range idx.Rows {
		for _, id := range row {
			h[Classify(id)]++
		}
	}
	return h
}
