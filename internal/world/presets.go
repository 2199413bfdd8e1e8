package world

import (
	"path"
	"strings"

	"github.com/Faultbox/biomeforge/internal/engine/terrain"
)

// ResolveMap turns a preset name into its file name; anything else is
// taken as a file name as-is.
func ResolveMap(name string) string {
	if p, err := terrain.FindPreset(name); err == nil {
		return p.File
	}
	return name
}

// ElevationPath returns the asset path of an elevation map.
func ElevationPath(textureDir, mapName string) string {
	return path.Join(textureDir, mapName)
}

// ClassificationPath returns the asset path of the biome map paired with
// mapName: everything up to the first '.' plus "-biome.png".
func ClassificationPath(textureDir, mapName string) string {
	stem, _, _ := strings.Cut(mapName, ".")
	return path.Join(textureDir, stem+"-biome.png")
}
