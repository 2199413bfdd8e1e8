// Package terrain builds grid meshes from elevation and classification rasters.
package terrain

import (
	"github.com/Faultbox/biomeforge/pkg/math"
)

// Defaults for Config.
const (
	DefaultWidth      = 1000
	DefaultHeight     = 1000
	DefaultDepthScale = 40
	DefaultSeaLevel   = 1
	DefaultSeaFloor   = -40
)

// Config controls the world-space size and vertical scaling of a synthesized mesh.
type Config struct {
	Width      float32 `yaml:"width"`       // world units along X
	Height     float32 `yaml:"height"`      // world units along Z
	DepthScale float32 `yaml:"depth_scale"` // height of a full-intensity elevation sample
	SeaLevel   float32 `yaml:"sea_level"`   // heights below this are flattened to SeaFloor
	SeaFloor   float32 `yaml:"sea_floor"`
}

// DefaultConfig returns the standard terrain configuration.
func DefaultConfig() Config {
	return Config{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		DepthScale: DefaultDepthScale,
		SeaLevel:   DefaultSeaLevel,
		SeaFloor:   DefaultSeaFloor,
	}
}

// Vertex is a terrain vertex in plane space (X right, Y up the image, Z = height).
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [3]float32
}

// Bounds holds an axis-aligned bounding box in world space.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Mesh is a regular grid mesh with one vertex per source pixel.
//
// Vertices are stored in plane space; Orientation rotates them so the plane
// lies horizontal with height along world +Y. Heights[y][x] repeats the final
// vertex heights for population and lookups.
type Mesh struct {
	Name string

	Columns int // vertices per row (image width)
	Rows    int // vertex rows (image height)
	Width   float32
	Height  float32

	Vertices    []Vertex
	Indices     []uint32
	Heights     [][]float32
	Orientation math.Mat4
	Bounds      Bounds

	releaseHooks []func()
	released     bool
}
