package renderer

import (
	gomath "math"

	"github.com/Faultbox/biomeforge/internal/config"
	"github.com/Faultbox/biomeforge/internal/engine/population"
	"github.com/Faultbox/biomeforge/pkg/formats"
	"github.com/Faultbox/biomeforge/pkg/math"
)

// Environment holds the scene-wide lighting, fog and water settings.
type Environment struct {
	SkyColor [3]float32

	FogNear float32
	FogFar  float32

	Ambient  float32
	LightDir [3]float32 // unit vector pointing toward the light
	Diffuse  float32

	Water      bool
	WaterLevel float32
	WaterSize  float32
	WaterColor [3]float32
	WaterAlpha float32

	FOV  float32 // degrees
	Near float32
	Far  float32
}

// NewEnvironment derives an Environment from viewer settings. The light is
// a white sun at (50, 100, 50) over half-strength ambient.
func NewEnvironment(cfg config.ViewerConfig) Environment {
	return Environment{
		SkyColor:   cfg.SkyColor,
		FogNear:    cfg.FogNear,
		FogFar:     cfg.FogFar,
		Ambient:    0.5,
		LightDir:   math.Vec3{X: 50, Y: 100, Z: 50}.Normalize().Array(),
		Diffuse:    1,
		Water:      cfg.Water,
		WaterLevel: cfg.WaterLevel,
		WaterSize:  10000,
		WaterColor: cfg.WaterColor,
		WaterAlpha: 0.85,
		FOV:        cfg.FOV,
		Near:       cfg.Near,
		Far:        cfg.Far,
	}
}

// Projection returns the perspective matrix for a viewport.
func (e Environment) Projection(width, height int) math.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return math.Perspective(e.FOV*gomath.Pi/180, aspect, e.Near, e.Far)
}

// categoryColors tints instanced models, which carry no materials.
var categoryColors = map[population.Category][3]float32{
	population.Canopy: {0.18, 0.45, 0.16},
	population.Trunk:  {0.40, 0.27, 0.15},
	population.Deer:   {0.62, 0.42, 0.24},
	population.Wolf:   {0.50, 0.50, 0.52},
	population.Snake:  {0.35, 0.55, 0.20},
}

// CategoryColor returns the tint for a category, white when unknown.
func CategoryColor(c population.Category) [3]float32 {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return [3]float32{1, 1, 1}
}

// modelVertices returns interleaved position/normal data for a model,
// substituting a unit cube when the model is missing or has no faces.
func modelVertices(obj *formats.OBJ) []float32 {
	if obj == nil || obj.TriangleCount() == 0 {
		obj = formats.UnitCube()
	}
	return obj.Triangles()
}

// waterQuad returns two triangles covering a size x size square at height y,
// centered on the origin, as position-only vertices.
func waterQuad(size, y float32) []float32 {
	h := size / 2
	return []float32{
		-h, y, -h,
		-h, y, h,
		h, y, h,
		-h, y, -h,
		h, y, h,
		h, y, -h,
	}
}
