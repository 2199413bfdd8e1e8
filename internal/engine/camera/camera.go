// Package camera provides camera implementations for 3D rendering.
package camera

import (
	gomath "math"

	"github.com/Faultbox/biomeforge/pkg/math"
)

// FlyCamera is a free-flying first-person camera. Horizontal movement
// follows the yaw only, so looking down does not slow forward motion.
type FlyCamera struct {
	Position math.Vec3

	Yaw   float32 // radians; 0 looks along -Z
	Pitch float32 // radians; positive looks up

	// Constraints
	MaxPitch float32

	// Sensitivity
	MouseSensitivity float32
}

// NewFlyCamera creates a camera at the given position looking along -Z.
func NewFlyCamera(position math.Vec3) *FlyCamera {
	return &FlyCamera{
		Position:         position,
		MaxPitch:         1.55,
		MouseSensitivity: 0.002,
	}
}

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() math.Vec3 {
	cp := float32(gomath.Cos(float64(c.Pitch)))
	return math.Vec3{
		X: -float32(gomath.Sin(float64(c.Yaw))) * cp,
		Y: float32(gomath.Sin(float64(c.Pitch))),
		Z: -float32(gomath.Cos(float64(c.Yaw))) * cp,
	}
}

// Right returns the unit right direction on the XZ plane.
func (c *FlyCamera) Right() math.Vec3 {
	return math.Vec3{
		X: float32(gomath.Cos(float64(c.Yaw))),
		Z: -float32(gomath.Sin(float64(c.Yaw))),
	}
}

// MoveForward moves along the horizontal view direction.
func (c *FlyCamera) MoveForward(d float32) {
	c.Position.X -= float32(gomath.Sin(float64(c.Yaw))) * d
	c.Position.Z -= float32(gomath.Cos(float64(c.Yaw))) * d
}

// MoveRight strafes; negative values move left.
func (c *FlyCamera) MoveRight(d float32) {
	c.Position = c.Position.Add(c.Right().Scale(d))
}

// MoveUp moves along world +Y.
func (c *FlyCamera) MoveUp(d float32) {
	c.Position.Y += d
}

// HandleMouse turns the camera by a relative mouse motion in pixels.
func (c *FlyCamera) HandleMouse(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.MouseSensitivity
	c.Pitch -= deltaY * c.MouseSensitivity

	// Clamp pitch
	if c.Pitch < -c.MaxPitch {
		c.Pitch = -c.MaxPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	target := c.Position.Add(c.Forward())
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(c.Position, target, up)
}

// Overlook places the camera above the southern edge of the given bounds,
// looking north across them.
func (c *FlyCamera) Overlook(min, max [3]float32) {
	sizeX := max[0] - min[0]
	sizeZ := max[2] - min[2]
	size := sizeX
	if sizeZ > size {
		size = sizeZ
	}

	c.Position = math.Vec3{
		X: (min[0] + max[0]) / 2,
		Y: max[1] + size*0.25,
		Z: max[2] + size*0.1,
	}
	c.Yaw = 0
	c.Pitch = -0.5 // ~30 degrees down
}
