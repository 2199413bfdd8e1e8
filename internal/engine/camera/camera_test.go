package camera

import (
	"testing"

	"github.com/Faultbox/biomeforge/pkg/math"
)

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

func TestFlyCameraMovement(t *testing.T) {
	c := NewFlyCamera(math.Vec3{X: 0, Y: 20, Z: 6})

	c.MoveForward(6)
	if !approx(c.Position.Z, 0) || !approx(c.Position.X, 0) {
		t.Errorf("after MoveForward(6) position = %v, want (0,20,0)", c.Position)
	}

	c.MoveRight(-6)
	if !approx(c.Position.X, -6) {
		t.Errorf("after MoveRight(-6) X = %v, want -6", c.Position.X)
	}

	c.MoveUp(6)
	if c.Position.Y != 26 {
		t.Errorf("after MoveUp(6) Y = %v, want 26", c.Position.Y)
	}
}

func TestFlyCameraPitchDoesNotSlowWalking(t *testing.T) {
	c := NewFlyCamera(math.Vec3{})
	c.Pitch = -1.2
	c.MoveForward(10)
	if !approx(c.Position.Z, -10) || c.Position.Y != 0 {
		t.Errorf("position = %v, want (0,0,-10)", c.Position)
	}
}

func TestFlyCameraMouseClamp(t *testing.T) {
	c := NewFlyCamera(math.Vec3{})
	c.HandleMouse(0, -1e6)
	if c.Pitch != c.MaxPitch {
		t.Errorf("Pitch = %v, want clamp %v", c.Pitch, c.MaxPitch)
	}
	c.HandleMouse(0, 1e6)
	if c.Pitch != -c.MaxPitch {
		t.Errorf("Pitch = %v, want clamp %v", c.Pitch, -c.MaxPitch)
	}
}

func TestFlyCameraViewMatrix(t *testing.T) {
	c := NewFlyCamera(math.Vec3{X: 1, Y: 2, Z: 3})
	view := c.ViewMatrix()

	// The camera position maps to the view-space origin.
	p := view.TransformPoint([3]float32{1, 2, 3})
	for i, v := range p {
		if !approx(v, 0) {
			t.Errorf("view(position)[%d] = %v, want 0", i, v)
		}
	}

	// A point ahead lands on -Z in view space.
	ahead := view.TransformPoint(c.Position.Add(c.Forward().Scale(5)).Array())
	if !approx(ahead[2], -5) {
		t.Errorf("view(ahead).z = %v, want -5", ahead[2])
	}
}

func TestOverlook(t *testing.T) {
	c := NewFlyCamera(math.Vec3{})
	c.Overlook([3]float32{-500, -40, -500}, [3]float32{500, 40, 500})

	if c.Position.X != 0 || c.Position.Y <= 40 || c.Position.Z <= 500 {
		t.Errorf("Overlook position = %v", c.Position)
	}
	if c.Forward().Z >= 0 || c.Forward().Y >= 0 {
		t.Errorf("Overlook forward = %v, want north and down", c.Forward())
	}
}
