package population

import (
	"github.com/Faultbox/biomeforge/pkg/math"
)

// Transform places one instance in world space.
type Transform struct {
	Position math.Vec3
	Scale    math.Vec3
	Yaw      float32 // rotation about +Y, radians
}

// Matrix returns the model matrix (translate * rotateY * scale).
func (t Transform) Matrix() math.Mat4 {
	return math.TRS(t.Position, t.Yaw, t.Scale)
}

// InstanceSet is a fixed-capacity buffer of placements for one category.
// Transforms is allocated once at Capacity; only the first Count entries are live.
type InstanceSet struct {
	Category   Category
	Capacity   int
	Count      int
	Transforms []Transform
}

// NewInstanceSet allocates an empty set with storage for capacity transforms.
func NewInstanceSet(c Category, capacity int) *InstanceSet {
	if capacity < 0 {
		capacity = 0
	}
	return &InstanceSet{
		Category:   c,
		Capacity:   capacity,
		Transforms: make([]Transform, capacity),
	}
}

// Reset drops every live entry but keeps the storage.
func (s *InstanceSet) Reset() {
	s.Count = 0
}

// Live returns the placed transforms.
func (s *InstanceSet) Live() []Transform {
	return s.Transforms[:s.Count]
}

// Full reports whether no more entries can be stored.
func (s *InstanceSet) Full() bool {
	return s.Count >= s.Capacity
}

// AppendMatrices appends the column-major model matrix of every live instance
// to dst, ready for an instanced vertex buffer.
func (s *InstanceSet) AppendMatrices(dst []float32) []float32 {
	for _, t := range s.Live() {
		m := t.Matrix()
		dst = append(dst, m[:]...)
	}
	return dst
}
