package terrain

import (
	"io"

	"github.com/Faultbox/biomeforge/pkg/formats"
)

// ToOBJ converts the mesh to oriented OBJ geometry with per-vertex colors.
func (m *Mesh) ToOBJ() *formats.OBJ {
	obj := &formats.OBJ{
		Name:      m.Name,
		Positions: make([][3]float32, len(m.Vertices)),
		Colors:    make([][3]float32, len(m.Vertices)),
		Normals:   make([][3]float32, len(m.Vertices)),
		Faces:     make([]formats.OBJFace, 0, len(m.Indices)/3),
	}
	for i, v := range m.Vertices {
		obj.Positions[i] = m.Orientation.TransformPoint(v.Position)
		obj.Normals[i] = m.Orientation.TransformDirection(v.Normal)
		obj.Colors[i] = v.Color
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		v := [3]int{int(m.Indices[i]), int(m.Indices[i+1]), int(m.Indices[i+2])}
		obj.Faces = append(obj.Faces, formats.OBJFace{V: v, VT: [3]int{-1, -1, -1}, VN: v})
	}
	return obj
}

// WriteOBJ exports the mesh as Wavefront OBJ.
func WriteOBJ(w io.Writer, m *Mesh) error {
	return formats.EncodeOBJ(w, m.ToOBJ())
}
