package renderer

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/biomeforge/internal/engine/terrain"
	"github.com/Faultbox/biomeforge/pkg/math"
)

// terrainMesh is a terrain.Mesh uploaded to the GPU.
type terrainMesh struct {
	src        *terrain.Mesh
	model      math.Mat4
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

func uploadTerrain(m *terrain.Mesh) *terrainMesh {
	tm := &terrainMesh{src: m, model: m.Orientation, indexCount: int32(len(m.Indices))}
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return tm
	}

	gl.GenVertexArrays(1, &tm.vao)
	gl.BindVertexArray(tm.vao)

	// VBO
	gl.GenBuffers(1, &tm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, tm.vbo)
	vertexSize := int(unsafe.Sizeof(terrain.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*vertexSize, unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)

	// Normal (location 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)

	// Color (location 2)
	gl.VertexAttribPointerWithOffset(2, 3, gl.FLOAT, false, int32(vertexSize), 6*4)
	gl.EnableVertexAttribArray(2)

	// EBO
	gl.GenBuffers(1, &tm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, tm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return tm
}

func (tm *terrainMesh) draw() {
	if tm.vao == 0 {
		return
	}
	gl.BindVertexArray(tm.vao)
	gl.DrawElements(gl.TRIANGLES, tm.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (tm *terrainMesh) delete() {
	if tm.vao != 0 {
		gl.DeleteVertexArrays(1, &tm.vao)
		tm.vao = 0
	}
	if tm.vbo != 0 {
		gl.DeleteBuffers(1, &tm.vbo)
		tm.vbo = 0
	}
	if tm.ebo != 0 {
		gl.DeleteBuffers(1, &tm.ebo)
		tm.ebo = 0
	}
}
