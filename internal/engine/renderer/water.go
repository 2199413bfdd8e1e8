package renderer

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// waterPlane is a flat translucent quad at sea level.
type waterPlane struct {
	vao uint32
	vbo uint32
}

func newWaterPlane(size, level float32) *waterPlane {
	wp := &waterPlane{}
	vertices := waterQuad(size, level)

	gl.GenVertexArrays(1, &wp.vao)
	gl.BindVertexArray(wp.vao)

	gl.GenBuffers(1, &wp.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, wp.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	// Position attribute
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)

	gl.BindVertexArray(0)
	return wp
}

func (wp *waterPlane) draw() {
	// Enable blending for transparency
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)

	gl.BindVertexArray(wp.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
}

func (wp *waterPlane) delete() {
	if wp.vao != 0 {
		gl.DeleteVertexArrays(1, &wp.vao)
		wp.vao = 0
	}
	if wp.vbo != 0 {
		gl.DeleteBuffers(1, &wp.vbo)
		wp.vbo = 0
	}
}
