package renderer

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/biomeforge/internal/engine/population"
	"github.com/Faultbox/biomeforge/pkg/formats"
	"github.com/Faultbox/biomeforge/pkg/math"
)

// batch draws every instance of one model with a single instanced call:
// a population category, or one prop.
type batch struct {
	color [3]float32

	model       *formats.OBJ // source of the uploaded geometry
	vao         uint32
	meshVBO     uint32
	vertexCount int32

	instanceVBO   uint32
	instanceCount int32
	scratch       []float32
}

func newBatch(color [3]float32) *batch {
	b := &batch{color: color}

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.meshVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.meshVBO)
	// Position (location 0), Normal (location 1)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 6*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 6*4, 3*4)
	gl.EnableVertexAttribArray(1)

	// Instance matrix (locations 2-5), one column per attribute
	gl.GenBuffers(1, &b.instanceVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.instanceVBO)
	for col := uint32(0); col < 4; col++ {
		loc := 2 + col
		gl.VertexAttribPointerWithOffset(loc, 4, gl.FLOAT, false, 16*4, uintptr(col*4*4))
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribDivisor(loc, 1)
	}

	gl.BindVertexArray(0)

	b.setModel(nil)
	return b
}

// setModel uploads the model geometry, or a unit cube for nil.
func (b *batch) setModel(obj *formats.OBJ) {
	verts := modelVertices(obj)
	b.model = obj
	b.vertexCount = int32(len(verts) / 6)

	gl.BindBuffer(gl.ARRAY_BUFFER, b.meshVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// setInstances uploads the live transforms of set; nil clears the batch.
func (b *batch) setInstances(set *population.InstanceSet) {
	b.scratch = b.scratch[:0]
	if set != nil {
		b.scratch = set.AppendMatrices(b.scratch)
	}
	b.upload()
}

// setMatrices uploads explicit instance transforms; none clears the batch.
func (b *batch) setMatrices(ms ...math.Mat4) {
	b.scratch = b.scratch[:0]
	for _, m := range ms {
		b.scratch = append(b.scratch, m[:]...)
	}
	b.upload()
}

func (b *batch) upload() {
	b.instanceCount = int32(len(b.scratch) / 16)
	if b.instanceCount == 0 {
		return
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, b.instanceVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(b.scratch)*4, unsafe.Pointer(&b.scratch[0]), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (b *batch) draw() {
	if b.instanceCount == 0 || b.vertexCount == 0 {
		return
	}
	gl.BindVertexArray(b.vao)
	gl.DrawArraysInstanced(gl.TRIANGLES, 0, b.vertexCount, b.instanceCount)
	gl.BindVertexArray(0)
}

func (b *batch) delete() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
	if b.meshVBO != 0 {
		gl.DeleteBuffers(1, &b.meshVBO)
		b.meshVBO = 0
	}
	if b.instanceVBO != 0 {
		gl.DeleteBuffers(1, &b.instanceVBO)
		b.instanceVBO = 0
	}
}
