package terrain

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/biomeforge/internal/engine/biome"
	"github.com/Faultbox/biomeforge/internal/engine/raster"
	"github.com/Faultbox/biomeforge/pkg/math"
)

// Synthesize builds a terrain mesh from an elevation image and the biome index
// of its classification image.
//
// Dimensions are validated before anything is allocated, so a mismatch never
// yields a partial mesh.
func Synthesize(elev *raster.Image, idx *biome.Index, cfg Config) (*Mesh, error) {
	if elev == nil || idx == nil {
		return nil, fmt.Errorf("synthesizing terrain: %w", raster.ErrImageTooSmall)
	}
	if elev.Width != idx.Width || elev.Height != idx.Height {
		return nil, fmt.Errorf("elevation %s, biome index %dx%d: %w",
			elev, idx.Width, idx.Height, raster.ErrDimensionMismatch)
	}
	if elev.Width < 2 || elev.Height < 2 {
		return nil, fmt.Errorf("elevation %s: %w", elev, raster.ErrImageTooSmall)
	}

	cols, rows := elev.Width, elev.Height
	segW := cfg.Width / float32(cols-1)
	segH := cfg.Height / float32(rows-1)
	halfW := cfg.Width / 2
	halfH := cfg.Height / 2

	m := &Mesh{
		Columns:     cols,
		Rows:        rows,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Vertices:    make([]Vertex, cols*rows),
		Heights:     make([][]float32, rows),
		Orientation: math.RotateX(-gomath.Pi / 2),
		Bounds: Bounds{
			Min: [3]float32{1e10, 1e10, 1e10},
			Max: [3]float32{-1e10, -1e10, -1e10},
		},
	}

	for y := range rows {
		heights := make([]float32, cols)
		py := halfH - float32(y)*segH
		for x := range cols {
			r, _, _, _ := elev.Pixel(x, y)
			h := cfg.Elevation(r)
			heights[x] = h

			v := &m.Vertices[y*cols+x]
			v.Position = [3]float32{float32(x)*segW - halfW, py, h}
			v.Color = biome.Color(idx.BiomeAt(x, y))

			updateBounds(&m.Bounds, [3]float32{v.Position[0], h, -py})
		}
		m.Heights[y] = heights
	}

	m.Indices = gridIndices(cols, rows)

	// Normals come from the final positions only.
	computeNormals(m.Vertices, m.Indices)

	return m, nil
}

// Elevation converts a red-channel sample into a vertex height. Anything
// below SeaLevel drops to the flat SeaFloor instead of sloping under water.
func (c Config) Elevation(sample uint8) float32 {
	h := float32(sample) / 255 * c.DepthScale
	if h < c.SeaLevel {
		return c.SeaFloor
	}
	return h
}

// gridIndices emits two counter-clockwise triangles per cell.
func gridIndices(cols, rows int) []uint32 {
	indices := make([]uint32, 0, (cols-1)*(rows-1)*6)
	for y := 0; y < rows-1; y++ {
		for x := 0; x < cols-1; x++ {
			a := uint32(y*cols + x)
			b := uint32((y+1)*cols + x)
			c := uint32((y+1)*cols + x + 1)
			d := uint32(y*cols + x + 1)
			indices = append(indices,
				a, b, d,
				b, c, d,
			)
		}
	}
	return indices
}

// computeNormals accumulates area-weighted face normals into each vertex and
// normalizes the sums.
func computeNormals(vertices []Vertex, indices []uint32) {
	for i := range vertices {
		vertices[i].Normal = [3]float32{}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		ia, ib, ic := indices[i], indices[i+1], indices[i+2]
		pa, pb, pc := vertices[ia].Position, vertices[ib].Position, vertices[ic].Position

		cb := sub(pc, pb)
		ab := sub(pa, pb)
		n := cross(cb, ab)

		for _, idx := range [3]uint32{ia, ib, ic} {
			vertices[idx].Normal[0] += n[0]
			vertices[idx].Normal[1] += n[1]
			vertices[idx].Normal[2] += n[2]
		}
	}

	for i := range vertices {
		vertices[i].Normal = normalize(vertices[i].Normal)
	}
}

// CellCount returns the number of grid cells (quads).
func (m *Mesh) CellCount() int {
	return (m.Columns - 1) * (m.Rows - 1)
}

// TriangleCount returns the number of triangles in the index buffer.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// WorldPosition returns the oriented world position of grid vertex (x, y):
// plane X, the stored height, and the negated plane Y.
func (m *Mesh) WorldPosition(x, y int) math.Vec3 {
	p := m.Vertices[y*m.Columns+x].Position
	return math.Vec3{X: p[0], Y: m.Heights[y][x], Z: -p[1]}
}

// WorldNormal returns the oriented normal of grid vertex (x, y).
func (m *Mesh) WorldNormal(x, y int) math.Vec3 {
	return math.V3(m.Orientation.TransformDirection(m.Vertices[y*m.Columns+x].Normal))
}

// OnRelease registers a hook that runs when the mesh is replaced, e.g. to
// free GPU buffers created from it.
func (m *Mesh) OnRelease(fn func()) {
	m.releaseHooks = append(m.releaseHooks, fn)
}

// Release runs the registered hooks once. Geometry slices are left intact so
// readers still holding an older frame never see them change.
func (m *Mesh) Release() {
	if m == nil || m.released {
		return
	}
	m.released = true
	for _, fn := range m.releaseHooks {
		fn()
	}
	m.releaseHooks = nil
}

// Released reports whether Release has run.
func (m *Mesh) Released() bool {
	return m.released
}

// Helper functions

func updateBounds(b *Bounds, p [3]float32) {
	for i := range 3 {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float32) [3]float32 {
	l := float32(gomath.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l < 0.0001 {
		return [3]float32{0, 0, 1}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
