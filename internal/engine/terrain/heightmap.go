package terrain

// GridCoord converts a world-space XZ position into fractional grid
// coordinates. ok is false when the point lies outside the terrain.
func (m *Mesh) GridCoord(worldX, worldZ float32) (gx, gy float32, ok bool) {
	if m == nil || m.Columns < 2 || m.Rows < 2 {
		return 0, 0, false
	}
	segW := m.Width / float32(m.Columns-1)
	segH := m.Height / float32(m.Rows-1)

	// World Z is the negated plane Y, and plane Y runs from +H/2 at row 0.
	gx = (worldX + m.Width/2) / segW
	gy = (worldZ + m.Height/2) / segH

	maxX := float32(m.Columns - 1)
	maxY := float32(m.Rows - 1)
	const eps = 1e-3 // float slack at the far edges
	if gx < -eps || gy < -eps || gx > maxX+eps || gy > maxY+eps {
		return gx, gy, false
	}
	return clampf(gx, 0, maxX), clampf(gy, 0, maxY), true
}

// HeightAt returns the bilinearly interpolated terrain height at a world
// position. ok is false outside the terrain.
func (m *Mesh) HeightAt(worldX, worldZ float32) (float32, bool) {
	gx, gy, ok := m.GridCoord(worldX, worldZ)
	if !ok {
		return 0, false
	}

	cellX := int(gx)
	cellY := int(gy)

	// Clamp to the last full cell so the far edge still interpolates.
	if cellX >= m.Columns-1 {
		cellX = m.Columns - 2
	}
	if cellY >= m.Rows-1 {
		cellY = m.Rows - 2
	}

	fracX := clampf(gx-float32(cellX), 0, 1)
	fracY := clampf(gy-float32(cellY), 0, 1)

	h00 := m.Heights[cellY][cellX]
	h10 := m.Heights[cellY][cellX+1]
	h01 := m.Heights[cellY+1][cellX]
	h11 := m.Heights[cellY+1][cellX+1]

	top := h00*(1-fracX) + h10*fracX
	bottom := h01*(1-fracX) + h11*fracX
	return top*(1-fracY) + bottom*fracY, true
}

// CellAt returns the nearest grid vertex to a world position.
func (m *Mesh) CellAt(worldX, worldZ float32) (x, y int, ok bool) {
	gx, gy, ok := m.GridCoord(worldX, worldZ)
	if !ok {
		return 0, 0, false
	}
	return int(gx + 0.5), int(gy + 0.5), true
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
