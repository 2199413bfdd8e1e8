package terrain

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Faultbox/biomeforge/internal/engine/biome"
	"github.com/Faultbox/biomeforge/internal/engine/raster"
	"github.com/Faultbox/biomeforge/pkg/formats"
)

// makeImages returns an elevation image where every pixel has red = sample(x,y)
// and a classification image filled with one color.
func makeImages(w, h int, sample func(x, y int) uint8, class biome.ID) (*raster.Image, *biome.Index) {
	elev := raster.New(w, h)
	cls := raster.New(w, h)
	for y := range h {
		for x := range w {
			elev.Set(x, y, sample(x, y), 0, 0, 255)
			cls.Set(x, y, uint8(class>>16), uint8(class>>8), uint8(class), 255)
		}
	}
	return elev, biome.BuildIndex(cls)
}

func TestSynthesize_Counts(t *testing.T) {
	sizes := [][2]int{{2, 2}, {3, 5}, {16, 9}, {64, 64}}
	for _, s := range sizes {
		w, h := s[0], s[1]
		elev, idx := makeImages(w, h, func(x, y int) uint8 { return uint8(x + y) }, biome.IDForest)

		m, err := Synthesize(elev, idx, DefaultConfig())
		if err != nil {
			t.Fatalf("%dx%d: Synthesize failed: %v", w, h, err)
		}
		if len(m.Vertices) != w*h {
			t.Errorf("%dx%d: vertices = %d, want %d", w, h, len(m.Vertices), w*h)
		}
		if m.CellCount() != (w-1)*(h-1) {
			t.Errorf("%dx%d: cells = %d, want %d", w, h, m.CellCount(), (w-1)*(h-1))
		}
		if m.TriangleCount() != 2*(w-1)*(h-1) {
			t.Errorf("%dx%d: triangles = %d, want %d", w, h, m.TriangleCount(), 2*(w-1)*(h-1))
		}
		if len(m.Heights) != h || len(m.Heights[0]) != w {
			t.Errorf("%dx%d: heights shape %dx%d", w, h, len(m.Heights[0]), len(m.Heights))
		}
	}
}

func TestElevationRule(t *testing.T) {
	cfg := DefaultConfig()
	for s := 0; s <= 255; s++ {
		got := cfg.Elevation(uint8(s))
		scaled := float32(uint8(s)) / 255 * cfg.DepthScale
		if scaled < 1 {
			if got != DefaultSeaFloor {
				t.Errorf("Elevation(%d) = %v, want sea floor %v", s, got, float32(DefaultSeaFloor))
			}
			continue
		}
		if got != scaled {
			t.Errorf("Elevation(%d) = %v, want %v", s, got, scaled)
		}
	}

	// 40/255*6 < 1 and 40/255*7 > 1
	if got := cfg.Elevation(6); got != -40 {
		t.Errorf("Elevation(6) = %v, want -40", got)
	}
	if got := cfg.Elevation(7); got <= 1 {
		t.Errorf("Elevation(7) = %v, want > 1", got)
	}
}

func TestSynthesize_HeightsAndColors(t *testing.T) {
	elev, idx := makeImages(4, 4, func(x, y int) uint8 {
		if x == 0 {
			return 0
		}
		return 255
	}, biome.IDDesert)

	m, err := Synthesize(elev, idx, DefaultConfig())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	for y := range 4 {
		if m.Heights[y][0] != DefaultSeaFloor {
			t.Errorf("Heights[%d][0] = %v, want sea floor", y, m.Heights[y][0])
		}
		if m.Heights[y][3] != DefaultDepthScale {
			t.Errorf("Heights[%d][3] = %v, want %v", y, m.Heights[y][3], float32(DefaultDepthScale))
		}
		if z := m.Vertices[y*4+3].Position[2]; z != m.Heights[y][3] {
			t.Errorf("vertex z %v does not match stored height %v", z, m.Heights[y][3])
		}
	}
	for i, v := range m.Vertices {
		if v.Color != biome.Color(biome.Desert) {
			t.Fatalf("vertex %d color = %v, want desert", i, v.Color)
		}
	}
}

func TestSynthesize_MixedBiomeColors(t *testing.T) {
	elev := raster.New(2, 2)
	cls := raster.New(2, 2)
	cls.Set(0, 0, 0, 255, 0, 255)  // forest
	cls.Set(1, 0, 0, 0, 255, 255)  // winter forest
	cls.Set(0, 1, 255, 0, 0, 255)  // city
	cls.Set(1, 1, 10, 20, 30, 255) // unknown

	m, err := Synthesize(elev, biome.BuildIndex(cls), DefaultConfig())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	want := []biome.Biome{biome.Forest, biome.WinterForest, biome.City, biome.Unclassified}
	for i, b := range want {
		if m.Vertices[i].Color != biome.Color(b) {
			t.Errorf("vertex %d color = %v, want %v (%v)", i, m.Vertices[i].Color, biome.Color(b), b)
		}
	}
}

func TestSynthesize_LayoutAndOrientation(t *testing.T) {
	elev, idx := makeImages(3, 3, func(x, y int) uint8 { return 255 }, biome.IDForest)
	m, err := Synthesize(elev, idx, DefaultConfig())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	// Corner (0,0) sits at plane (-500, +500); world Z is the negated plane Y.
	p := m.WorldPosition(0, 0)
	if p.X != -500 || p.Y != 40 || p.Z != -500 {
		t.Errorf("WorldPosition(0,0) = %v, want (-500, 40, -500)", p)
	}
	p = m.WorldPosition(2, 2)
	if p.X != 500 || p.Z != 500 {
		t.Errorf("WorldPosition(2,2) = %v, want x=500 z=500", p)
	}

	// The oriented mesh agrees with WorldPosition.
	op := m.Orientation.TransformPoint(m.Vertices[0].Position)
	if absf(op[0]-(-500)) > 0.01 || absf(op[1]-40) > 0.01 || absf(op[2]-(-500)) > 0.01 {
		t.Errorf("oriented vertex 0 = %v, want (-500, 40, -500)", op)
	}

	// Flat terrain faces straight up in world space.
	n := m.WorldNormal(1, 1)
	if absf(n.X) > 0.001 || absf(n.Y-1) > 0.001 || absf(n.Z) > 0.001 {
		t.Errorf("WorldNormal on flat terrain = %v, want (0,1,0)", n)
	}

	if m.Bounds.Min[1] != 40 || m.Bounds.Max[1] != 40 || m.Bounds.Min[0] != -500 || m.Bounds.Max[2] != 500 {
		t.Errorf("Bounds = %+v", m.Bounds)
	}
}

func TestSynthesize_SlopeNormal(t *testing.T) {
	// Height rises with x, so the surface tilts toward -X.
	elev, idx := makeImages(5, 5, func(x, y int) uint8 { return uint8(50 + 40*x) }, biome.IDForest)
	m, err := Synthesize(elev, idx, Config{Width: 100, Height: 100, DepthScale: 40, SeaLevel: 1, SeaFloor: -40})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	n := m.WorldNormal(2, 2)
	if n.X >= 0 || n.Y <= 0 {
		t.Errorf("WorldNormal on +X slope = %v, want negative X and positive Y", n)
	}
	if l := n.Length(); absf(l-1) > 0.001 {
		t.Errorf("normal length = %v, want 1", l)
	}
}

func TestSynthesize_DimensionMismatch(t *testing.T) {
	elev := raster.New(64, 64)
	cls := raster.New(32, 32)

	m, err := Synthesize(elev, biome.BuildIndex(cls), DefaultConfig())
	if !errors.Is(err, raster.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if m != nil {
		t.Error("expected no mesh on mismatch")
	}
}

func TestSynthesize_TooSmall(t *testing.T) {
	elev := raster.New(1, 4)
	m, err := Synthesize(elev, biome.BuildIndex(raster.New(1, 4)), DefaultConfig())
	if !errors.Is(err, raster.ErrImageTooSmall) || m != nil {
		t.Errorf("Synthesize(1x4) = %v, %v; want ErrImageTooSmall", m, err)
	}
}

func TestHeightAt(t *testing.T) {
	// 3x3 grid, 100x100 world, heights 10/20/30 along x (samples chosen to scale exactly).
	elev, idx := makeImages(3, 3, func(x, y int) uint8 { return uint8(51 * (x + 1)) }, biome.IDForest)
	m, err := Synthesize(elev, idx, Config{Width: 100, Height: 100, DepthScale: 50, SeaLevel: 1, SeaFloor: -40})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	tests := []struct {
		x, z float32
		want float32
	}{
		{-50, -50, 10},
		{0, 0, 20},
		{25, 10, 25},
		{50, 50, 30},
	}
	for _, tt := range tests {
		got, ok := m.HeightAt(tt.x, tt.z)
		if !ok {
			t.Errorf("HeightAt(%v,%v) reported outside", tt.x, tt.z)
			continue
		}
		if absf(got-tt.want) > 0.01 {
			t.Errorf("HeightAt(%v,%v) = %v, want %v", tt.x, tt.z, got, tt.want)
		}
	}

	if _, ok := m.HeightAt(60, 0); ok {
		t.Error("HeightAt outside terrain should report !ok")
	}

	x, y, ok := m.CellAt(-26, 26)
	if !ok || x != 0 || y != 2 {
		t.Errorf("CellAt(-26,26) = (%d,%d,%v), want (0,2,true)", x, y, ok)
	}
}

func TestRelease(t *testing.T) {
	elev, idx := makeImages(2, 2, func(x, y int) uint8 { return 0 }, 0)
	m, err := Synthesize(elev, idx, DefaultConfig())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	calls := 0
	m.OnRelease(func() { calls++ })
	m.Release()
	m.Release()

	if calls != 1 {
		t.Errorf("release hook ran %d times, want 1", calls)
	}
	if !m.Released() {
		t.Error("Released() = false after Release")
	}
	if len(m.Vertices) != 4 {
		t.Error("Release must not drop geometry")
	}

	var nilMesh *Mesh
	nilMesh.Release()
}

func TestWriteOBJ(t *testing.T) {
	elev, idx := makeImages(3, 2, func(x, y int) uint8 { return 255 }, biome.IDCity)
	m, err := Synthesize(elev, idx, DefaultConfig())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	m.Name = "city"

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, m); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}

	obj, err := formats.ParseOBJ(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseOBJ of export failed: %v", err)
	}
	if len(obj.Positions) != 6 || obj.TriangleCount() != 4 {
		t.Errorf("export has %d positions / %d triangles, want 6 / 4", len(obj.Positions), obj.TriangleCount())
	}
	if obj.Name != "city" {
		t.Errorf("export name = %q", obj.Name)
	}
	if absf(obj.Positions[0][1]-40) > 0.01 {
		t.Errorf("exported vertex 0 y = %v, want 40 (oriented height)", obj.Positions[0][1])
	}
	if obj.Colors[0] != biome.Color(biome.City) {
		t.Errorf("exported color = %v, want city", obj.Colors[0])
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
