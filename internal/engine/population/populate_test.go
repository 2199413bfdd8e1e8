package population

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/biomeforge/internal/engine/biome"
	"github.com/Faultbox/biomeforge/internal/engine/raster"
	"github.com/Faultbox/biomeforge/internal/engine/terrain"
	"github.com/Faultbox/biomeforge/pkg/math"
)

// buildTerrain synthesizes a w×h terrain. elevation and class are evaluated per pixel.
func buildTerrain(t *testing.T, w, h int, elevation func(x, y int) uint8, class func(x, y int) biome.ID) (*terrain.Mesh, *biome.Index) {
	t.Helper()
	elev := raster.New(w, h)
	cls := raster.New(w, h)
	for y := range h {
		for x := range w {
			elev.Set(x, y, elevation(x, y), 0, 0, 255)
			id := class(x, y)
			cls.Set(x, y, uint8(id>>16), uint8(id>>8), uint8(id), 255)
		}
	}
	idx := biome.BuildIndex(cls)
	mesh, err := terrain.Synthesize(elev, idx, terrain.DefaultConfig())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	return mesh, idx
}

func constElev(v uint8) func(x, y int) uint8 { return func(int, int) uint8 { return v } }
func constClass(id biome.ID) func(x, y int) biome.ID { return func(int, int) biome.ID { return id } }

func TestPopulate_AllAcceptedUpToCapacity(t *testing.T) {
	mesh, idx := buildTerrain(t, 20, 20, constElev(255), constClass(biome.IDForest))
	set := NewInstanceSet(Deer, 50)
	rule := Rule{Capacity: 50, Probability: 1, Scale: 2, RequiredBiome: biome.Forest, MinElevation: 4}

	n := Populate(set, mesh, idx, rule, NewRand(1, 1, "deer"))
	if n != 50 || set.Count != 50 {
		t.Fatalf("placed %d (Count %d), want 50", n, set.Count)
	}
	if !set.Full() {
		t.Error("expected set to be full")
	}

	// Row-major scan: the first 20 placements are row 0, then row 1 begins.
	if got, want := set.Transforms[0].Position, mesh.WorldPosition(0, 0); got != want {
		t.Errorf("first placement = %v, want %v", got, want)
	}
	if got, want := set.Transforms[20].Position, mesh.WorldPosition(0, 1); got != want {
		t.Errorf("21st placement = %v, want %v", got, want)
	}
	for i, tr := range set.Live() {
		if tr.Scale.X != 2 || tr.Scale.Y != 2 || tr.Scale.Z != 2 {
			t.Fatalf("placement %d scale = %v, want uniform 2", i, tr.Scale)
		}
		if tr.Yaw != 0 {
			t.Fatalf("placement %d has yaw %v without RandomYaw", i, tr.Yaw)
		}
	}
}

func TestPopulate_PlacementsAreEligible(t *testing.T) {
	// Stripes of forest and desert, heights ramping across x.
	mesh, idx := buildTerrain(t, 40, 40,
		func(x, y int) uint8 { return uint8(x * 6) },
		func(x, y int) biome.ID {
			if y%2 == 0 {
				return biome.IDForest
			}
			return biome.IDDesert
		})

	rule := Rule{Capacity: 100, Probability: 0.3, Scale: 1, RequiredBiome: biome.Forest, MinElevation: 4, RandomYaw: true}
	set := NewInstanceSet(Deer, rule.Capacity)
	Populate(set, mesh, idx, rule, NewRand(7, 3, "deer"))

	if set.Count == 0 || set.Count > set.Capacity {
		t.Fatalf("Count = %d, want in (0, %d]", set.Count, set.Capacity)
	}
	for i, tr := range set.Live() {
		x, y, ok := mesh.CellAt(tr.Position.X, tr.Position.Z)
		if !ok {
			t.Fatalf("placement %d at %v is off the terrain", i, tr.Position)
		}
		if mesh.Heights[y][x] <= rule.MinElevation {
			t.Errorf("placement %d on height %v <= %v", i, mesh.Heights[y][x], rule.MinElevation)
		}
		if idx.BiomeAt(x, y) != biome.Forest {
			t.Errorf("placement %d on %v, want forest", i, idx.BiomeAt(x, y))
		}
		if tr.Position.Y != mesh.Heights[y][x] {
			t.Errorf("placement %d y = %v, want cell height %v", i, tr.Position.Y, mesh.Heights[y][x])
		}
		if tr.Yaw < 0 || tr.Yaw >= 2*gomath.Pi {
			t.Errorf("placement %d yaw %v outside [0, 2pi)", i, tr.Yaw)
		}
	}
}

func TestPopulate_Deterministic(t *testing.T) {
	mesh, idx := buildTerrain(t, 30, 30, constElev(200), constClass(biome.IDWinterForest))
	rule := DefaultRules()[Wolf]
	rule.Probability = 0.1

	a := NewInstanceSet(Wolf, rule.Capacity)
	b := NewInstanceSet(Wolf, rule.Capacity)
	Populate(a, mesh, idx, rule, NewRand(42, 9, "wolf"))
	Populate(b, mesh, idx, rule, NewRand(42, 9, "wolf"))
	// Running again into a used set must overwrite, not append.
	Populate(b, mesh, idx, rule, NewRand(42, 9, "wolf"))

	if a.Count != b.Count {
		t.Fatalf("counts differ: %d vs %d", a.Count, b.Count)
	}
	for i := range a.Live() {
		if a.Transforms[i] != b.Transforms[i] {
			t.Fatalf("placement %d differs: %v vs %v", i, a.Transforms[i], b.Transforms[i])
		}
	}
}

func TestPopulate_WrongBiomeYieldsEmptySet(t *testing.T) {
	mesh, idx := buildTerrain(t, 16, 16, constElev(255), constClass(biome.IDDesert))
	rule := Rule{Capacity: 1000, Probability: 1, Scale: 1, RequiredBiome: biome.Forest, MinElevation: 4}
	set := NewInstanceSet(Canopy, 1000)

	if n := Populate(set, mesh, idx, rule, NewRand(1, 1, "vegetation")); n != 0 {
		t.Errorf("placed %d on all-desert terrain, want 0", n)
	}
	if set.Count != 0 || len(set.Transforms) != 1000 {
		t.Errorf("set = count %d / storage %d, want 0 / 1000", set.Count, len(set.Transforms))
	}
}

func TestPopulate_MinElevationThreshold(t *testing.T) {
	// 25/255*40 = 3.92, 26/255*40 = 4.08
	mesh, idx := buildTerrain(t, 2, 2, func(x, y int) uint8 {
		if x == 0 {
			return 25
		}
		return 26
	}, constClass(biome.IDDesert))

	high := Rule{Capacity: 10, Probability: 1, Scale: 1, RequiredBiome: biome.Desert, MinElevation: DefaultMinElevation}
	low := high
	low.MinElevation = LowMinElevation

	set := NewInstanceSet(Snake, 10)
	if n := Populate(set, mesh, idx, high, NewRand(1, 1, "snake")); n != 2 {
		t.Errorf("min elevation 4: placed %d, want 2", n)
	}
	if n := Populate(set, mesh, idx, low, NewRand(1, 1, "snake")); n != 4 {
		t.Errorf("min elevation 1: placed %d, want 4", n)
	}
}

func TestPopulate_NoTerrainIsNoop(t *testing.T) {
	set := NewInstanceSet(Deer, 5)
	set.Count = 3

	if n := Populate(set, nil, nil, DefaultRules()[Deer], NewRand(1, 1, "deer")); n != 0 {
		t.Errorf("Populate without terrain = %d, want 0", n)
	}
	if set.Count != 3 {
		t.Errorf("set mutated without terrain: Count = %d", set.Count)
	}
}

func TestEngine_CanopyTrunkAligned(t *testing.T) {
	mesh, idx := buildTerrain(t, 50, 50, constElev(180), constClass(biome.IDForest))
	e := NewEngine(DefaultRules(), 1234)

	canopy := e.NewSet(Canopy)
	trunk := e.NewSet(Trunk)
	nc := e.Populate(Canopy, canopy, mesh, idx, 5)
	nt := e.Populate(Trunk, trunk, mesh, idx, 5)

	if nc == 0 {
		t.Fatal("expected some vegetation on an all-forest map")
	}
	if nc != nt {
		t.Fatalf("canopy %d vs trunk %d placements", nc, nt)
	}
	for i := range canopy.Live() {
		if canopy.Transforms[i] != trunk.Transforms[i] {
			t.Fatalf("placement %d misaligned: %v vs %v", i, canopy.Transforms[i], trunk.Transforms[i])
		}
	}

	// A different generation reshuffles the stream.
	other := e.NewSet(Canopy)
	e.Populate(Canopy, other, mesh, idx, 6)
	same := other.Count == canopy.Count
	for i := 0; same && i < other.Count; i++ {
		same = other.Transforms[i] == canopy.Transforms[i]
	}
	if same {
		t.Error("expected a new generation to change placements")
	}
}

func TestInstanceSet(t *testing.T) {
	s := NewInstanceSet(Wolf, 3)
	if s.Capacity != 3 || len(s.Transforms) != 3 || s.Count != 0 {
		t.Fatalf("NewInstanceSet = %+v", s)
	}
	s.Transforms[0] = Transform{Scale: math.Uniform(1)}
	s.Count = 1

	m := s.AppendMatrices(nil)
	if len(m) != 16 {
		t.Fatalf("AppendMatrices len = %d, want 16", len(m))
	}
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Errorf("identity placement matrix = %v", m)
	}

	s.Reset()
	if s.Count != 0 || len(s.Transforms) != 3 {
		t.Errorf("Reset: count %d storage %d", s.Count, len(s.Transforms))
	}
	if NewInstanceSet(Deer, -1).Capacity != 0 {
		t.Error("negative capacity should clamp to 0")
	}
}

func TestRulesValidate(t *testing.T) {
	if err := DefaultRules().Validate(); err != nil {
		t.Fatalf("DefaultRules().Validate() = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(Rules)
	}{
		{"zero capacity", func(r Rules) { d := r[Deer]; d.Capacity = 0; r[Deer] = d }},
		{"probability", func(r Rules) { d := r[Wolf]; d.Probability = 1.5; r[Wolf] = d }},
		{"scale", func(r Rules) { d := r[Snake]; d.Scale = 0; r[Snake] = d }},
		{"split pair", func(r Rules) { d := r[Trunk]; d.Probability = 0.5; r[Trunk] = d }},
		{"pair yaw", func(r Rules) { d := r[Trunk]; d.RandomYaw = true; r[Trunk] = d }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRules()
			tt.mutate(r)
			if err := r.Validate(); !errors.Is(err, ErrInvalidRule) {
				t.Errorf("Validate() = %v, want ErrInvalidRule", err)
			}
		})
	}
}

func TestCategoryNames(t *testing.T) {
	for _, c := range AllCategories() {
		got, err := ParseCategory(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCategory(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCategory("bear"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestDefaultModels(t *testing.T) {
	models := DefaultModels()
	for _, c := range AllCategories() {
		if models[c] == "" {
			t.Errorf("no default model for %s", c)
		}
	}
	if models[Deer] != "assets/deer.obj" {
		t.Errorf("deer model = %q", models[Deer])
	}

	// Callers get their own copy.
	models[Deer] = "x"
	if DefaultModels()[Deer] != "assets/deer.obj" {
		t.Error("DefaultModels() exposes internal table")
	}
}
