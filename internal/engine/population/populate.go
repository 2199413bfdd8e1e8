package population

import (
	"hash/fnv"
	gomath "math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/biomeforge/internal/engine/biome"
	"github.com/Faultbox/biomeforge/internal/engine/terrain"
	"github.com/Faultbox/biomeforge/internal/logger"
	"github.com/Faultbox/biomeforge/pkg/math"
)

// NewRand returns a deterministic PCG stream for one seed group of one
// terrain generation.
func NewRand(seed int64, generation uint64, group string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(group))
	return rand.New(rand.NewPCG(uint64(seed)^h.Sum64(), generation))
}

// Populate scans every grid cell row by row and places instances into set.
//
// A cell is eligible when its height exceeds rule.MinElevation and its biome
// equals rule.RequiredBiome; each eligible cell is accepted independently with
// rule.Probability. Placement stops once the set is full. The set is left
// untouched when terrain data is missing, so callers can invoke it before
// loading has finished.
func Populate(set *InstanceSet, mesh *terrain.Mesh, idx *biome.Index, rule Rule, rng *rand.Rand) int {
	if set == nil || mesh == nil || idx == nil {
		return 0
	}
	set.Reset()

	limit := set.Capacity
	if rule.Capacity > 0 && rule.Capacity < limit {
		limit = rule.Capacity
	}
	if limit == 0 || rule.Probability <= 0 {
		return 0
	}

	rows := min(mesh.Rows, idx.Height)
	cols := min(mesh.Columns, idx.Width)
	scale := math.Uniform(rule.Scale)

scan:
	for y := range rows {
		heights := mesh.Heights[y]
		for x := range cols {
			if heights[x] <= rule.MinElevation || idx.BiomeAt(x, y) != rule.RequiredBiome {
				continue
			}
			if rng.Float64() >= rule.Probability {
				continue
			}

			t := Transform{
				Position: mesh.WorldPosition(x, y),
				Scale:    scale,
			}
			if rule.RandomYaw {
				t.Yaw = float32(rng.Float64() * 2 * gomath.Pi)
			}

			set.Transforms[set.Count] = t
			set.Count++
			if set.Count == limit {
				break scan
			}
		}
	}

	return set.Count
}

// Engine populates categories with a fixed rule table and base seed.
type Engine struct {
	Rules Rules
	Seed  int64
}

// NewEngine creates an engine for the given rules.
func NewEngine(rules Rules, seed int64) *Engine {
	return &Engine{Rules: rules, Seed: seed}
}

// NewSet allocates an instance set sized for category c.
func (e *Engine) NewSet(c Category) *InstanceSet {
	return NewInstanceSet(c, e.Rules[c].Capacity)
}

// Populate re-places category c from scratch. The random stream depends only
// on the seed, the terrain generation and the category's seed group, so
// repeated calls against the same terrain produce the same placements.
func (e *Engine) Populate(c Category, set *InstanceSet, mesh *terrain.Mesh, idx *biome.Index, generation uint64) int {
	rule, ok := e.Rules[c]
	if !ok {
		return 0
	}
	n := Populate(set, mesh, idx, rule, NewRand(e.Seed, generation, rule.Group(c)))

	if set != nil && mesh != nil && set.Full() {
		logger.Debug("instance set at capacity",
			zap.Stringer("category", c),
			zap.Int("capacity", set.Capacity))
	}
	return n
}
