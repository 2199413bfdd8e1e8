package population

import (
	"errors"
	"fmt"

	"github.com/Faultbox/biomeforge/internal/engine/biome"
)

// ErrInvalidRule is returned by Validate for unusable placement rules.
var ErrInvalidRule = errors.New("invalid placement rule")

// Default minimum elevations. Most categories stay clear of the shoreline at 4
// world units; the snake rule keeps the lower threshold of 1.
const (
	DefaultMinElevation = 4
	LowMinElevation     = 1
)

// Rule controls where and how densely a category is placed.
type Rule struct {
	Capacity      int         `yaml:"capacity" json:"capacity"`
	Probability   float64     `yaml:"probability" json:"probability"` // per eligible cell
	Scale         float32     `yaml:"scale" json:"scale"`
	RequiredBiome biome.Biome `yaml:"biome" json:"biome"`
	MinElevation  float32     `yaml:"min_elevation" json:"min_elevation"` // cell height must exceed this
	RandomYaw     bool        `yaml:"random_yaw" json:"random_yaw"`

	// SeedGroup names the random stream. Categories sharing a group and
	// identical parameters receive identical transforms (canopy and trunk).
	SeedGroup string `yaml:"seed_group,omitempty" json:"seed_group,omitempty"`
}

// Group returns the seed group for c, defaulting to the category name.
func (r Rule) Group(c Category) string {
	if r.SeedGroup != "" {
		return r.SeedGroup
	}
	return c.String()
}

// placement strips the fields that do not influence where instances land.
func (r Rule) placement() Rule {
	r.SeedGroup = ""
	return r
}

// Rules maps each category to its placement rule.
type Rules map[Category]Rule

// DefaultRules returns the stock vegetation and wildlife configuration.
func DefaultRules() Rules {
	vegetation := Rule{
		Capacity:      1000,
		Probability:   0.02,
		Scale:         3,
		RequiredBiome: biome.Forest,
		MinElevation:  DefaultMinElevation,
		SeedGroup:     "vegetation",
	}
	return Rules{
		Canopy: vegetation,
		Trunk:  vegetation,
		Deer: {
			Capacity:      100,
			Probability:   0.002,
			Scale:         1,
			RequiredBiome: biome.Forest,
			MinElevation:  DefaultMinElevation,
			RandomYaw:     true,
		},
		Wolf: {
			Capacity:      100,
			Probability:   0.002,
			Scale:         1,
			RequiredBiome: biome.WinterForest,
			MinElevation:  DefaultMinElevation,
			RandomYaw:     true,
		},
		Snake: {
			Capacity:      100,
			Probability:   0.003,
			Scale:         0.5,
			RequiredBiome: biome.Desert,
			MinElevation:  LowMinElevation,
			RandomYaw:     true,
		},
	}
}

// Validate checks every rule and that categories sharing a seed group would
// produce the same placements.
func (rs Rules) Validate() error {
	groups := make(map[string]Category)
	for _, c := range AllCategories() {
		r, ok := rs[c]
		if !ok {
			continue
		}
		switch {
		case r.Capacity <= 0:
			return fmt.Errorf("%s: capacity %d must be positive: %w", c, r.Capacity, ErrInvalidRule)
		case r.Probability < 0 || r.Probability > 1:
			return fmt.Errorf("%s: probability %v outside [0,1]: %w", c, r.Probability, ErrInvalidRule)
		case r.Scale <= 0:
			return fmt.Errorf("%s: scale %v must be positive: %w", c, r.Scale, ErrInvalidRule)
		}

		g := r.Group(c)
		if first, seen := groups[g]; seen {
			if rs[first].placement() != r.placement() {
				return fmt.Errorf("%s and %s share seed group %q but differ in placement: %w", first, c, g, ErrInvalidRule)
			}
			continue
		}
		groups[g] = c
	}
	return nil
}
