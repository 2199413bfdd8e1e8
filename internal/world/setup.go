package world

import (
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/biomeforge/internal/assets"
	"github.com/Faultbox/biomeforge/internal/config"
	"github.com/Faultbox/biomeforge/internal/logger"
	"github.com/Faultbox/biomeforge/pkg/math"
)

// NewAssets creates an asset manager over the configured roots. Later roots
// take priority.
func NewAssets(cfg config.AssetsConfig) (*assets.Manager, error) {
	mgr := assets.NewManager()
	for _, root := range cfg.Roots {
		if err := mgr.AddDir(root); err != nil {
			return nil, fmt.Errorf("asset root: %w", err)
		}
		logger.Debug("asset root added", zap.String("dir", root))
	}
	return mgr, nil
}

// FromConfig builds a coordinator from a loaded config.
func FromConfig(cfg *config.Config, loader Loader) (*Coordinator, error) {
	rules, err := cfg.Population.Rules()
	if err != nil {
		return nil, err
	}
	return New(loader, Options{
		Terrain:    cfg.Terrain.Synthesis(),
		Rules:      rules,
		Models:     cfg.Population.Models(),
		TextureDir: cfg.Assets.TextureDir,
		Seed:       cfg.Population.Seed,
		Props:      propsFromConfig(cfg.Props),
	}), nil
}

func propsFromConfig(in []config.PropConfig) []Prop {
	out := make([]Prop, 0, len(in))
	for _, p := range in {
		out = append(out, Prop{
			Name:     p.Name,
			Model:    p.Model,
			Position: math.V3(p.Position),
			Scale:    p.Scale,
			Yaw:      p.Yaw * gomath.Pi / 180,
		})
	}
	return out
}
