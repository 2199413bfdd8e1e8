// Package config handles biomeforge configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/biomeforge/internal/engine/biome"
	"github.com/Faultbox/biomeforge/internal/engine/population"
	"github.com/Faultbox/biomeforge/internal/engine/terrain"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Terrain    TerrainConfig    `yaml:"terrain"`
	Population PopulationConfig `yaml:"population"`
	Props      []PropConfig     `yaml:"props"`
	Assets     AssetsConfig     `yaml:"assets"`
	Server     ServerConfig     `yaml:"server"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// TerrainConfig holds terrain synthesis settings.
type TerrainConfig struct {
	Width      float32 `yaml:"width"`       // world units along X
	Height     float32 `yaml:"height"`      // world units along Z
	DepthScale float32 `yaml:"depth_scale"` // height of a full-intensity sample
	SeaLevel   float32 `yaml:"sea_level"`
	SeaFloor   float32 `yaml:"sea_floor"`
	DefaultMap string  `yaml:"default_map"`
}

// PopulationConfig holds the placement seed and per-category rules, keyed by
// category name ("tree-canopy", "deer", ...).
type PopulationConfig struct {
	Seed       int64                     `yaml:"seed"`
	Categories map[string]CategoryConfig `yaml:"categories"`
}

// CategoryConfig is the YAML form of a placement rule plus its model path.
type CategoryConfig struct {
	Capacity     int     `yaml:"capacity"`
	Probability  float64 `yaml:"probability"`
	Scale        float32 `yaml:"scale"`
	Biome        string  `yaml:"biome"`
	MinElevation float32 `yaml:"min_elevation"`
	RandomYaw    bool    `yaml:"random_yaw"`
	SeedGroup    string  `yaml:"seed_group,omitempty"`
	Model        string  `yaml:"model"`
}

// PropConfig places one fixed model, independent of the terrain.
type PropConfig struct {
	Name     string     `yaml:"name"`
	Model    string     `yaml:"model"`
	Position [3]float32 `yaml:"position,flow"`
	Scale    float32    `yaml:"scale"`
	Yaw      float32    `yaml:"yaw"` // degrees
}

// AssetsConfig holds asset locations.
type AssetsConfig struct {
	Roots      []string `yaml:"roots"`       // searched last to first
	TextureDir string   `yaml:"texture_dir"` // relative to a root
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ViewerConfig holds display and camera settings for the viewer.
type ViewerConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	FPSLimit   int        `yaml:"fps_limit"`
	FOV        float32    `yaml:"fov"`
	Near       float32    `yaml:"near"`
	Far        float32    `yaml:"far"`
	FlySpeed   float32    `yaml:"fly_speed"` // world units per key press tick
	SkyColor   [3]float32 `yaml:"sky_color,flow"`
	FogNear    float32    `yaml:"fog_near"`
	FogFar     float32    `yaml:"fog_far"`
	Water      bool       `yaml:"water"`
	WaterLevel float32    `yaml:"water_level"`
	WaterColor [3]float32 `yaml:"water_color,flow"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	tc := terrain.DefaultConfig()
	return &Config{
		Terrain: TerrainConfig{
			Width:      tc.Width,
			Height:     tc.Height,
			DepthScale: tc.DepthScale,
			SeaLevel:   tc.SeaLevel,
			SeaFloor:   tc.SeaFloor,
			DefaultMap: terrain.DefaultPreset().File,
		},
		Population: PopulationConfig{
			Seed:       1,
			Categories: defaultCategories(),
		},
		Props: []PropConfig{
			{Name: "buoy", Model: "assets/buoy.obj", Position: [3]float32{100, 2, 100}, Scale: 1},
			{Name: "deer", Model: "assets/deer.obj", Position: [3]float32{0, 50, 0}, Scale: 1},
		},
		Assets: AssetsConfig{
			Roots:      []string{"."},
			TextureDir: "textures",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			FOV:        75,
			Near:       0.1,
			Far:        2000,
			FlySpeed:   6,
			SkyColor:   [3]float32{0.529, 0.808, 0.922},
			FogNear:    tc.Width / 2,
			FogFar:     tc.Width * 1.5,
			Water:      true,
			WaterLevel: tc.SeaLevel,
			WaterColor: [3]float32{0, 0.412, 0.58},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

func defaultCategories() map[string]CategoryConfig {
	models := population.DefaultModels()
	out := make(map[string]CategoryConfig)
	for c, r := range population.DefaultRules() {
		out[c.String()] = CategoryConfig{
			Capacity:     r.Capacity,
			Probability:  r.Probability,
			Scale:        r.Scale,
			Biome:        r.RequiredBiome.String(),
			MinElevation: r.MinElevation,
			RandomYaw:    r.RandomYaw,
			SeedGroup:    r.SeedGroup,
			Model:        models[c],
		}
	}
	return out
}

// UnmarshalYAML merges each category entry into its existing value, so a
// file can override one field of a default category without restating the rest.
func (p *PopulationConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Seed       *int64               `yaml:"seed"`
		Categories map[string]yaml.Node `yaml:"categories"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Seed != nil {
		p.Seed = *raw.Seed
	}
	if len(raw.Categories) > 0 && p.Categories == nil {
		p.Categories = make(map[string]CategoryConfig)
	}
	for name, n := range raw.Categories {
		cc := p.Categories[name]
		if err := n.Decode(&cc); err != nil {
			return fmt.Errorf("population category %s: %w", name, err)
		}
		p.Categories[name] = cc
	}
	return nil
}

// Synthesis returns the terrain synthesizer settings.
func (t TerrainConfig) Synthesis() terrain.Config {
	return terrain.Config{
		Width:      t.Width,
		Height:     t.Height,
		DepthScale: t.DepthScale,
		SeaLevel:   t.SeaLevel,
		SeaFloor:   t.SeaFloor,
	}
}

// Rules converts the category table into population rules.
func (p PopulationConfig) Rules() (population.Rules, error) {
	rules := make(population.Rules, len(p.Categories))
	for name, cc := range p.Categories {
		c, err := population.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("population: %w: %w", ErrInvalid, err)
		}
		b, err := biome.ParseBiome(cc.Biome)
		if err != nil {
			return nil, fmt.Errorf("population %s: %w: %w", name, ErrInvalid, err)
		}
		rules[c] = population.Rule{
			Capacity:      cc.Capacity,
			Probability:   cc.Probability,
			Scale:         cc.Scale,
			RequiredBiome: b,
			MinElevation:  cc.MinElevation,
			RandomYaw:     cc.RandomYaw,
			SeedGroup:     cc.SeedGroup,
		}
	}
	return rules, nil
}

// Models returns the model asset path of every configured category.
func (p PopulationConfig) Models() map[population.Category]string {
	out := make(map[population.Category]string, len(p.Categories))
	for name, cc := range p.Categories {
		if c, err := population.ParseCategory(name); err == nil {
			out[c] = cc.Model
		}
	}
	return out
}

// Validate checks values that would otherwise fail later at load time.
func (c *Config) Validate() error {
	t := c.Terrain
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("terrain size %vx%v: %w", t.Width, t.Height, ErrInvalid)
	}
	if t.DepthScale <= 0 {
		return fmt.Errorf("terrain depth_scale %v: %w", t.DepthScale, ErrInvalid)
	}
	if t.DefaultMap == "" {
		return fmt.Errorf("terrain default_map is empty: %w", ErrInvalid)
	}

	rules, err := c.Population.Rules()
	if err != nil {
		return err
	}
	if err := rules.Validate(); err != nil {
		return fmt.Errorf("population: %w: %w", ErrInvalid, err)
	}

	for i, p := range c.Props {
		if p.Model == "" {
			return fmt.Errorf("props[%d] %q has no model: %w", i, p.Name, ErrInvalid)
		}
		if p.Scale < 0 {
			return fmt.Errorf("props[%d] %q scale %v: %w", i, p.Name, p.Scale, ErrInvalid)
		}
	}

	if len(c.Assets.Roots) == 0 {
		return fmt.Errorf("assets roots is empty: %w", ErrInvalid)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging level %q: %w", c.Logging.Level, ErrInvalid)
	}
	return nil
}
