// Package world coordinates asynchronous terrain and model loading, terrain
// synthesis and population, and publishes the result for renderers.
//
// A Coordinator is owned by one goroutine. Fetches run in the background and
// report back through Completions; the owner applies them with Pump, Wait or
// Apply. Only Frame may be called from other goroutines.
package world

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/biomeforge/internal/engine/biome"
	"github.com/Faultbox/biomeforge/internal/engine/population"
	"github.com/Faultbox/biomeforge/internal/engine/raster"
	"github.com/Faultbox/biomeforge/internal/engine/terrain"
	"github.com/Faultbox/biomeforge/internal/logger"
	"github.com/Faultbox/biomeforge/pkg/formats"
)

// ErrResourceLoad wraps every fetch or decode failure.
var ErrResourceLoad = errors.New("resource load failed")

// DefaultTextureDir is where elevation and biome maps are looked up.
const DefaultTextureDir = "textures"

// Loader fetches raw asset bytes. assets.Manager implements it.
type Loader interface {
	Load(path string) ([]byte, error)
}

// Options configures a Coordinator. Zero fields fall back to defaults.
type Options struct {
	Terrain    terrain.Config
	Rules      population.Rules
	Models     map[population.Category]string // model asset path per category; empty means no geometry
	TextureDir string
	Seed       int64
	Props      []Prop

	// OnRelease is called with the outgoing mesh right before its
	// replacement is published, ahead of the mesh's own release hooks.
	OnRelease func(*terrain.Mesh)
}

// Kind identifies what a Completion carries.
type Kind uint8

// Completion kinds.
const (
	KindElevation Kind = iota
	KindClassification
	KindModel
	KindProp
	KindMaterial
)

func (k Kind) String() string {
	switch k {
	case KindElevation:
		return "elevation"
	case KindClassification:
		return "classification"
	case KindModel:
		return "model"
	case KindProp:
		return "prop"
	case KindMaterial:
		return "material"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// failure is the log message for a failed load of kind k.
func (k Kind) failure() string {
	switch k {
	case KindModel:
		return "model load failed"
	case KindProp:
		return "prop load failed"
	case KindMaterial:
		return "material load failed"
	default:
		return "terrain load failed"
	}
}

// Completion is the result of one background fetch.
type Completion struct {
	Generation uint64
	Kind       Kind
	Category   population.Category // KindModel only
	Prop       int                 // KindProp and KindMaterial only; index into Options.Props
	Path       string

	Image     *raster.Image
	Model     *formats.OBJ
	Materials map[string]*formats.Material
	Err       error
}

// Coordinator owns the world state: the current generation, readiness, the
// published mesh and the double-buffered instance sets.
type Coordinator struct {
	loader     Loader
	opts       Options
	engine     *population.Engine
	categories []population.Category
	log        *zap.Logger

	completions chan Completion
	pending     int

	generation uint64
	mapName    string
	loadID     string
	elevation  *raster.Image
	ready      Readiness

	// Displayed terrain; it can belong to an older generation than the
	// one requested.
	meshGen  uint64
	meshName string
	meshLoad string
	mesh     *terrain.Mesh
	index    *biome.Index

	models  map[population.Category]*formats.OBJ
	buffers map[population.Category]*[2]*population.InstanceSet
	front   map[population.Category]int

	// Props keep their last placement across reloads.
	props      []*PlacedProp
	propModels map[int]*formats.OBJ // waiting on a material library

	lastErr error
	frame   atomic.Pointer[Frame]
}

// New creates a coordinator. No load is started.
func New(loader Loader, opts Options) *Coordinator {
	if opts.Terrain == (terrain.Config{}) {
		opts.Terrain = terrain.DefaultConfig()
	}
	if opts.Rules == nil {
		opts.Rules = population.DefaultRules()
	}
	if opts.Models == nil {
		opts.Models = population.DefaultModels()
	}
	if opts.TextureDir == "" {
		opts.TextureDir = DefaultTextureDir
	}

	c := &Coordinator{
		loader:      loader,
		opts:        opts,
		engine:      population.NewEngine(opts.Rules, opts.Seed),
		log:         logger.Named("world"),
		completions: make(chan Completion, 64),
		ready:       Readiness{Models: make(map[population.Category]bool)},
		models:      make(map[population.Category]*formats.OBJ),
		buffers:     make(map[population.Category]*[2]*population.InstanceSet),
		front:       make(map[population.Category]int),
		props:       make([]*PlacedProp, len(opts.Props)),
		propModels:  make(map[int]*formats.OBJ),
	}

	for _, cat := range population.AllCategories() {
		if _, ok := opts.Rules[cat]; !ok {
			continue
		}
		c.categories = append(c.categories, cat)
		c.buffers[cat] = &[2]*population.InstanceSet{c.engine.NewSet(cat), c.engine.NewSet(cat)}
		c.ready.Models[cat] = false
	}

	c.publish()
	return c
}

// Categories returns the categories this coordinator populates.
func (c *Coordinator) Categories() []population.Category {
	return append([]population.Category(nil), c.categories...)
}

// LoadTerrain starts loading mapName (a file name under the texture dir)
// and returns the new generation. Any load still in flight is superseded;
// its completions will be dropped. The current terrain stays published
// until the new one has been synthesized.
func (c *Coordinator) LoadTerrain(mapName string) uint64 {
	c.generation++
	c.mapName = mapName
	c.loadID = uuid.NewString()
	c.elevation = nil
	c.lastErr = nil

	c.ready.Terrain = false
	for _, cat := range c.categories {
		c.ready.Models[cat] = false
		c.back(cat).Reset()
	}

	c.log.Info("loading terrain",
		zap.String("map", mapName),
		zap.Uint64("generation", c.generation),
		zap.String("load_id", c.loadID))

	c.fetch(Completion{Kind: KindElevation, Path: ElevationPath(c.opts.TextureDir, mapName)})

	for _, cat := range c.categories {
		p := c.opts.Models[cat]
		if p == "" {
			// Nothing to fetch; the category renders without geometry.
			c.ready.Models[cat] = true
			delete(c.models, cat)
			continue
		}
		c.fetch(Completion{Kind: KindModel, Category: cat, Path: p})
	}
	c.fetchProps()

	c.publish()
	return c.generation
}

// LoadPreset starts loading a named preset.
func (c *Coordinator) LoadPreset(name string) (uint64, error) {
	p, err := terrain.FindPreset(name)
	if err != nil {
		return 0, err
	}
	return c.LoadTerrain(p.File), nil
}

// fetch runs one load in the background, tagged with the current generation.
func (c *Coordinator) fetch(req Completion) {
	req.Generation = c.generation
	c.pending++

	go func() {
		data, err := c.loader.Load(req.Path)
		if err != nil {
			req.Err = fmt.Errorf("loading %s: %w: %w", req.Path, ErrResourceLoad, err)
			c.completions <- req
			return
		}

		switch req.Kind {
		case KindModel, KindProp:
			req.Model, err = formats.ParseOBJ(data)
		case KindMaterial:
			req.Materials, err = formats.ParseMTL(data)
		default:
			req.Image, err = raster.Decode(data)
		}
		if err != nil {
			req.Err = fmt.Errorf("decoding %s: %w: %w", req.Path, ErrResourceLoad, err)
		}
		c.completions <- req
	}()
}

// Completions returns the channel background fetches report on. Receive
// from it in a select loop and pass each value to Apply.
func (c *Coordinator) Completions() <-chan Completion {
	return c.completions
}

// Pending returns the number of fetches whose completion has not been applied.
func (c *Coordinator) Pending() int {
	return c.pending
}

// Pump applies every completion that is already available without
// blocking and returns how many were applied. Call it once per frame.
func (c *Coordinator) Pump() int {
	n := 0
	for {
		select {
		case comp := <-c.completions:
			c.Apply(comp)
			n++
		default:
			return n
		}
	}
}

// Wait applies completions until no fetch is in flight.
func (c *Coordinator) Wait(ctx context.Context) error {
	for c.pending > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case comp := <-c.completions:
			c.Apply(comp)
		}
	}
	return nil
}

// Apply processes one completion.
func (c *Coordinator) Apply(comp Completion) {
	if c.pending > 0 {
		c.pending--
	}

	if comp.Generation != c.generation {
		c.log.Debug("dropping stale completion",
			zap.Stringer("kind", comp.Kind),
			zap.String("path", comp.Path),
			zap.Uint64("generation", comp.Generation),
			zap.Uint64("current", c.generation))
		return
	}

	switch {
	case comp.Kind == KindMaterial:
		c.applyMaterial(comp)
		return
	case comp.Err != nil && comp.Kind == KindProp:
		// Props are scenery; a missing one does not fail the load.
		c.log.Warn(comp.Kind.failure(),
			zap.String("prop", c.opts.Props[comp.Prop].Name),
			zap.String("load_id", c.loadID),
			zap.Error(comp.Err))
		return
	case comp.Err != nil:
		c.fail(comp.Err, comp.Kind, zap.String("path", comp.Path))
		return
	}

	switch comp.Kind {
	case KindElevation:
		c.elevation = comp.Image
		// The classification map is only requested once the elevation map
		// has arrived.
		c.fetch(Completion{Kind: KindClassification, Path: ClassificationPath(c.opts.TextureDir, c.mapName)})
	case KindClassification:
		c.buildTerrain(comp.Image)
	case KindModel:
		c.models[comp.Category] = comp.Model
		c.ready.Models[comp.Category] = true
		c.log.Debug("model loaded",
			zap.Stringer("category", comp.Category),
			zap.String("path", comp.Path),
			zap.Int("triangles", comp.Model.TriangleCount()))
		c.populate(comp.Category)
		c.publish()
	case KindProp:
		c.applyProp(comp)
	}
}

// buildTerrain synthesizes the pending elevation map with its
// classification map and swaps it in.
func (c *Coordinator) buildTerrain(classification *raster.Image) {
	elev := c.elevation
	c.elevation = nil

	if err := raster.Pair(elev, classification); err != nil {
		c.fail(fmt.Errorf("terrain %s: %w", c.mapName, err), KindClassification)
		return
	}

	idx := biome.BuildIndex(classification)
	mesh, err := terrain.Synthesize(elev, idx, c.opts.Terrain)
	if err != nil {
		c.fail(fmt.Errorf("terrain %s: %w", c.mapName, err), KindClassification)
		return
	}
	mesh.Name = c.mapName

	if old := c.mesh; old != nil {
		if c.opts.OnRelease != nil {
			c.opts.OnRelease(old)
		}
		old.Release()
	}

	c.mesh = mesh
	c.index = idx
	c.meshGen = c.generation
	c.meshName = c.mapName
	c.meshLoad = c.loadID
	c.ready.Terrain = true

	c.log.Info("terrain ready",
		zap.String("map", c.mapName),
		zap.String("load_id", c.loadID),
		zap.Int("columns", mesh.Columns),
		zap.Int("rows", mesh.Rows),
		zap.Int("triangles", mesh.TriangleCount()))

	for _, cat := range c.categories {
		if c.ready.Models[cat] {
			c.populate(cat)
		} else {
			// Show an empty set instead of the previous terrain's instances.
			c.swap(cat)
		}
	}
	c.publish()
}

// populate re-places one category into its back buffer and flips it to
// the front. It is a no-op until both the terrain and the model are ready.
func (c *Coordinator) populate(cat population.Category) {
	if !c.ready.Ready(cat) {
		return
	}
	n := c.engine.Populate(cat, c.back(cat), c.mesh, c.index, c.generation)
	c.front[cat] = 1 - c.front[cat]

	c.log.Debug("category populated",
		zap.Stringer("category", cat),
		zap.Int("count", n),
		zap.Uint64("generation", c.generation))
}

// swap publishes an empty back buffer for cat.
func (c *Coordinator) swap(cat population.Category) {
	c.back(cat).Reset()
	c.front[cat] = 1 - c.front[cat]
}

func (c *Coordinator) back(cat population.Category) *population.InstanceSet {
	return c.buffers[cat][1-c.front[cat]]
}

func (c *Coordinator) fail(err error, kind Kind, fields ...zap.Field) {
	c.lastErr = err
	c.log.Error(kind.failure(), append(fields,
		zap.Stringer("kind", kind),
		zap.String("map", c.mapName),
		zap.String("load_id", c.loadID),
		zap.Uint64("generation", c.generation),
		zap.Error(err))...)
	c.publish()
}

// publish swaps in a new Frame built from the current state.
func (c *Coordinator) publish() {
	f := &Frame{
		Generation: c.meshGen,
		Requested:  c.generation,
		MapName:    c.meshName,
		LoadID:     c.meshLoad,
		Mesh:       c.mesh,
		Index:      c.index,
		Models:     make(map[population.Category]*formats.OBJ, len(c.models)),
		Instances:  make(map[population.Category]*population.InstanceSet, len(c.categories)),
		Props:      c.placedProps(),
		Ready:      c.ready.clone(),
		Err:        c.lastErr,
	}
	for cat, m := range c.models {
		f.Models[cat] = m
	}
	for _, cat := range c.categories {
		f.Instances[cat] = c.buffers[cat][c.front[cat]]
	}
	c.frame.Store(f)
}

// Frame returns the most recently published render handoff. It is safe to
// call from any goroutine.
func (c *Coordinator) Frame() *Frame {
	return c.frame.Load()
}

// LastError returns the error of the most recent failed load step, or nil.
func (c *Coordinator) LastError() error {
	return c.lastErr
}

// Generation returns the most recently requested generation.
func (c *Coordinator) Generation() uint64 {
	return c.generation
}

// Engine returns the population engine.
func (c *Coordinator) Engine() *population.Engine {
	return c.engine
}
