package world

import (
	"path"

	"go.uber.org/zap"

	"github.com/Faultbox/biomeforge/pkg/formats"
	"github.com/Faultbox/biomeforge/pkg/math"
)

// DefaultPropColor tints props whose model has no usable material.
var DefaultPropColor = [3]float32{0.8, 0.8, 0.8}

// Prop is a single fixed placement with its own model. Props do not depend
// on the terrain and survive terrain reloads.
type Prop struct {
	Name     string
	Model    string // OBJ asset path; its first mtllib is resolved next to it
	Position math.Vec3
	Scale    float32
	Yaw      float32 // radians
}

// Matrix returns the model transform of p. A zero scale counts as 1.
func (p Prop) Matrix() math.Mat4 {
	s := p.Scale
	if s == 0 {
		s = 1
	}
	return math.TRS(p.Position, p.Yaw, math.Uniform(s))
}

// PlacedProp is a loaded Prop as handed to renderers.
type PlacedProp struct {
	Name   string
	Model  *formats.OBJ
	Matrix math.Mat4
	Color  [3]float32
	Tinted bool // Color came from the model's material library
}

// fetchProps requests every prop model for the current generation.
func (c *Coordinator) fetchProps() {
	for i, p := range c.opts.Props {
		if p.Model == "" {
			continue
		}
		c.fetch(Completion{Kind: KindProp, Prop: i, Path: p.Model})
	}
}

// applyProp handles a loaded prop model. Models that name a material
// library are placed once the library has been fetched too.
func (c *Coordinator) applyProp(comp Completion) {
	if len(comp.Model.MtlLibs) == 0 {
		c.placeProp(comp.Prop, comp.Model, nil)
		return
	}
	c.propModels[comp.Prop] = comp.Model
	lib := path.Join(path.Dir(comp.Path), comp.Model.MtlLibs[0])
	c.fetch(Completion{Kind: KindMaterial, Prop: comp.Prop, Path: lib})
}

// applyMaterial places the prop waiting on comp's material library. A
// failed library only costs the tint.
func (c *Coordinator) applyMaterial(comp Completion) {
	obj := c.propModels[comp.Prop]
	delete(c.propModels, comp.Prop)
	if obj == nil {
		return
	}
	if comp.Err != nil {
		c.log.Warn(comp.Kind.failure(),
			zap.String("prop", c.opts.Props[comp.Prop].Name),
			zap.Error(comp.Err))
	}
	c.placeProp(comp.Prop, obj, comp.Materials)
}

func (c *Coordinator) placeProp(i int, obj *formats.OBJ, mats map[string]*formats.Material) {
	p := c.opts.Props[i]
	placed := &PlacedProp{
		Name:   p.Name,
		Model:  obj,
		Matrix: p.Matrix(),
		Color:  DefaultPropColor,
	}
	if col, ok := formats.DiffuseOf(obj, mats); ok {
		placed.Color = col
		placed.Tinted = true
	}
	c.props[i] = placed

	c.log.Debug("prop placed",
		zap.String("prop", p.Name),
		zap.Bool("tinted", placed.Tinted),
		zap.Int("triangles", obj.TriangleCount()))
	c.publish()
}

// placedProps lists the loaded props in configuration order.
func (c *Coordinator) placedProps() []PlacedProp {
	var out []PlacedProp
	for _, p := range c.props {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
