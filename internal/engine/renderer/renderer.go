// Package renderer draws published world frames with OpenGL.
package renderer

import (
	"fmt"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/biomeforge/internal/engine/population"
	"github.com/Faultbox/biomeforge/internal/engine/shader"
	"github.com/Faultbox/biomeforge/internal/engine/terrain"
	"github.com/Faultbox/biomeforge/internal/logger"
	"github.com/Faultbox/biomeforge/internal/world"
	"github.com/Faultbox/biomeforge/pkg/math"
)

// Renderer handles all OpenGL rendering.
type Renderer struct {
	env    Environment
	width  int
	height int
	log    *zap.Logger

	terrainProg  *shader.Program
	instanceProg *shader.Program
	waterProg    *shader.Program

	frame   *world.Frame // last frame synced to the GPU
	terrain *terrainMesh
	batches map[population.Category]*batch
	props   []*batch // one per placed prop, in frame order
	water   *waterPlane

	// Meshes whose source was released; deleted on the next Draw.
	mu      sync.Mutex
	retired []*terrainMesh
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(env Environment, width, height int) (*Renderer, error) {
	r := &Renderer{
		env:     env,
		width:   width,
		height:  height,
		log:     logger.Named("renderer"),
		batches: make(map[population.Category]*batch),
	}

	// Initialize OpenGL
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	// Log OpenGL info
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	// Setup default OpenGL state
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(env.SkyColor[0], env.SkyColor[1], env.SkyColor[2], 1.0)

	var err error
	if r.terrainProg, err = shader.New("terrain", terrainVertexShader, terrainFragmentShader); err != nil {
		return nil, err
	}
	if r.instanceProg, err = shader.New("instance", instanceVertexShader, instanceFragmentShader); err != nil {
		r.Close()
		return nil, err
	}
	if r.waterProg, err = shader.New("water", waterVertexShader, waterFragmentShader); err != nil {
		r.Close()
		return nil, err
	}

	if env.Water {
		r.water = newWaterPlane(env.WaterSize, env.WaterLevel)
	}
	for _, c := range population.AllCategories() {
		r.batches[c] = newBatch(CategoryColor(c))
	}

	r.Resize(width, height)
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	r.collect()
	if r.terrain != nil {
		r.terrain.delete()
		r.terrain = nil
	}
	for _, b := range r.batches {
		b.delete()
	}
	for _, b := range r.props {
		b.delete()
	}
	if r.water != nil {
		r.water.delete()
	}
	for _, p := range []*shader.Program{r.terrainProg, r.instanceProg, r.waterProg} {
		if p != nil {
			p.Delete()
		}
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.width = width
	r.height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Draw syncs GPU buffers with f if it changed and renders it from the
// given camera. A nil frame draws only the sky and water.
func (r *Renderer) Draw(f *world.Frame, view math.Mat4, cameraPos math.Vec3) {
	r.collect()
	if f != r.frame {
		r.sync(f)
	}

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	viewProj := r.env.Projection(r.width, r.height).Mul(view)
	eye := cameraPos.Array()

	if r.terrain != nil {
		p := r.terrainProg
		p.Use()
		p.SetMat4("uModel", r.terrain.model)
		p.SetMat4("uViewProj", viewProj)
		r.setLighting(p, eye)
		r.terrain.draw()
	}

	p := r.instanceProg
	p.Use()
	p.SetMat4("uViewProj", viewProj)
	r.setLighting(p, eye)
	for _, c := range population.AllCategories() {
		b := r.batches[c]
		p.SetVec3("uColor", b.color)
		b.draw()
	}
	for _, b := range r.props {
		p.SetVec3("uColor", b.color)
		b.draw()
	}

	if r.water != nil {
		p := r.waterProg
		p.Use()
		p.SetMat4("uViewProj", viewProj)
		p.SetVec3("uWaterColor", r.env.WaterColor)
		p.SetFloat("uWaterAlpha", r.env.WaterAlpha)
		r.setFog(p, eye)
		r.water.draw()
	}

	gl.UseProgram(0)
}

func (r *Renderer) setLighting(p *shader.Program, eye [3]float32) {
	p.SetVec3("uLightDir", r.env.LightDir)
	p.SetFloat("uAmbient", r.env.Ambient)
	p.SetFloat("uDiffuse", r.env.Diffuse)
	r.setFog(p, eye)
}

func (r *Renderer) setFog(p *shader.Program, eye [3]float32) {
	p.SetVec3("uCameraPos", eye)
	p.SetVec3("uFogColor", r.env.SkyColor)
	p.SetFloat("uFogNear", r.env.FogNear)
	p.SetFloat("uFogFar", r.env.FogFar)
}

// sync uploads whatever differs between f and the previous frame.
func (r *Renderer) sync(f *world.Frame) {
	r.frame = f
	if f == nil {
		return
	}

	if f.Mesh != nil && (r.terrain == nil || r.terrain.src != f.Mesh) {
		r.terrain = uploadTerrain(f.Mesh)
		r.watch(f.Mesh, r.terrain)
		r.log.Debug("terrain uploaded",
			zap.String("map", f.MapName),
			zap.Int("vertices", len(f.Mesh.Vertices)),
			zap.Int("triangles", f.Mesh.TriangleCount()))
	}

	for _, c := range population.AllCategories() {
		b := r.batches[c]
		if obj := f.Models[c]; obj != b.model {
			b.setModel(obj)
		}
		b.setInstances(f.Instances[c])
	}

	for i, p := range f.Props {
		if i == len(r.props) {
			r.props = append(r.props, newBatch(p.Color))
		}
		b := r.props[i]
		if p.Model != b.model {
			b.setModel(p.Model)
		}
		b.color = p.Color
		b.setMatrices(p.Matrix)
	}
	for _, b := range r.props[len(f.Props):] {
		b.setMatrices()
	}
}

// watch queues gm for deletion when its source mesh is released. Release
// may run on another goroutine, so GL work is deferred to collect.
func (r *Renderer) watch(m *terrain.Mesh, gm *terrainMesh) {
	if m.Released() {
		r.retired = append(r.retired, gm)
		return
	}
	m.OnRelease(func() {
		r.mu.Lock()
		r.retired = append(r.retired, gm)
		r.mu.Unlock()
	})
}

// collect deletes retired GPU meshes.
func (r *Renderer) collect() {
	r.mu.Lock()
	retired := r.retired
	r.retired = nil
	r.mu.Unlock()

	for _, gm := range retired {
		if r.terrain == gm {
			r.terrain = nil
		}
		gm.delete()
	}
}
