package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Faultbox/biomeforge/internal/engine/population"
	"github.com/Faultbox/biomeforge/internal/engine/terrain"
	"github.com/Faultbox/biomeforge/internal/world"
)

type handlers struct {
	loop *Loop
}

// loadResponse acknowledges a terrain load request.
type loadResponse struct {
	Generation uint64 `json:"generation"`
	Map        string `json:"map"`
}

// instance is the JSON form of one placement.
type instance struct {
	Position [3]float32 `json:"position"`
	Scale    [3]float32 `json:"scale"`
	Yaw      float32    `json:"yaw"`
}

// instancesResponse lists the live placements of one category.
type instancesResponse struct {
	Category   population.Category `json:"category"`
	Generation uint64              `json:"generation"`
	Capacity   int                 `json:"capacity"`
	Count      int                 `json:"count"`
	Instances  []instance          `json:"instances"`
}

type heightResponse struct {
	X      float32 `json:"x"`
	Z      float32 `json:"z"`
	Height float32    `json:"height"`
	Normal [3]float32 `json:"normal"`
}

// stateResponse extends the frame summary with loader progress.
type stateResponse struct {
	world.State
	Pending int `json:"pending"`
}

// listPresets handles GET /api/presets
func (h *handlers) listPresets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, terrain.Presets())
}

// loadPreset handles POST /api/terrain/{preset}
func (h *handlers) loadPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "preset")
	p, err := terrain.FindPreset(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	var gen uint64
	if err := h.loop.Do(r.Context(), func(c *world.Coordinator) {
		gen = c.LoadTerrain(p.File)
	}); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, loadResponse{Generation: gen, Map: p.File})
}

// loadMap handles POST /api/terrain?map=<file>
func (h *handlers) loadMap(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("map")
	if name == "" {
		respondError(w, http.StatusBadRequest, "Missing map parameter")
		return
	}
	// Only plain file names inside the texture directory.
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		respondError(w, http.StatusBadRequest, "Invalid map name")
		return
	}

	var gen uint64
	if err := h.loop.Do(r.Context(), func(c *world.Coordinator) {
		gen = c.LoadTerrain(name)
	}); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, loadResponse{Generation: gen, Map: name})
}

// state handles GET /api/state
func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	var resp stateResponse
	if err := h.loop.Do(r.Context(), func(c *world.Coordinator) {
		resp = stateResponse{State: c.Frame().Summary(), Pending: c.Pending()}
	}); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// instances handles GET /api/instances/{category}
func (h *handlers) instances(w http.ResponseWriter, r *http.Request) {
	cat, err := population.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	var (
		resp  instancesResponse
		found bool
	)
	if err := h.loop.Do(r.Context(), func(c *world.Coordinator) {
		f := c.Frame()
		set := f.Instances[cat]
		if set == nil {
			return
		}
		found = true
		resp = instancesResponse{
			Category:   cat,
			Generation: f.Generation,
			Capacity:   set.Capacity,
			Count:      set.Count,
			Instances:  make([]instance, 0, set.Count),
		}
		for _, t := range set.Live() {
			resp.Instances = append(resp.Instances, instance{
				Position: t.Position.Array(),
				Scale:    t.Scale.Array(),
				Yaw:      t.Yaw,
			})
		}
	}); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	if !found {
		respondError(w, http.StatusNotFound, "Category not configured")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

var errNoTerrain = errors.New("no terrain loaded")

// heightAt handles GET /api/terrain/heights?x=&z=
func (h *handlers) heightAt(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 32)
	z, errZ := strconv.ParseFloat(r.URL.Query().Get("z"), 32)
	if errX != nil || errZ != nil {
		respondError(w, http.StatusBadRequest, "Invalid x or z coordinate")
		return
	}

	var (
		height float32
		normal [3]float32
		ok     bool
		err    error
	)
	if doErr := h.loop.Do(r.Context(), func(c *world.Coordinator) {
		mesh := c.Frame().Mesh
		if mesh == nil {
			err = errNoTerrain
			return
		}
		height, ok = mesh.HeightAt(float32(x), float32(z))
		if cx, cy, in := mesh.CellAt(float32(x), float32(z)); in {
			n := mesh.WorldNormal(cx, cy)
			normal = [3]float32{n.X, n.Y, n.Z}
		}
	}); doErr != nil {
		respondError(w, http.StatusServiceUnavailable, doErr.Error())
		return
	}

	switch {
	case err != nil:
		respondError(w, http.StatusNotFound, err.Error())
	case !ok:
		respondError(w, http.StatusNotFound, "Point outside terrain")
	default:
		respondJSON(w, http.StatusOK, heightResponse{X: float32(x), Z: float32(z), Height: height, Normal: normal})
	}
}
