package world

import (
	"github.com/Faultbox/biomeforge/internal/engine/biome"
	"github.com/Faultbox/biomeforge/internal/engine/population"
	"github.com/Faultbox/biomeforge/internal/engine/terrain"
	"github.com/Faultbox/biomeforge/pkg/formats"
)

// Readiness tracks which asynchronous loads of the current generation have
// completed. Population of a category needs both Terrain and its model.
type Readiness struct {
	Terrain bool                         `json:"terrain"`
	Models  map[population.Category]bool `json:"models"`
}

// Ready reports whether category c can be populated.
func (r Readiness) Ready(c population.Category) bool {
	return r.Terrain && r.Models[c]
}

// All reports whether the terrain and every tracked model are loaded.
func (r Readiness) All() bool {
	if !r.Terrain {
		return false
	}
	for _, ok := range r.Models {
		if !ok {
			return false
		}
	}
	return true
}

func (r Readiness) clone() Readiness {
	out := Readiness{Terrain: r.Terrain, Models: make(map[population.Category]bool, len(r.Models))}
	for c, ok := range r.Models {
		out.Models[c] = ok
	}
	return out
}

// Frame is the render handoff. A published Frame is never modified; the
// coordinator replaces it wholesale.
//
// Instance sets are double-buffered per category, so the sets referenced by
// a Frame stay intact until the frame after the next one is published.
type Frame struct {
	// Generation and MapName describe the displayed terrain, which lags
	// Requested while a load is in flight.
	Generation uint64
	Requested  uint64
	MapName    string
	LoadID     string

	Mesh      *terrain.Mesh
	Index     *biome.Index
	Models    map[population.Category]*formats.OBJ
	Instances map[population.Category]*population.InstanceSet
	Props     []PlacedProp

	Ready Readiness
	Err   error
}

// Count returns the live instance count of category c.
func (f *Frame) Count(c population.Category) int {
	if f == nil {
		return 0
	}
	if set := f.Instances[c]; set != nil {
		return set.Count
	}
	return 0
}

// State is a JSON-friendly summary of a Frame.
type State struct {
	Generation uint64    `json:"generation"`
	Requested  uint64    `json:"requested"`
	MapName    string    `json:"map"`
	LoadID     string    `json:"load_id,omitempty"`
	Ready      Readiness `json:"ready"`
	Loaded     bool      `json:"loaded"`

	Columns int `json:"columns,omitempty"`
	Rows    int `json:"rows,omitempty"`
	Cells   int `json:"cells,omitempty"`

	Counts    map[population.Category]int `json:"counts"`
	Props     []string                    `json:"props,omitempty"`
	Histogram map[biome.Biome]int         `json:"histogram,omitempty"`
	LastError string                      `json:"last_error,omitempty"`
}

// Summary builds the State view of f.
func (f *Frame) Summary() State {
	s := State{Counts: make(map[population.Category]int)}
	if f == nil {
		return s
	}
	s.Generation = f.Generation
	s.Requested = f.Requested
	s.MapName = f.MapName
	s.LoadID = f.LoadID
	s.Ready = f.Ready.clone()
	s.Loaded = f.Ready.All()
	for c, set := range f.Instances {
		s.Counts[c] = set.Count
	}
	for _, p := range f.Props {
		s.Props = append(s.Props, p.Name)
	}
	if f.Mesh != nil {
		s.Columns = f.Mesh.Columns
		s.Rows = f.Mesh.Rows
		s.Cells = f.Mesh.CellCount()
	}
	if f.Index != nil {
		s.Histogram = f.Index.Histogram()
	}
	if f.Err != nil {
		s.LastError = f.Err.Error()
	}
	return s
}
