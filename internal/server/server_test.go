package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Faultbox/biomeforge/internal/assets"
	"github.com/Faultbox/biomeforge/internal/config"
	"github.com/Faultbox/biomeforge/internal/engine/biome"
	"github.com/Faultbox/biomeforge/internal/engine/population"
	"github.com/Faultbox/biomeforge/internal/engine/terrain"
	"github.com/Faultbox/biomeforge/internal/world"
)

func encodePNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

// newTestServer serves a world backed by an in-memory asset tree with one
// all-forest preset (japan) and nothing else.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	files := fstest.MapFS{
		"textures/japan.png":       {Data: encodePNG(t, 5, 5, color.NRGBA{R: 200, A: 255})},
		"textures/japan-biome.png": {Data: encodePNG(t, 5, 5, color.NRGBA{G: 255, A: 255})},
	}
	for _, p := range population.DefaultModels() {
		files[p] = &fstest.MapFile{Data: []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")}
	}
	mgr := assets.NewManager()
	mgr.AddFS("test", files)

	rule := population.Rule{Capacity: 4, Probability: 1, Scale: 2, RequiredBiome: biome.Forest, MinElevation: 4, RandomYaw: true}
	rules := population.Rules{population.Deer: rule}
	coord := world.New(mgr, world.Options{Rules: rules, Seed: 3})

	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(coord)
	go loop.Run(ctx)

	ts := httptest.NewServer(New(config.Default().Server, loop).Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
}

func post(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
}

// waitLoaded polls /api/state until the requested terrain is fully loaded
// or has failed.
func waitLoaded(t *testing.T, base string) stateResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var s stateResponse
		getJSON(t, base+"/api/state", http.StatusOK, &s)
		if s.Pending == 0 {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("terrain did not finish loading")
	return stateResponse{}
}

func TestPresets(t *testing.T) {
	ts := newTestServer(t)

	var presets []terrain.Preset
	getJSON(t, ts.URL+"/api/presets", http.StatusOK, &presets)
	if len(presets) != 5 {
		t.Fatalf("got %d presets, want 5", len(presets))
	}
	if presets[0].File != "world.png" || !presets[0].Default {
		t.Errorf("first preset = %+v, want default world.png", presets[0])
	}
}

func TestLoadPresetAndQuery(t *testing.T) {
	ts := newTestServer(t)

	var ack loadResponse
	post(t, ts.URL+"/api/terrain/japan", http.StatusAccepted, &ack)
	if ack.Generation != 1 || ack.Map != "japan.png" {
		t.Errorf("ack = %+v", ack)
	}

	s := waitLoaded(t, ts.URL)
	if !s.Loaded || s.MapName != "japan.png" || s.LastError != "" {
		t.Fatalf("state = %+v", s)
	}
	if s.Counts[population.Deer] != 4 {
		t.Errorf("deer count = %d, want 4", s.Counts[population.Deer])
	}
	if s.Histogram[biome.Forest] != 25 {
		t.Errorf("forest cells = %d, want 25", s.Histogram[biome.Forest])
	}

	var inst instancesResponse
	getJSON(t, ts.URL+"/api/instances/deer", http.StatusOK, &inst)
	if inst.Count != 4 || len(inst.Instances) != 4 || inst.Capacity != 4 {
		t.Fatalf("instances = %+v", inst)
	}
	// 200/255*40
	wantY := float32(200) / 255 * 40
	for i, in := range inst.Instances {
		if in.Position[1] != wantY {
			t.Errorf("instance %d y = %v, want %v", i, in.Position[1], wantY)
		}
		if in.Scale != [3]float32{2, 2, 2} {
			t.Errorf("instance %d scale = %v", i, in.Scale)
		}
	}

	var hr heightResponse
	getJSON(t, ts.URL+"/api/terrain/heights?x=10&z=-20", http.StatusOK, &hr)
	if d := hr.Height - wantY; d > 1e-4 || d < -1e-4 {
		t.Errorf("height = %v, want %v", hr.Height, wantY)
	}
	if hr.Normal[1] < 0.99 {
		t.Errorf("normal on flat terrain = %v, want +Y", hr.Normal)
	}
	getJSON(t, ts.URL+"/api/terrain/heights?x=9000&z=0", http.StatusNotFound, nil)
}

func TestLoadMapFailure(t *testing.T) {
	ts := newTestServer(t)

	post(t, ts.URL+"/api/terrain?map=nowhere.png", http.StatusAccepted, nil)
	s := waitLoaded(t, ts.URL)
	if s.Loaded || s.LastError == "" {
		t.Errorf("state after failed load = %+v", s)
	}
	getJSON(t, ts.URL+"/api/terrain/heights?x=0&z=0", http.StatusNotFound, nil)
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)

	post(t, ts.URL+"/api/terrain/atlantis", http.StatusNotFound, nil)
	post(t, ts.URL+"/api/terrain", http.StatusBadRequest, nil)
	post(t, ts.URL+"/api/terrain?map=..%2Fsecret.png", http.StatusBadRequest, nil)
	getJSON(t, ts.URL+"/api/instances/bear", http.StatusNotFound, nil)
	// Configured categories only.
	getJSON(t, ts.URL+"/api/instances/wolf", http.StatusNotFound, nil)
	getJSON(t, ts.URL+"/api/terrain/heights?x=abc&z=0", http.StatusBadRequest, nil)
}

func TestLoopDoAfterStop(t *testing.T) {
	coord := world.New(assets.NewManager(), world.Options{})
	loop := NewLoop(coord)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(stopped)
	}()

	called := false
	if err := loop.Do(context.Background(), func(*world.Coordinator) { called = true }); err != nil || !called {
		t.Fatalf("Do = %v, called = %v", err, called)
	}

	cancel()
	<-stopped
	if err := loop.Do(context.Background(), func(*world.Coordinator) {}); err != ErrStopped {
		t.Errorf("Do after stop = %v, want ErrStopped", err)
	}
}
