package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/biomeforge/internal/assets"
	"github.com/Faultbox/biomeforge/internal/config"
	"github.com/Faultbox/biomeforge/internal/engine/camera"
	"github.com/Faultbox/biomeforge/internal/engine/input"
	"github.com/Faultbox/biomeforge/internal/engine/renderer"
	"github.com/Faultbox/biomeforge/internal/engine/terrain"
	"github.com/Faultbox/biomeforge/internal/engine/window"
	"github.com/Faultbox/biomeforge/internal/logger"
	"github.com/Faultbox/biomeforge/internal/world"
	"github.com/Faultbox/biomeforge/pkg/math"
)

// presetKeys selects presets in list order.
var presetKeys = []sdl.Scancode{
	sdl.SCANCODE_1, sdl.SCANCODE_2, sdl.SCANCODE_3, sdl.SCANCODE_4, sdl.SCANCODE_5,
}

type viewer struct {
	cfg      *config.Config
	window   *window.Window
	input    *input.Input
	renderer *renderer.Renderer
	camera   *camera.FlyCamera
	assets   *assets.Manager
	world    *world.Coordinator
	log      *zap.Logger

	running    bool
	title      string
	screenshot bool // capture after the next Draw
}

const screenshotDir = "screenshots"

func newViewer(cfg *config.Config) (*viewer, error) {
	v := &viewer{
		cfg:   cfg,
		input: input.New(),
		log:   logger.Named("viewer"),
	}

	var err error
	v.assets, err = world.NewAssets(cfg.Assets)
	if err != nil {
		return nil, err
	}
	v.world, err = world.FromConfig(cfg, v.assets)
	if err != nil {
		return nil, err
	}

	v.window, err = window.New(window.Config{
		Title:      "biomeforge",
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}

	w, h := v.window.GetSize()
	v.renderer, err = renderer.New(renderer.NewEnvironment(cfg.Viewer), w, h)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("renderer: %w", err)
	}

	// Start just above the map center, facing north.
	v.camera = camera.NewFlyCamera(math.Vec3{X: 0, Y: cfg.Terrain.DepthScale * 0.5, Z: 6})
	return v, nil
}

func (v *viewer) Close() {
	v.renderer.Close()
	v.window.Close()
	v.assets.Close()
}

// Run drives the frame loop until the window is closed.
func (v *viewer) Run() {
	v.running = true

	var frameBudget time.Duration
	if v.cfg.Viewer.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(v.cfg.Viewer.FPSLimit)
	}

	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting frame loop")

	for v.running {
		frameStart := time.Now()

		// 1. Process input
		if v.input.Update() {
			break
		}
		v.handleEvents()

		// 2. Apply finished loads
		v.world.Pump()

		// 3. Render
		f := v.world.Frame()
		v.renderer.Draw(f, v.camera.ViewMatrix(), v.camera.Position)
		if v.screenshot {
			v.screenshot = false
			if _, err := v.renderer.Screenshot(screenshotDir); err != nil {
				v.log.Warn("screenshot failed", zap.Error(err))
			}
		}
		v.window.SwapBuffers()
		v.updateTitle(f)

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if frameBudget > 0 {
			if spare := frameBudget - time.Since(frameStart); spare > 0 {
				time.Sleep(spare)
			}
		}
	}
}

func (v *viewer) handleEvents() {
	step := v.cfg.Viewer.FlySpeed

	for _, e := range v.input.Events() {
		switch e.Type {
		case input.EventWindowResize:
			v.renderer.Resize(v.window.GetSize())

		case input.EventMouseDown:
			v.window.CaptureMouse(true)

		case input.EventKeyDown:
			// Movement steps once per key event, auto-repeat included.
			switch e.Key {
			case sdl.SCANCODE_W:
				v.camera.MoveForward(step)
			case sdl.SCANCODE_S:
				v.camera.MoveForward(-step)
			case sdl.SCANCODE_A:
				v.camera.MoveRight(-step)
			case sdl.SCANCODE_D:
				v.camera.MoveRight(step)
			case sdl.SCANCODE_SPACE:
				v.camera.MoveUp(step)
			case sdl.SCANCODE_LSHIFT, sdl.SCANCODE_Q:
				v.camera.MoveUp(-step)
			case sdl.SCANCODE_O:
				if f := v.world.Frame(); f != nil && f.Mesh != nil {
					v.camera.Overlook(f.Mesh.Bounds.Min, f.Mesh.Bounds.Max)
				}
			case sdl.SCANCODE_F12:
				v.screenshot = true
			case sdl.SCANCODE_ESCAPE:
				if v.window.MouseCaptured() {
					v.window.CaptureMouse(false)
				} else {
					v.running = false
				}
			}
			if !e.Repeat {
				v.selectPreset(e.Key)
			}
		}
	}

	if v.window.MouseCaptured() {
		dx, dy := v.input.MouseDelta()
		v.camera.HandleMouse(float32(dx), float32(dy))
	}
}

func (v *viewer) selectPreset(key sdl.Scancode) {
	presets := terrain.Presets()
	for i, k := range presetKeys {
		if k != key || i >= len(presets) {
			continue
		}
		gen, err := v.world.LoadPreset(presets[i].Name)
		if err != nil {
			v.log.Warn("preset load failed", zap.String("preset", presets[i].Name), zap.Error(err))
			return
		}
		v.log.Info("preset selected", zap.String("preset", presets[i].Name), zap.Uint64("generation", gen))
		return
	}
}

func (v *viewer) updateTitle(f *world.Frame) {
	title := windowTitle(f, v.world.Pending())
	if title != v.title {
		v.window.SetTitle(title)
		v.title = title
	}
}

// windowTitle summarizes the displayed map and load progress.
func windowTitle(f *world.Frame, pending int) string {
	if f == nil || f.MapName == "" {
		return "biomeforge"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "biomeforge - %s", f.MapName)
	if pending > 0 {
		fmt.Fprintf(&b, " (loading, %d pending)", pending)
	}
	if f.Err != nil {
		b.WriteString(" [error]")
	}
	if f.Mesh != nil {
		total := 0
		for c := range f.Instances {
			total += f.Count(c)
		}
		fmt.Fprintf(&b, " - %d instances", total)
	}
	return b.String()
}
