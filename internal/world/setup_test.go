package world

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/biomeforge/internal/config"
	"github.com/Faultbox/biomeforge/internal/engine/population"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "maps", "isle.png"), encodePNG(t, 5, 4, color.NRGBA{R: 255, A: 255}))
	writeFile(t, filepath.Join(dir, "maps", "isle-biome.png"), encodePNG(t, 5, 4, color.NRGBA{G: 255, A: 255}))
	writeFile(t, filepath.Join(dir, "models", "deer.obj"), []byte(triangleOBJ))

	cfg := config.Default()
	cfg.Assets.Roots = []string{dir}
	cfg.Assets.TextureDir = "maps"
	cfg.Population.Seed = 5
	cfg.Population.Categories = map[string]config.CategoryConfig{
		"deer": {Capacity: 7, Probability: 1, Scale: 1, Biome: "forest", MinElevation: 4, Model: "models/deer.obj"},
	}

	mgr, err := NewAssets(cfg.Assets)
	if err != nil {
		t.Fatalf("NewAssets failed: %v", err)
	}
	c, err := FromConfig(cfg, mgr)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}

	if cats := c.Categories(); len(cats) != 1 || cats[0] != population.Deer {
		t.Fatalf("Categories() = %v, want [deer]", cats)
	}

	c.LoadTerrain("isle.png")
	wait(t, c)

	f := c.Frame()
	if f.Err != nil || f.Mesh == nil {
		t.Fatalf("frame err = %v, mesh = %v", f.Err, f.Mesh)
	}
	if f.Mesh.Columns != 5 || f.Mesh.Rows != 4 {
		t.Errorf("mesh %dx%d, want 5x4", f.Mesh.Columns, f.Mesh.Rows)
	}
	if n := f.Count(population.Deer); n != 7 {
		t.Errorf("deer count = %d, want 7", n)
	}
	if f.Count(population.Wolf) != 0 {
		t.Error("unconfigured category was populated")
	}
}

func TestNewAssetsMissingRoot(t *testing.T) {
	_, err := NewAssets(config.AssetsConfig{Roots: []string{filepath.Join(t.TempDir(), "nope")}})
	if err == nil {
		t.Error("NewAssets accepted a missing root")
	}
}
