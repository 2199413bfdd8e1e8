package biome

import (
	"testing"

	"github.com/Faultbox/biomeforge/internal/engine/raster"
)

func TestPackOrder(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    ID
	}{
		{255, 255, 0, IDDesert},
		{0, 255, 0, IDForest},
		{0, 0, 255, IDWinterForest},
		{255, 0, 0, IDCity},
		{0x12, 0x34, 0x56, 0x123456},
	}
	for _, tt := range tests {
		if got := Pack(tt.r, tt.g, tt.b); got != tt.want {
			t.Errorf("Pack(%d,%d,%d) = %v, want %v", tt.r, tt.g, tt.b, got, tt.want)
		}
	}
}

func TestClassifyAndColor(t *testing.T) {
	tests := []struct {
		id    ID
		biome Biome
		color [3]float32
	}{
		{IDDesert, Desert, [3]float32{0.7, 0.6, 0.1}},
		{IDForest, Forest, [3]float32{0.1, 0.8, 0.3}},
		{IDWinterForest, WinterForest, [3]float32{0.75, 0.8, 0.9}},
		{IDCity, City, [3]float32{0.3, 0.2, 0.5}},
		{0x000000, Unclassified, [3]float32{0, 0.5, 0.9}},
		{0x00FF01, Unclassified, [3]float32{0, 0.5, 0.9}},
		{0xFFFFFF, Unclassified, [3]float32{0, 0.5, 0.9}},
	}
	for _, tt := range tests {
		b := Classify(tt.id)
		if b != tt.biome {
			t.Errorf("Classify(%v) = %v, want %v", tt.id, b, tt.biome)
		}
		if got := Color(b); got != tt.color {
			t.Errorf("Color(%v) = %v, want %v", b, got, tt.color)
		}
	}
}

func TestParseBiome(t *testing.T) {
	for _, b := range All {
		got, err := ParseBiome(b.String())
		if err != nil {
			t.Fatalf("ParseBiome(%q): %v", b.String(), err)
		}
		if got != b {
			t.Errorf("ParseBiome(%q) = %v, want %v", b.String(), got, b)
		}
	}

	if got, err := ParseBiome(" Winter-Forest "); err != nil || got != WinterForest {
		t.Errorf("ParseBiome with spaces/case = %v, %v", got, err)
	}
	if got, err := ParseBiome("unclassified"); err != nil || got != Unclassified {
		t.Errorf("ParseBiome(unclassified) = %v, %v", got, err)
	}
	if _, err := ParseBiome("tundra"); err == nil {
		t.Error("expected error for unknown biome")
	}
}

func TestBuildIndex(t *testing.T) {
	img := raster.New(3, 2)
	img.Set(0, 0, 0, 255, 0, 255)
	img.Set(2, 1, 255, 255, 0, 255)
	img.Set(1, 1, 255, 0, 0, 128) // alpha must not matter

	idx := BuildIndex(img)
	if idx.Width != 3 || idx.Height != 2 || len(idx.Rows) != 2 || len(idx.Rows[0]) != 3 {
		t.Fatalf("index shape = %dx%d rows=%d", idx.Width, idx.Height, len(idx.Rows))
	}
	if idx.At(0, 0) != IDForest {
		t.Errorf("At(0,0) = %v, want forest", idx.At(0, 0))
	}
	if idx.BiomeAt(2, 1) != Desert {
		t.Errorf("BiomeAt(2,1) = %v, want desert", idx.BiomeAt(2, 1))
	}
	if idx.BiomeAt(1, 1) != City {
		t.Errorf("BiomeAt(1,1) = %v, want city", idx.BiomeAt(1, 1))
	}

	h := idx.Histogram()
	if h[Unclassified] != 3 || h[Forest] != 1 || h[Desert] != 1 || h[City] != 1 {
		t.Errorf("Histogram() = %v", h)
	}
}
