package renderer

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// Screenshot reads the back buffer and saves it as a PNG in dir, named
// after the current map. Call it after Draw and before swapping buffers.
func (r *Renderer) Screenshot(dir string) (string, error) {
	w, h := r.width, r.height
	if w <= 0 || h <= 0 {
		return "", fmt.Errorf("screenshot: empty viewport %dx%d", w, h)
	}

	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	img, err := flipRows(pixels, w, h)
	if err != nil {
		return "", err
	}

	prefix := "biomeforge"
	if r.frame != nil && r.frame.MapName != "" {
		prefix = screenshotPrefix(r.frame.MapName)
	}
	path, err := savePNG(dir, prefix, time.Now(), img)
	if err != nil {
		return "", err
	}
	r.log.Info("screenshot saved", zap.String("path", path))
	return path, nil
}

// flipRows turns bottom-up RGBA pixels, as GL returns them, into a
// top-down image.
func flipRows(pixels []byte, width, height int) (*image.RGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}

// screenshotPrefix derives a file-name-safe prefix from a map name.
func screenshotPrefix(mapName string) string {
	base := strings.TrimSuffix(mapName, filepath.Ext(mapName))
	return strings.ReplaceAll(base, " ", "-")
}

func savePNG(dir, prefix string, at time.Time, img image.Image) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s_%s.png", prefix, at.Format("2006-01-02_15-04-05")))
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, file.Close()
}
