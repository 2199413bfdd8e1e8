// Package raster decodes elevation and classification images into flat
// per-pixel channel buffers.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"

	// Decoders registered for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	_ "github.com/Faultbox/biomeforge/pkg/formats" // tga
)

// Channels is the number of 8-bit channels stored per pixel (RGBA).
const Channels = 4

// Raster errors.
var (
	ErrDimensionMismatch = errors.New("elevation and classification images differ in size")
	ErrImageTooSmall     = errors.New("image must be at least 2x2 pixels")
)

// Image is a decoded raster with a row-major RGBA channel buffer.
type Image struct {
	Width  int
	Height int
	Pix    []uint8 // len == Width*Height*Channels
}

// Decode decodes PNG, JPEG, GIF, BMP, TIFF or WebP data.
func Decode(data []byte) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decoding %s image: empty bounds", format)
	}
	return FromImage(img), nil
}

// FromImage flattens any image.Image into an Image. Channels are stored
// non-premultiplied, so a translucent classification pixel keeps its RGB key.
// A compact *image.NRGBA source shares its Pix slice with the result.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != b.Dx()*Channels || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	return &Image{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    nrgba.Pix,
	}
}

// New allocates a zeroed Image of the given size.
func New(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// Set writes the four channels at (x, y).
func (m *Image) Set(x, y int, c0, c1, c2, c3 uint8) {
	i := (y*m.Width + x) * Channels
	m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = c0, c1, c2, c3
}

// Pixel returns the four channels at (x, y). Out-of-range coordinates panic
// like slice indexing does.
func (m *Image) Pixel(x, y int) (c0, c1, c2, c3 uint8) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		panic(fmt.Sprintf("raster: pixel (%d,%d) outside %dx%d", x, y, m.Width, m.Height))
	}
	i := (y*m.Width + x) * Channels
	p := m.Pix[i : i+Channels : i+Channels]
	return p[0], p[1], p[2], p[3]
}

// SameSize reports whether both images have identical dimensions.
func (m *Image) SameSize(other *Image) bool {
	return m.Width == other.Width && m.Height == other.Height
}

// String returns the image size as "WxH".
func (m *Image) String() string {
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

// Pair checks that an elevation image and its classification image can be
// combined into one terrain.
func Pair(elevation, classification *Image) error {
	if elevation == nil || classification == nil {
		return fmt.Errorf("pairing images: %w", ErrImageTooSmall)
	}
	if !elevation.SameSize(classification) {
		return fmt.Errorf("elevation %s, classification %s: %w", elevation, classification, ErrDimensionMismatch)
	}
	if elevation.Width < 2 || elevation.Height < 2 {
		return fmt.Errorf("elevation %s: %w", elevation, ErrImageTooSmall)
	}
	return nil
}
