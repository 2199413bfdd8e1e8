package formats

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// TGA errors.
var (
	ErrInvalidTGA     = errors.New("invalid TGA")
	ErrUnsupportedTGA = errors.New("unsupported TGA")
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeGray         = 3  // Uncompressed grayscale
	TGATypeRLE          = 10 // RLE compressed true-color
	TGATypeGrayRLE      = 11 // RLE compressed grayscale
)

func init() {
	// TGA has no magic number; match an image without a color map whose
	// type byte is one we decode.
	for _, t := range []byte{TGATypeUncompressed, TGATypeGray, TGATypeRLE, TGATypeGrayRLE} {
		image.RegisterFormat("tga", string([]byte{'?', 0, t}), DecodeTGA, DecodeTGAConfig)
	}
}

// tgaHeader is the fixed 18-byte TGA header.
type tgaHeader struct {
	idLength     int
	colorMapType byte
	imageType    byte
	width        int
	height       int
	bpp          int
	topToBottom  bool
}

func readTGAHeader(r io.Reader) (tgaHeader, error) {
	var b [18]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return tgaHeader{}, fmt.Errorf("%w: header: %w", ErrInvalidTGA, err)
	}
	h := tgaHeader{
		idLength:     int(b[0]),
		colorMapType: b[1],
		imageType:    b[2],
		width:        int(b[12]) | int(b[13])<<8,
		height:       int(b[14]) | int(b[15])<<8,
		bpp:          int(b[16]),
		topToBottom:  b[17]&0x20 != 0,
	}

	if h.colorMapType != 0 {
		return h, fmt.Errorf("%w: color-mapped image", ErrUnsupportedTGA)
	}
	switch h.imageType {
	case TGATypeUncompressed, TGATypeRLE:
		if h.bpp != 24 && h.bpp != 32 {
			return h, fmt.Errorf("%w: %d-bit true-color", ErrUnsupportedTGA, h.bpp)
		}
	case TGATypeGray, TGATypeGrayRLE:
		if h.bpp != 8 {
			return h, fmt.Errorf("%w: %d-bit grayscale", ErrUnsupportedTGA, h.bpp)
		}
	default:
		return h, fmt.Errorf("%w: image type %d", ErrUnsupportedTGA, h.imageType)
	}
	if h.width == 0 || h.height == 0 {
		return h, fmt.Errorf("%w: empty image", ErrInvalidTGA)
	}
	return h, nil
}

func (h tgaHeader) colorModel() color.Model {
	if h.bpp == 8 {
		return color.GrayModel
	}
	return color.NRGBAModel
}

// DecodeTGAConfig returns the dimensions of a TGA image without decoding it.
func DecodeTGAConfig(r io.Reader) (image.Config, error) {
	h, err := readTGAHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: h.colorModel(), Width: h.width, Height: h.height}, nil
}

// DecodeTGA decodes an uncompressed or RLE compressed true-color or
// grayscale TGA image into an *image.NRGBA.
func DecodeTGA(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readTGAHeader(br)
	if err != nil {
		return nil, err
	}
	if _, err := br.Discard(h.idLength); err != nil {
		return nil, fmt.Errorf("%w: image id: %w", ErrInvalidTGA, err)
	}

	img := image.NewNRGBA(image.Rect(0, 0, h.width, h.height))
	d := tgaDecoder{r: br, h: h, img: img, pixelSize: h.bpp / 8}

	rle := h.imageType == TGATypeRLE || h.imageType == TGATypeGrayRLE
	if rle {
		err = d.readRLE()
	} else {
		err = d.readRaw(h.width * h.height)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: pixel data: %w", ErrInvalidTGA, err)
	}
	return img, nil
}

type tgaDecoder struct {
	r         *bufio.Reader
	h         tgaHeader
	img       *image.NRGBA
	pixelSize int
	next      int // index of the next pixel in file order
	buf       [4]byte
}

// readPixel reads one pixel in file order (BGR[A] or gray) as NRGBA.
func (d *tgaDecoder) readPixel() ([4]byte, error) {
	p := d.buf[:d.pixelSize]
	if _, err := io.ReadFull(d.r, p); err != nil {
		return [4]byte{}, err
	}
	switch d.pixelSize {
	case 1:
		return [4]byte{p[0], p[0], p[0], 255}, nil
	case 3:
		return [4]byte{p[2], p[1], p[0], 255}, nil
	default:
		return [4]byte{p[2], p[1], p[0], p[3]}, nil
	}
}

// put stores c at the next pixel. Rows are bottom-up unless the
// descriptor says otherwise.
func (d *tgaDecoder) put(c [4]byte) {
	x := d.next % d.h.width
	y := d.next / d.h.width
	if !d.h.topToBottom {
		y = d.h.height - 1 - y
	}
	copy(d.img.Pix[d.img.PixOffset(x, y):], c[:])
	d.next++
}

func (d *tgaDecoder) readRaw(n int) error {
	for i := 0; i < n; i++ {
		c, err := d.readPixel()
		if err != nil {
			return err
		}
		d.put(c)
	}
	return nil
}

func (d *tgaDecoder) readRLE() error {
	total := d.h.width * d.h.height
	for d.next < total {
		packet, err := d.r.ReadByte()
		if err != nil {
			return err
		}
		count := int(packet&0x7F) + 1
		if d.next+count > total {
			return errors.New("run past end of image")
		}

		if packet&0x80 == 0 {
			// Raw packet
			if err := d.readRaw(count); err != nil {
				return err
			}
			continue
		}

		// Run packet: one pixel repeated
		c, err := d.readPixel()
		if err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			d.put(c)
		}
	}
	return nil
}
