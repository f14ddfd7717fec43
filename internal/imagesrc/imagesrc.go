// Package imagesrc resolves image files into bytes the PDF renderer accepts,
// together with their natural pixel size and resolution.
//
// JPEG, PNG and GIF are passed through untouched. BMP, TIFF and WebP, as well
// as PNG variants the renderer cannot embed (16-bit depth, interlacing), are
// decoded and re-encoded as 8-bit PNG.
package imagesrc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultDPI is assumed when an image carries no resolution metadata.
const DefaultDPI = 96.0

// Sentinel errors for image resolution.
var (
	ErrNotFound    = errors.New("imagesrc: image not found")
	ErrEmptyPath   = errors.New("imagesrc: empty image path")
	ErrUnsupported = errors.New("imagesrc: unsupported image format")
)

// NotFoundError reports an image path that is empty or names no file.
// It matches ErrNotFound and unwraps to the underlying cause.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Path == "" {
		return "imagesrc: image not found: empty path"
	}
	return fmt.Sprintf("imagesrc: image not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Classify converts a loader error caused by a missing file into a
// *NotFoundError so callers from any Loader implementation see one kind.
func Classify(path string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrEmptyPath) {
		return &NotFoundError{Path: path, Err: err}
	}
	return err
}

// Image is a decoded image ready for embedding.
type Image struct {
	Name     string // registration key for the renderer
	Data     []byte
	Format   string // "jpg", "png" or "gif"
	WidthPx  int
	HeightPx int
	DPIX     float64
	DPIY     float64
}

// WidthInches returns the natural width at the image's own resolution.
func (img *Image) WidthInches() float64 {
	return float64(img.WidthPx) / img.DPIX
}

// HeightInches returns the natural height at the image's own resolution.
func (img *Image) HeightInches() float64 {
	return float64(img.HeightPx) / img.DPIY
}

// AspectRatio returns height divided by width.
func (img *Image) AspectRatio() float64 {
	if img.WidthPx == 0 {
		return 1
	}
	return float64(img.HeightPx) / float64(img.WidthPx)
}

// Loader reads images from the local filesystem.
type Loader struct{}

// NewLoader returns a filesystem image loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and decodes the image at path. An empty path or a missing file
// yields a *NotFoundError.
func (l *Loader) Load(path string) (*Image, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &NotFoundError{Path: path, Err: ErrEmptyPath}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Classify(path, fmt.Errorf("imagesrc: reading %s: %w", path, err))
	}
	img, err := Decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("imagesrc: %s: %w", path, err)
	}
	return img, nil
}

// Decode inspects data and converts it to a renderer-supported format if needed.
func Decode(name string, data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	img := &Image{
		Name:     name,
		WidthPx:  cfg.Width,
		HeightPx: cfg.Height,
		DPIX:     DefaultDPI,
		DPIY:     DefaultDPI,
	}

	switch format {
	case "jpeg":
		img.Format = "jpg"
		img.Data = data
		if x, y, ok := jfifDensity(data); ok {
			img.DPIX, img.DPIY = x, y
		}
		return img, nil
	case "png":
		if x, y, ok := pngDensity(data); ok {
			img.DPIX, img.DPIY = x, y
		}
		if !wideOrInterlaced(data, cfg.ColorModel) {
			img.Format = "png"
			img.Data = data
			return img, nil
		}
	case "gif":
		img.Format = "gif"
		img.Data = data
		return img, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrUnsupported, format, err)
	}
	buf, err := encodePNG(decoded)
	if err != nil {
		return nil, err
	}
	img.Format = "png"
	img.Data = buf
	return img, nil
}

func encodePNG(src image.Image) ([]byte, error) {
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("imagesrc: encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

func wideOrInterlaced(data []byte, model color.Model) bool {
	switch model {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model:
		return true
	}
	// IHDR data starts at byte 16; the interlace method is its last byte.
	return len(data) > 28 && data[28] != 0
}

// pngDensity reads the pHYs chunk.
func pngDensity(data []byte) (x, y float64, ok bool) {
	const sigLen = 8
	for off := sigLen; off+8 <= len(data); {
		n := int(binary.BigEndian.Uint32(data[off:]))
		typ := string(data[off+4 : off+8])
		body := off + 8
		if body+n > len(data) {
			return 0, 0, false
		}
		switch typ {
		case "pHYs":
			if n < 9 || data[body+8] != 1 {
				return 0, 0, false
			}
			px := float64(binary.BigEndian.Uint32(data[body:]))
			py := float64(binary.BigEndian.Uint32(data[body+4:]))
			if px == 0 || py == 0 {
				return 0, 0, false
			}
			return px * 0.0254, py * 0.0254, true
		case "IDAT", "IEND":
			return 0, 0, false
		}
		off = body + n + 4
	}
	return 0, 0, false
}

// jfifDensity reads the APP0 JFIF density fields.
func jfifDensity(data []byte) (x, y float64, ok bool) {
	if len(data) < 18 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0, 0, false
	}
	if data[2] != 0xFF || data[3] != 0xE0 || string(data[6:11]) != "JFIF\x00" {
		return 0, 0, false
	}
	units := data[13]
	dx := float64(binary.BigEndian.Uint16(data[14:]))
	dy := float64(binary.BigEndian.Uint16(data[16:]))
	if dx == 0 || dy == 0 {
		return 0, 0, false
	}
	switch units {
	case 1:
		return dx, dy, true
	case 2:
		return dx * 2.54, dy * 2.54, true
	}
	return 0, 0, false
}
