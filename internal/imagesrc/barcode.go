package imagesrc

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	pdf417 "github.com/ruudk/golang-pdf417"
)

// ErrEmptyContent is returned when a barcode has nothing to encode.
var ErrEmptyContent = errors.New("imagesrc: empty barcode content")

// QRCodeSize is the pixel edge of generated QR code images.
const QRCodeSize = 512

// PDF417 symbol parameters: data columns, error correction level and the
// pixel size of one module.
const (
	PDF417Columns       = 10
	PDF417SecurityLevel = 5
	pdf417ModulePx      = 3
)

// QRCode encodes content as a square PNG QR code.
func QRCode(content string) (*Image, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("imagesrc: encoding QR code: %w", err)
	}
	return barcodeImage("qr:"+content, code, QRCodeSize, QRCodeSize)
}

// PDF417 encodes content as a PDF417 stacked barcode. The image keeps the
// symbol's aspect ratio.
func PDF417(content string) (*Image, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	code := pdf417.Encode(content, PDF417Columns, PDF417SecurityLevel)
	b := code.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("imagesrc: encoding PDF417: empty symbol for %q", content)
	}
	return barcodeImage("pdf417:"+content, code, b.Dx()*pdf417ModulePx, b.Dy()*pdf417ModulePx)
}

func barcodeImage(name string, code barcode.Barcode, w, h int) (*Image, error) {
	scaled, err := barcode.Scale(code, w, h)
	if err != nil {
		return nil, fmt.Errorf("imagesrc: scaling %s: %w", code.Metadata().CodeKind, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("imagesrc: encoding png: %w", err)
	}
	return &Image{
		Name:     name,
		Data:     buf.Bytes(),
		Format:   "png",
		WidthPx:  w,
		HeightPx: h,
		DPIX:     DefaultDPI,
		DPIY:     DefaultDPI,
	}, nil
}
