package imagesrc

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

func (img *Image) options() fpdf.ImageOptions {
	return fpdf.ImageOptions{ImageType: img.Format}
}

// Register embeds img into pdf under img.Name. Repeated calls are no-ops.
func (img *Image) Register(pdf *fpdf.Fpdf) {
	if pdf.GetImageInfo(img.Name) != nil {
		return
	}
	pdf.RegisterImageOptionsReader(img.Name, img.options(), bytes.NewReader(img.Data))
}

// Draw places img at (x, y) with size w × h. With flow set, y is taken from
// the current position, a page break is triggered when the image does not
// fit and the position advances past the image.
func (img *Image) Draw(pdf *fpdf.Fpdf, x, y, w, h float64, flow bool) {
	img.Register(pdf)
	pdf.ImageOptions(img.Name, x, y, w, h, flow, img.options(), 0, "")
}
