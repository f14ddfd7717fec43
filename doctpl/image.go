package doctpl

import (
	"fmt"

	"github.com/lvillar/pdftemplate/internal/imagesrc"
	"github.com/lvillar/pdftemplate/unit"
)

// ImageSize returns the placed width and height in points of an image with
// the given natural size, following the request in im.
//
// Width is the requested width when it is set and narrower than printable,
// otherwise printable when the natural width exceeds it, otherwise the
// natural width. Height follows the aspect ratio unless the ratio is not
// locked and an explicit height is set.
func ImageSize(im *Image, naturalW, naturalH, printable float64) (w, h float64) {
	w = naturalW
	requested := unit.CmToPt(im.ImageWidthInCm)
	switch {
	case im.ImageWidthInCm > 0 && requested < printable:
		w = requested
	case naturalW > printable:
		w = printable
	}

	if naturalW > 0 {
		h = w * naturalH / naturalW
	}
	if !im.LockAspectRatio && im.ImageHeightInCm > 0 {
		h = unit.CmToPt(im.ImageHeightInCm)
	}
	return w, h
}

// image places a page-level image at the current position, starting a new
// page when it does not fit.
func (a *Assembler) image(im *Image) error {
	img, err := a.cfg.images.Load(im.ImagePath)
	if err != nil {
		return fmt.Errorf("doctpl: image: %w", imagesrc.Classify(im.ImagePath, err))
	}

	g := a.state.Geometry
	printable := g.PrintableWidth()
	w, h := ImageSize(im, unit.InchToPt(img.WidthInches()), unit.InchToPt(img.HeightInches()), printable)

	var x float64
	switch im.Alignment {
	case AlignRight:
		x = g.Width - g.Right - w
	case AlignCenter, AlignJustify:
		x = g.Left + (printable-w)/2
	default:
		x = g.Left
	}

	y := a.pdf.GetY()
	if y+h > g.PageBreakTrigger() && y > g.Top {
		a.newPage()
		y = a.pdf.GetY()
	}
	img.Draw(a.pdf, x, y, w, h, false)
	a.pdf.SetXY(g.Left, y+h)

	a.state.Images = append(a.state.Images, PlacedImage{
		Path:   im.ImagePath,
		Page:   a.pdf.PageNo(),
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
	})
	return a.err()
}
