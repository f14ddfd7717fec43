package doctpl

import (
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/lvillar/pdftemplate/unit"
)

// DefaultEdgeDistanceInCm is the distance of header and footer tables from
// the page edge when the document does not set one.
const DefaultEdgeDistanceInCm = 1.25

// portrait page dimensions in millimetres.
var pageSizesMm = map[PageSize][2]float64{
	A0:     {841, 1189},
	A1:     {594, 841},
	A2:     {420, 594},
	A3:     {297, 420},
	A4:     {210, 297},
	A5:     {148, 210},
	A6:     {105, 148},
	B5:     {176, 250},
	Ledger: {279.4, 431.8},
	Legal:  {215.9, 355.6},
	Letter: {215.9, 279.4},
}

// Geometry is the resolved page setup. All values are in points.
type Geometry struct {
	Width, Height            float64
	Left, Top, Right, Bottom float64
	HeaderDistance           float64
	FooterDistance           float64
}

// PageDimensions returns the portrait width and height of size in points.
func PageDimensions(size PageSize) (w, h float64, err error) {
	mm, ok := pageSizesMm[size]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown page size %d", ErrInvalidDocument, int(size))
	}
	return unit.MmToPt(mm[0]), unit.MmToPt(mm[1]), nil
}

// NewGeometry resolves the page setup of doc. Landscape swaps width and
// height.
func NewGeometry(doc *DocumentDefinition) (Geometry, error) {
	w, h, err := PageDimensions(doc.PageSize)
	if err != nil {
		return Geometry{}, err
	}
	switch doc.PageOrientation {
	case Portrait:
	case Landscape:
		w, h = h, w
	default:
		return Geometry{}, fmt.Errorf("%w: unknown page orientation %d", ErrInvalidDocument, int(doc.PageOrientation))
	}

	g := Geometry{
		Width:          w,
		Height:         h,
		Left:           unit.CmToPt(doc.MarginLeftInCm),
		Top:            unit.CmToPt(doc.MarginTopInCm),
		Right:          unit.CmToPt(doc.MarginRightInCm),
		Bottom:         unit.CmToPt(doc.MarginBottomInCm),
		HeaderDistance: unit.CmToPt(edgeDistance(doc.HeaderDistanceInCm)),
		FooterDistance: unit.CmToPt(edgeDistance(doc.FooterDistanceInCm)),
	}
	if g.PrintableWidth() <= 0 {
		return Geometry{}, fmt.Errorf("%w: margins leave no printable width on a %.2f cm wide page",
			ErrInvalidDocument, unit.PtToCm(w))
	}
	if g.Top+g.Bottom >= g.Height {
		return Geometry{}, fmt.Errorf("%w: margins leave no printable height on a %.2f cm high page",
			ErrInvalidDocument, unit.PtToCm(h))
	}
	return g, nil
}

func edgeDistance(v *float64) float64 {
	if v == nil || *v < 0 {
		return DefaultEdgeDistanceInCm
	}
	return *v
}

// PrintableWidth is the page width minus the left and right margins.
func (g Geometry) PrintableWidth() float64 {
	return g.Width - g.Left - g.Right
}

// PageBreakTrigger is the lowest y content may reach on a page.
func (g Geometry) PageBreakTrigger() float64 {
	return g.Height - g.Bottom
}

func (g Geometry) size() fpdf.SizeType {
	return fpdf.SizeType{Wd: g.Width, Ht: g.Height}
}

// apply sets margins and automatic page breaking on pdf.
func (g Geometry) apply(pdf *fpdf.Fpdf) {
	pdf.SetMargins(g.Left, g.Top, g.Right)
	pdf.SetAutoPageBreak(true, g.Bottom)
}
