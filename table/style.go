// Package table lays out fixed-column tables on an fpdf document.
//
// Column widths are validated against the printable width before any row is
// drawn. Tables either flow with the document, breaking between rows, or are
// drawn at a fixed position, which is how repeating page headers and footers
// are produced.
package table

// FontSpec defines font properties for text rendering.
type FontSpec struct {
	Family string
	Style  string  // "", "B", "I", "BI", "U"
	Size   float64 // in points
}

// Padding defines spacing inside a cell.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// UniformPadding creates a Padding with the same value on all sides.
func UniformPadding(v float64) Padding {
	return Padding{Top: v, Right: v, Bottom: v, Left: v}
}

// Edges selects which sides of a cell receive a border.
type Edges int

const (
	EdgeTop Edges = 1 << iota
	EdgeBottom
	EdgeLeft
	EdgeRight

	EdgeAll = EdgeTop | EdgeBottom | EdgeLeft | EdgeRight
)

// BorderStyle defines solid cell borders.
type BorderStyle struct {
	Width float64
	Edges Edges
}

// CellStyle defines the text appearance shared by all cells of a table.
type CellStyle struct {
	Font          FontSpec
	Align         string // "L", "C", "R", "J"
	VAlign        string // "T", "M", "B"
	LineHeight    float64
	SpacingBefore float64
	SpacingAfter  float64

	// Encode converts UTF-8 text into the byte form the current font expects.
	// Nil leaves text unchanged.
	Encode func(string) string
}

// TableStyle defines the overall appearance of a table.
type TableStyle struct {
	Border      *BorderStyle
	CellPadding Padding
	Cell        CellStyle
}

func (s CellStyle) encode(text string) string {
	if s.Encode == nil {
		return text
	}
	return s.Encode(text)
}

func (s CellStyle) lineHeight() float64 {
	if s.LineHeight > 0 {
		return s.LineHeight
	}
	return s.Font.Size * 1.2
}
