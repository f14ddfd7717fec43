package table

import (
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/lvillar/pdftemplate/internal/imagesrc"
	"github.com/lvillar/pdftemplate/internal/textflow"
	"github.com/lvillar/pdftemplate/unit"
)

// PageCountAlias is replaced by the total page count when the document is
// written. The document must register it with AliasNbPages.
const PageCountAlias = "{nb}"

// widthTolerance absorbs floating point error when column widths exactly
// fill the printable width.
const widthTolerance = 1e-6

// ErrLayout is matched by every layout violation.
var ErrLayout = errors.New("table: layout violation")

// WidthError reports columns wider than the space available for the table.
// Widths are in points.
type WidthError struct {
	Allowed   float64
	Requested float64
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("table: page allows table to be %.2f cm wide, provided table's width is larger than that, %.2f cm",
		unit.PtToCm(e.Allowed), unit.PtToCm(e.Requested))
}

func (e *WidthError) Is(target error) bool { return target == ErrLayout }

// ColumnWidthError reports a column without a positive width.
type ColumnWidthError struct {
	Column string
	Width  float64
}

func (e *ColumnWidthError) Error() string {
	return fmt.Sprintf("table: column %q must have a positive width, got %.2f cm", e.Column, unit.PtToCm(e.Width))
}

func (e *ColumnWidthError) Is(target error) bool { return target == ErrLayout }

// Column defines a fixed-width column. Width is in points.
type Column struct {
	Name  string
	Width float64
}

// DefaultCellPadding is the horizontal inset applied to cell text.
func DefaultCellPadding() Padding {
	return Padding{Left: unit.MmToPt(1.2), Right: unit.MmToPt(1.2)}
}

// ImageLoader resolves image paths for image cells.
type ImageLoader interface {
	Load(path string) (*imagesrc.Image, error)
}

// Table is a fixed-column table drawn on an fpdf document.
type Table struct {
	pdf          *fpdf.Fpdf
	loader       ImageLoader
	columns      []Column
	rows         []*Row
	headerRows   int
	style        TableStyle
	repeatHeader bool
	images       map[string]*imagesrc.Image
}

// New creates a new Table associated with the given PDF document. A nil
// loader reads images from the local filesystem.
func New(pdf *fpdf.Fpdf, loader ImageLoader) *Table {
	if loader == nil {
		loader = imagesrc.NewLoader()
	}
	return &Table{
		pdf:    pdf,
		loader: loader,
		style: TableStyle{
			CellPadding: DefaultCellPadding(),
			Cell:        CellStyle{Font: FontSpec{Family: "Helvetica", Size: 10}, VAlign: "B"},
		},
	}
}

// SetColumns sets column definitions for the table.
func (t *Table) SetColumns(cols ...Column) *Table {
	t.columns = cols
	return t
}

// SetStyle sets the table-wide style.
func (t *Table) SetStyle(s TableStyle) *Table {
	t.style = s
	return t
}

// Style returns the table-wide style.
func (t *Table) Style() TableStyle {
	return t.style
}

// StripBorders removes any border from the table.
func (t *Table) StripBorders() *Table {
	t.style.Border = nil
	return t
}

// SetRepeatHeader redraws the header rows at the top of each page the
// table continues on.
func (t *Table) SetRepeatHeader(repeat bool) *Table {
	t.repeatHeader = repeat
	return t
}

// AddRow adds a new data row to the table and returns it for chaining.
func (t *Table) AddRow() *Row {
	r := &Row{}
	t.rows = append(t.rows, r)
	return r
}

// AddHeaderRow adds a new header row before all data rows.
func (t *Table) AddHeaderRow() *Row {
	r := &Row{isHeader: true}
	t.rows = append(t.rows, nil)
	copy(t.rows[t.headerRows+1:], t.rows[t.headerRows:])
	t.rows[t.headerRows] = r
	t.headerRows++
	return r
}

// Rows returns header rows followed by data rows.
func (t *Table) Rows() []*Row {
	return t.rows
}

// Width returns the sum of the column widths.
func (t *Table) Width() float64 {
	var w float64
	for _, c := range t.columns {
		w += c.Width
	}
	return w
}

// Validate checks the column widths against available, the printable page
// width. It only looks at column definitions, never at row content, and
// fails as soon as the running width exceeds available.
func (t *Table) Validate(available float64) error {
	var sum float64
	for _, c := range t.columns {
		if !(c.Width > 0) {
			return &ColumnWidthError{Column: c.Name, Width: c.Width}
		}
		sum += c.Width
		if sum > available+widthTolerance {
			return &WidthError{Allowed: available, Requested: sum}
		}
	}
	return nil
}

// Prepare resolves every image and barcode referenced by the table so
// that drawing cannot fail half way. It is safe to call more than once.
func (t *Table) Prepare() error {
	if t.images != nil {
		return nil
	}
	images := make(map[string]*imagesrc.Image)
	for _, r := range t.rows {
		for i, cell := range r.cells {
			switch c := cell.content.(type) {
			case ImageContent:
				if _, ok := images[c.Path]; ok {
					continue
				}
				img, err := t.loader.Load(c.Path)
				if err != nil {
					return fmt.Errorf("table: image in column %q: %w", t.columnName(i), imagesrc.Classify(c.Path, err))
				}
				images[c.Path] = img
			case QRCodeContent:
				if c.Text == "" {
					continue
				}
				img, err := imagesrc.QRCode(c.Text)
				if err != nil {
					return fmt.Errorf("table: QR code in column %q: %w", t.columnName(i), err)
				}
				images[img.Name] = img
			case PDF417Content:
				if c.Text == "" {
					continue
				}
				img, err := imagesrc.PDF417(c.Text)
				if err != nil {
					return fmt.Errorf("table: PDF417 code in column %q: %w", t.columnName(i), err)
				}
				images[img.Name] = img
			}
		}
	}
	t.images = images
	return nil
}

func (t *Table) columnName(i int) string {
	if i < len(t.columns) {
		return t.columns[i].Name
	}
	return fmt.Sprintf("#%d", i+1)
}

// Height returns the total height of all rows.
func (t *Table) Height() float64 {
	t.applyFont()
	var h float64
	for _, r := range t.rows {
		h += t.rowHeight(r)
	}
	return h
}

// Render draws the table at the current position, starting a new page
// whenever the next row does not fit above the bottom margin.
func (t *Table) Render() error {
	if t.pdf.Err() {
		return t.pdf.Error()
	}
	if err := t.Prepare(); err != nil {
		return err
	}
	t.applyFont()

	startX, topMargin, _, bottomMargin := t.pdf.GetMargins()
	_, pageH := t.pdf.GetPageSize()

	var headers []*Row
	for _, r := range t.rows {
		rowH := t.rowHeight(r)
		y := t.pdf.GetY()
		if y+rowH > pageH-bottomMargin && y > topMargin+widthTolerance {
			t.pdf.AddPage()
			t.applyFont()
			y = t.pdf.GetY()
			if t.repeatHeader && !r.isHeader {
				for _, hr := range headers {
					hh := t.rowHeight(hr)
					t.drawRow(hr, startX, y, hh)
					y += hh
				}
			}
		}
		t.drawRow(r, startX, y, rowH)
		t.pdf.SetXY(startX, y+rowH)
		if r.isHeader {
			headers = append(headers, r)
		}
	}

	return t.pdf.Error()
}

// RenderAt draws the whole table with its top-left corner at (x, y),
// ignoring page breaks.
func (t *Table) RenderAt(x, y float64) error {
	if t.pdf.Err() {
		return t.pdf.Error()
	}
	if err := t.Prepare(); err != nil {
		return err
	}
	auto, margin := t.pdf.GetAutoPageBreak()
	t.pdf.SetAutoPageBreak(false, margin)
	defer t.pdf.SetAutoPageBreak(auto, margin)

	t.applyFont()
	for _, r := range t.rows {
		rowH := t.rowHeight(r)
		t.drawRow(r, x, y, rowH)
		y += rowH
	}
	return t.pdf.Error()
}

func (t *Table) applyFont() {
	f := t.style.Cell.Font
	t.pdf.SetFont(f.Family, f.Style, f.Size)
}

func (t *Table) measure(s string) float64 {
	return t.pdf.GetStringWidth(t.style.Cell.encode(s))
}

func (t *Table) pageNumText() string {
	return fmt.Sprintf("%d (%s)", t.pdf.PageNo(), PageCountAlias)
}

func (t *Table) contentWidth(colW float64) float64 {
	w := colW - t.style.CellPadding.Left - t.style.CellPadding.Right
	if w < 1 {
		w = 1
	}
	return w
}

// textHeight is the height of a text cell including padding and spacing.
func (t *Table) textHeight(text string, colW float64) float64 {
	cs := t.style.Cell
	pad := t.style.CellPadding
	lines := textflow.Wrap(text, t.contentWidth(colW), t.measure)
	return float64(len(lines))*cs.lineHeight() + cs.SpacingBefore + cs.SpacingAfter + pad.Top + pad.Bottom
}

// rowHeight computes the height needed for a row based on cell content.
func (t *Table) rowHeight(r *Row) float64 {
	maxH := t.textHeight("", 1)
	for i, cell := range r.cells {
		if i >= len(t.columns) {
			break
		}
		colW := t.columns[i].Width
		var h float64
		switch c := cell.content.(type) {
		case TextContent:
			h = t.textHeight(c.Text, colW)
		case PageNumContent:
			h = t.textHeight(t.pageNumText(), colW)
		case ImageContent:
			if img := t.images[c.Path]; img != nil {
				h = colW * img.AspectRatio()
			}
		case QRCodeContent:
			if c.Text != "" {
				h = colW
			}
		case PDF417Content:
			if img := t.images["pdf417:"+c.Text]; img != nil {
				h = colW * img.AspectRatio()
			}
		}
		if h > maxH {
			maxH = h
		}
	}
	return maxH
}

// drawRow renders a single row with its top-left corner at (x, y).
func (t *Table) drawRow(r *Row, x, y, rowH float64) {
	for i, cell := range r.cells {
		if i >= len(t.columns) {
			break
		}
		colW := t.columns[i].Width

		switch c := cell.content.(type) {
		case TextContent:
			t.drawText(c.Text, x, y, colW, rowH)
		case PageNumContent:
			t.drawText(t.pageNumText(), x, y, colW, rowH)
		case ImageContent:
			if img := t.images[c.Path]; img != nil {
				img.Draw(t.pdf, x, y, colW, colW*img.AspectRatio(), false)
			}
		case QRCodeContent:
			if img := t.images["qr:"+c.Text]; img != nil {
				img.Draw(t.pdf, x, y, colW, colW, false)
			}
		case PDF417Content:
			if img := t.images["pdf417:"+c.Text]; img != nil {
				img.Draw(t.pdf, x, y, colW, colW*img.AspectRatio(), false)
			}
		}

		t.drawBorder(x, y, colW, rowH)
		x += colW
	}
}

func (t *Table) drawText(text string, x, y, colW, rowH float64) {
	cs := t.style.Cell
	pad := t.style.CellPadding
	lh := cs.lineHeight()
	contentW := t.contentWidth(colW)

	lines := textflow.Wrap(text, contentW, t.measure)
	blockH := float64(len(lines)) * lh

	var top float64
	switch cs.VAlign {
	case "T":
		top = y + pad.Top + cs.SpacingBefore
	case "M":
		avail := rowH - pad.Top - pad.Bottom - cs.SpacingBefore - cs.SpacingAfter
		top = y + pad.Top + cs.SpacingBefore + (avail-blockH)/2
	default:
		top = y + rowH - pad.Bottom - cs.SpacingAfter - blockH
	}

	align := cs.Align
	if align == "" {
		align = "L"
	}
	for i, line := range lines {
		textflow.DrawLine(t.pdf, x+pad.Left, top+float64(i)*lh, contentW, lh, line, align, cs.Encode, t.measure)
	}
}

func (t *Table) drawBorder(x, y, w, h float64) {
	b := t.style.Border
	if b == nil || b.Width <= 0 || b.Edges == 0 {
		return
	}
	t.pdf.SetLineWidth(b.Width)
	t.pdf.SetDrawColor(0, 0, 0)
	if b.Edges&EdgeTop != 0 {
		t.pdf.Line(x, y, x+w, y)
	}
	if b.Edges&EdgeBottom != 0 {
		t.pdf.Line(x, y+h, x+w, y+h)
	}
	if b.Edges&EdgeLeft != 0 {
		t.pdf.Line(x, y, x, y+h)
	}
	if b.Edges&EdgeRight != 0 {
		t.pdf.Line(x+w, y, x+w, y+h)
	}
}
