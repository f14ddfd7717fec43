package table

// CellContent represents the content of a table cell.
type CellContent interface {
	cellContent()
}

// TextContent is a simple text cell content.
type TextContent struct {
	Text string
}

func (TextContent) cellContent() {}

// ImageContent is an image cell. The image is scaled to the column width
// with its aspect ratio kept and anchored at the top-left of the cell.
type ImageContent struct {
	Path string
}

func (ImageContent) cellContent() {}

// PageNumContent renders "current page (total pages)". The total is a
// deferred field resolved when the document is written.
type PageNumContent struct{}

func (PageNumContent) cellContent() {}

// QRCodeContent renders Text as a square QR code filling the column width.
type QRCodeContent struct {
	Text string
}

func (QRCodeContent) cellContent() {}

// PDF417Content renders Text as a PDF417 barcode scaled to the column
// width with its aspect ratio kept.
type PDF417Content struct {
	Text string
}

func (PDF417Content) cellContent() {}

// Cell represents a single cell in a table row.
type Cell struct {
	content CellContent
}

// Content returns the cell content.
func (c *Cell) Content() CellContent {
	return c.content
}

// Row represents a single row in a table.
type Row struct {
	cells    []*Cell
	isHeader bool
}

// Cells returns the cells of the row in column order.
func (r *Row) Cells() []*Cell {
	return r.cells
}

// IsHeader reports whether the row was added with AddHeaderRow.
func (r *Row) IsHeader() bool {
	return r.isHeader
}

func (r *Row) add(c CellContent) *Cell {
	cell := &Cell{content: c}
	r.cells = append(r.cells, cell)
	return cell
}

// AddCell adds a text cell to the row and returns the cell for chaining.
func (r *Row) AddCell(text string) *Cell {
	return r.add(TextContent{Text: text})
}

// AddImageCell adds an image cell to the row.
func (r *Row) AddImageCell(imagePath string) *Cell {
	return r.add(ImageContent{Path: imagePath})
}

// AddPageNumCell adds a page number cell to the row.
func (r *Row) AddPageNumCell() *Cell {
	return r.add(PageNumContent{})
}

// AddQRCodeCell adds a QR code cell to the row.
func (r *Row) AddQRCodeCell(text string) *Cell {
	return r.add(QRCodeContent{Text: text})
}

// AddPDF417Cell adds a PDF417 barcode cell to the row.
func (r *Row) AddPDF417Cell(text string) *Cell {
	return r.add(PDF417Content{Text: text})
}
