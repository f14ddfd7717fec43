package doctpl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"

	"github.com/lvillar/pdftemplate/internal/imagesrc"
	"github.com/lvillar/pdftemplate/table"
)

// stampHeight is the height reserved for the page number stamp.
const stampHeight = 12.0

// State is the progress of an assembly. It is updated by every step.
type State struct {
	Geometry Geometry

	// Section counts page setups; each PageBreak opens a new one.
	Section int
	// Pages is the number of pages started so far.
	Pages int

	Headers []*table.Table
	Footers []*table.Table

	Images     []PlacedImage
	Paragraphs int
	Tables     int
}

// PlacedImage records where a page-level image was drawn, in points.
type PlacedImage struct {
	Path          string
	Page          int
	X, Y          float64
	Width, Height float64
}

// Assembler lays out the elements of one document in order.
type Assembler struct {
	doc   *DocumentDefinition
	pdf   *fpdf.Fpdf
	cfg   *config
	fonts *FontResolver
	log   *slog.Logger
	state *State
	next  int

	// imp imports the background page; each document owns its importer.
	imp *gofpdi.Importer
}

// NewAssembler prepares a document: it applies the page setup, metadata and
// background, and starts the first page.
func NewAssembler(doc *DocumentDefinition, opts ...Option) (*Assembler, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	g, err := NewGeometry(doc)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           g.size(),
	})
	pdf.SetCompression(cfg.compression)
	pdf.SetCellMargin(0)
	pdf.AliasNbPages(table.PageCountAlias)
	g.apply(pdf)

	if s := strings.TrimSpace(doc.Title); s != "" {
		pdf.SetTitle(s, true)
	}
	if s := strings.TrimSpace(doc.Author); s != "" {
		pdf.SetAuthor(s, true)
	}
	if s := strings.TrimSpace(doc.Subject); s != "" {
		pdf.SetSubject(s, true)
	}
	pdf.SetCreator("pdftemplate", true)

	a := &Assembler{
		doc:   doc,
		pdf:   pdf,
		cfg:   cfg,
		fonts: NewFontResolver(pdf, cfg.unicode, cfg.fonts, cfg.logger),
		log:   cfg.logger,
		state: &State{Geometry: g, Section: 1},
	}

	if doc.BackgroundPdfPath != "" {
		if err := a.installBackground(doc.BackgroundPdfPath); err != nil {
			return nil, err
		}
	}
	pdf.SetFooterFunc(a.finishPage)

	pdf.AddPageFormat("P", g.size())
	pdf.SetFont(DefaultFontFamily, "", DefaultFontSize)
	a.state.Pages = pdf.PageNo()
	return a, a.err()
}

// State returns the current assembly state.
func (a *Assembler) State() *State {
	return a.state
}

// Step lays out the next element. It returns io.EOF when all elements have
// been processed.
func (a *Assembler) Step() error {
	if a.next >= len(a.doc.DocumentElements) {
		return io.EOF
	}
	i := a.next
	a.next++
	if err := a.place(a.doc.DocumentElements[i]); err != nil {
		return fmt.Errorf("doctpl: element %d: %w", i, err)
	}
	a.state.Pages = a.pdf.PageNo()
	return nil
}

// Run lays out all remaining elements and returns the final state.
func (a *Assembler) Run(ctx context.Context) (*State, error) {
	for {
		if err := ctx.Err(); err != nil {
			return a.state, err
		}
		err := a.Step()
		if err == io.EOF {
			return a.state, nil
		}
		if err != nil {
			return a.state, err
		}
	}
}

// Output closes the document and writes it to w.
func (a *Assembler) Output(w io.Writer) error {
	if err := a.err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := a.pdf.Output(&buf); err != nil {
		return fmt.Errorf("doctpl: %w", err)
	}
	if err := a.err(); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (a *Assembler) err() error {
	if a.pdf.Err() {
		return fmt.Errorf("doctpl: %w", a.pdf.Error())
	}
	return nil
}

// place dispatches one element to its renderer.
func (a *Assembler) place(el Element) error {
	switch e := el.(type) {
	case *Paragraph:
		a.log.Debug("placing element", "kind", "paragraph")
		return a.paragraph(e)
	case *Image:
		a.log.Debug("placing element", "kind", "image", "path", e.ImagePath)
		return a.image(e)
	case *Table:
		a.log.Debug("placing element", "kind", "table", "type", e.TableType.String(), "columns", len(e.Columns))
		return a.placeTable(e)
	case *PageBreak:
		a.log.Debug("placing element", "kind", "page break")
		a.pageBreak()
		return nil
	default:
		return fmt.Errorf("%w: unsupported element %T", ErrInvalidDocument, el)
	}
}

// pageBreak opens a new section with the document's original page setup.
func (a *Assembler) pageBreak() {
	g, err := NewGeometry(a.doc)
	if err != nil {
		a.pdf.SetError(err)
		return
	}
	g.apply(a.pdf)
	a.pdf.AddPageFormat("P", g.size())
	a.state.Geometry = g
	a.state.Section++
}

// newPage continues the current section on a fresh page.
func (a *Assembler) newPage() {
	a.pdf.AddPageFormat("P", a.state.Geometry.size())
}

// installBackground imports the first page of path to draw behind every page.
func (a *Assembler) installBackground(path string) (err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("doctpl: background: %w", imagesrc.Classify(path, err))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: background %s: %v", ErrInvalidDocument, path, r)
		}
	}()
	a.imp = gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))
	tpl := a.imp.ImportPageFromStream(a.pdf, &rs, 1, "/MediaBox")
	a.pdf.SetHeaderFunc(func() {
		defer func() {
			if r := recover(); r != nil {
				a.pdf.SetError(fmt.Errorf("%w: background %s: %v", ErrInvalidDocument, path, r))
			}
		}()
		x, y := a.pdf.GetXY()
		g := a.state.Geometry
		a.imp.UseImportedTemplate(a.pdf, tpl, 0, 0, g.Width, g.Height)
		a.pdf.SetXY(x, y)
	})
	return nil
}

// finishPage draws the repeating header and footer tables and the page
// number stamp. It runs as each page is closed.
func (a *Assembler) finishPage() {
	g := a.state.Geometry

	y := g.HeaderDistance
	for _, t := range a.state.Headers {
		if err := t.RenderAt(g.Left, y); err != nil {
			a.pdf.SetError(err)
			return
		}
		y += t.Height()
	}

	bottom := g.Height - g.FooterDistance
	if a.doc.ShowPageNumbers {
		bottom -= stampHeight
		a.pdf.SetFont(DefaultFontFamily, "", 9)
		a.pdf.SetXY(g.Left, bottom)
		a.pdf.CellFormat(g.PrintableWidth(), stampHeight,
			fmt.Sprintf("%d (%s)", a.pdf.PageNo(), table.PageCountAlias), "", 0, "C", false, 0, "")
	}

	var total float64
	for _, t := range a.state.Footers {
		total += t.Height()
	}
	y = bottom - total
	for _, t := range a.state.Footers {
		if err := t.RenderAt(g.Left, y); err != nil {
			a.pdf.SetError(err)
			return
		}
		y += t.Height()
	}
}
