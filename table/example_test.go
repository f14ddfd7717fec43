package table_test

import (
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/lvillar/pdftemplate/table"
	"github.com/lvillar/pdftemplate/unit"
)

// ExampleTable demonstrates a bordered table with a repeated header row and
// column widths given in centimetres.
func ExampleTable() {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCellMargin(0)
	pdf.AliasNbPages(table.PageCountAlias)
	pdf.AddPage()

	tbl := table.New(pdf, nil)
	tbl.SetColumns(
		table.Column{Name: "Item", Width: unit.CmToPt(8)},
		table.Column{Name: "Qty", Width: unit.CmToPt(3)},
		table.Column{Name: "Page", Width: unit.CmToPt(3)},
	)
	tbl.SetStyle(table.TableStyle{
		Border:      &table.BorderStyle{Width: 0.5, Edges: table.EdgeAll},
		CellPadding: table.UniformPadding(2),
		Cell:        table.CellStyle{Font: table.FontSpec{Family: "Helvetica", Size: 10}, VAlign: "M"},
	})
	tbl.SetRepeatHeader(true)

	header := tbl.AddHeaderRow()
	header.AddCell("Item")
	header.AddCell("Qty")
	header.AddCell("Page")

	for i := 1; i <= 3; i++ {
		r := tbl.AddRow()
		r.AddCell(fmt.Sprintf("Widget %d", i))
		r.AddCell(fmt.Sprint(i * 10))
		r.AddPageNumCell()
	}

	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	if err := tbl.Validate(pageW - left - right); err != nil {
		fmt.Println(err)
		return
	}
	if err := tbl.Render(); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("pages:", pdf.PageNo())

	wide := table.New(pdf, nil).SetColumns(table.Column{Name: "Too wide", Width: pageW})
	err := wide.Validate(pageW - left - right)
	fmt.Println(errors.Is(err, table.ErrLayout))
	// Output:
	// pages: 1
	// true
}
