package doctpl

import (
	"fmt"

	"github.com/lvillar/pdftemplate/table"
	"github.com/lvillar/pdftemplate/unit"
)

// buildTable converts a table element into a laid-out table. Column widths
// are checked before any row is added.
func (a *Assembler) buildTable(t *Table) (*table.Table, error) {
	st := ResolveStyle(t.StyleSettings, a.fonts)

	tb := table.New(a.pdf, a.cfg.images)
	cols := make([]table.Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = table.Column{Name: c.Name, Width: unit.CmToPt(c.WidthInCm)}
	}
	tb.SetColumns(cols...)
	if err := tb.Validate(a.state.Geometry.PrintableWidth()); err != nil {
		return nil, err
	}

	tb.SetStyle(table.TableStyle{
		Border:      st.Border,
		CellPadding: table.DefaultCellPadding(),
		Cell:        st.CellStyle(),
	})

	if t.HasHeaderRow {
		hr := tb.AddHeaderRow()
		for _, c := range t.Columns {
			hr.AddCell(c.Name)
		}
	}

	for i, data := range t.RowData {
		values, err := rowValues(data, t.Columns)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		r := tb.AddRow()
		for j, c := range t.Columns {
			v := values[j]
			switch c.Type {
			case ColumnImage:
				r.AddImageCell(v)
			case ColumnPageNum:
				r.AddPageNumCell()
			case ColumnQRCode:
				r.AddQRCodeCell(v)
			case ColumnPDF417:
				r.AddPDF417Cell(v)
			default:
				r.AddCell(v)
			}
		}
	}

	if t.TableType == TableHeader || t.TableType == TableFooter {
		tb.StripBorders()
	} else if t.RepeatHeaderRow && t.HasHeaderRow {
		tb.SetRepeatHeader(true)
	}
	if err := tb.Prepare(); err != nil {
		return nil, err
	}
	return tb, nil
}

// placeTable places a body table in the flow or registers a repeating header or
// footer table.
func (a *Assembler) placeTable(t *Table) error {
	tb, err := a.buildTable(t)
	if err != nil {
		return err
	}
	a.state.Tables++
	a.log.Debug("table built", "type", t.TableType.String(), "width_cm", unit.PtToCm(tb.Width()), "rows", len(tb.Rows()))

	switch t.TableType {
	case TableHeader:
		a.state.Headers = append(a.state.Headers, tb)
		return nil
	case TableFooter:
		a.state.Footers = append(a.state.Footers, tb)
		return nil
	}

	x := a.state.Geometry.Left
	a.pdf.SetX(x)
	if err := tb.Render(); err != nil {
		return err
	}
	a.pdf.SetX(x)
	return nil
}

// rowValues returns one value per column. Values are looked up by column
// name; a row whose keys name no column is read positionally. Missing
// values are empty.
func rowValues(data RowData, cols []Column) ([]string, error) {
	if len(data) > len(cols) {
		return nil, fmt.Errorf("%w: %d values for %d columns", ErrInvalidDocument, len(data), len(cols))
	}
	values := make([]string, len(cols))
	named := false
	for _, c := range cols {
		if _, ok := data.Get(c.Name); ok {
			named = true
			break
		}
	}
	if !named {
		for j, f := range data {
			values[j] = f.Value
		}
		return values, nil
	}

	known := make(map[string]bool, len(cols))
	for j, c := range cols {
		known[c.Name] = true
		values[j], _ = data.Get(c.Name)
	}
	for _, f := range data {
		if !known[f.Key] {
			return nil, fmt.Errorf("%w: value for unknown column %q", ErrInvalidDocument, f.Key)
		}
	}
	return values, nil
}
