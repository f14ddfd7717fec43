package doctpl

import (
	"github.com/lvillar/pdftemplate/internal/textflow"
)

// paragraph flows text across the printable width. Runs of spaces and tabs
// are kept; every source line break starts a new line.
func (a *Assembler) paragraph(p *Paragraph) error {
	if textflow.Blank(p.Text) {
		return nil
	}
	st := ResolveStyle(p.StyleSettings, a.fonts)
	st.apply(a.pdf)

	g := a.state.Geometry
	width := g.PrintableWidth()
	measure := func(s string) float64 {
		return a.pdf.GetStringWidth(st.encode(s))
	}
	lines := textflow.Wrap(p.Text, width, measure)

	y := a.pdf.GetY() + st.SpacingBefore
	for _, line := range lines {
		if y+st.LineHeight > g.PageBreakTrigger() && y > g.Top {
			a.newPage()
			st.apply(a.pdf)
			y = a.pdf.GetY()
		}
		textflow.DrawLine(a.pdf, g.Left, y, width, st.LineHeight, line, st.Align, st.Font.Encode, measure)
		y += st.LineHeight
	}
	a.pdf.SetXY(g.Left, y+st.SpacingAfter)

	a.state.Paragraphs++
	return a.err()
}
