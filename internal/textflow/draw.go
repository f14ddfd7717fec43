package textflow

// Canvas is the part of the renderer needed to draw wrapped lines.
// *fpdf.Fpdf satisfies it.
type Canvas interface {
	SetXY(x, y float64)
	CellFormat(w, h float64, txtStr, borderStr string, ln int, alignStr string, fill bool, link int, linkStr string)
}

// DrawLine draws l inside the box at (x, y) of width w and height h.
// Align is "L", "C", "R" or "J". Justified lines spread the extra width
// over their separators, except on the last line of a source line which is
// drawn left aligned. encode converts text for the current font and measure
// must agree with it.
func DrawLine(c Canvas, x, y, w, h float64, l Line, align string, encode func(string) string, measure MeasureFunc) {
	if encode == nil {
		encode = func(s string) string { return s }
	}
	gaps := l.Gaps()
	if align != "J" || l.Last || gaps == 0 {
		if align == "J" {
			align = "L"
		}
		c.SetXY(x, y)
		c.CellFormat(w, h, encode(l.String()), "", 0, align, false, 0, "")
		return
	}

	extra := (w - l.Width) / float64(gaps)
	first, last := -1, -1
	for i, t := range l.Tokens {
		if t.Kind == Word {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	cx := x
	for i, t := range l.Tokens {
		tw := measure(t.Text)
		if t.Kind == Space {
			cx += tw
			if i > first && i < last {
				cx += extra
			}
			continue
		}
		c.SetXY(cx, y)
		c.CellFormat(tw, h, encode(t.Text), "", 0, "L", false, 0, "")
		cx += tw
	}
}
