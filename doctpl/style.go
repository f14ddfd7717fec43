package doctpl

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/lvillar/pdftemplate/table"
)

// Defaults applied when style settings leave a value unset.
const (
	DefaultFontFamily = "Helvetica"
	DefaultFontSize   = 10.0
	lineHeightFactor  = 1.2
)

// coreFonts maps accepted family names to the renderer's built-in fonts.
var coreFonts = map[string]string{
	"arial":           "Helvetica",
	"helvetica":       "Helvetica",
	"times":           "Times",
	"times new roman": "Times",
	"courier":         "Courier",
	"courier new":     "Courier",
	"symbol":          "Symbol",
	"zapfdingbats":    "ZapfDingbats",
}

// FontFace is a TrueType font file registered under a family name. Style
// is "", "B", "I" or "BI".
type FontFace struct {
	Family string
	Style  string
	Path   string
}

// Font is a resolved renderer font.
type Font struct {
	Family string
	Style  string // "", "B", "I", "BI" or "U"
	Size   float64

	// Encode converts text into the form the font expects.
	Encode func(string) string
}

type ttfFamily struct {
	name   string
	faces  map[string]string // style -> path
	loaded map[string]bool
}

// FontResolver maps font family names onto fonts usable by one document.
// Unknown families fall back to DefaultFontFamily with a warning.
type FontResolver struct {
	pdf     *fpdf.Fpdf
	unicode bool
	ttf     map[string]*ttfFamily
	warned  map[string]bool
	log     *slog.Logger
}

// NewFontResolver returns a resolver for pdf. TrueType faces are only used
// when unicode is set; they are registered with pdf on first use.
func NewFontResolver(pdf *fpdf.Fpdf, unicode bool, faces []FontFace, log *slog.Logger) *FontResolver {
	if log == nil {
		log = discardLogger()
	}
	r := &FontResolver{
		pdf:     pdf,
		unicode: unicode,
		ttf:     make(map[string]*ttfFamily),
		warned:  make(map[string]bool),
		log:     log,
	}
	for _, f := range faces {
		key := normalizeFamily(f.Family)
		fam := r.ttf[key]
		if fam == nil {
			fam = &ttfFamily{name: f.Family, faces: make(map[string]string), loaded: make(map[string]bool)}
			r.ttf[key] = fam
		}
		fam.faces[strings.ToUpper(f.Style)] = f.Path
	}
	return r
}

func normalizeFamily(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// styleString maps a FontStyle onto the renderer's style letters.
func styleString(s FontStyle) string {
	switch s {
	case Bold:
		return "B"
	case Italic:
		return "I"
	case BoldItalic:
		return "BI"
	case Underline:
		return "U"
	}
	return ""
}

// Resolve returns the font for family in the given style. It never fails.
func (r *FontResolver) Resolve(family string, style FontStyle, size float64) Font {
	if size <= 0 {
		size = DefaultFontSize
	}
	st := styleString(style)
	key := normalizeFamily(family)

	if key != "" && r.unicode {
		if fam, ok := r.ttf[key]; ok {
			if f, ok := r.loadTTF(fam, st, size); ok {
				return f
			}
		}
	}
	if core, ok := coreFonts[key]; ok {
		return Font{Family: core, Style: st, Size: size, Encode: encodeWindows1252}
	}
	if key != "" && !r.warned[key] {
		r.warned[key] = true
		r.log.Warn("font family not available, using fallback", "family", family, "fallback", DefaultFontFamily)
	}
	return Font{Family: DefaultFontFamily, Style: st, Size: size, Encode: encodeWindows1252}
}

// loadTTF registers the face for st, falling back to the regular face when
// the family lacks the requested variant.
func (r *FontResolver) loadTTF(fam *ttfFamily, st string, size float64) (Font, bool) {
	face := strings.TrimSuffix(st, "U")
	if _, ok := fam.faces[face]; !ok {
		r.log.Warn("font style not available, using regular face", "family", fam.name, "style", face)
		face = ""
		if st != "U" {
			st = ""
		}
	}
	path, ok := fam.faces[face]
	if !ok {
		return Font{}, false
	}
	if !fam.loaded[face] {
		data, err := os.ReadFile(path)
		if err != nil {
			r.log.Warn("reading font file", "family", fam.name, "path", path, "error", err)
			delete(fam.faces, face)
			return Font{}, false
		}
		if err := r.register(fam.name, face, data); err != nil {
			r.log.Warn("unusable font file", "family", fam.name, "path", path, "error", err)
			delete(fam.faces, face)
			return Font{}, false
		}
		fam.loaded[face] = true
	}
	return Font{Family: fam.name, Style: st, Size: size}, true
}

// register adds a TrueType face to the document. A face the renderer cannot
// parse is reported and leaves the document usable.
func (r *FontResolver) register(family, style string, data []byte) (err error) {
	if !isTrueType(data) {
		return errNotTrueType
	}
	if r.pdf.Err() {
		return r.pdf.Error()
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("doctpl: parsing font: %v", rec)
		}
		if r.pdf.Err() {
			if err == nil {
				err = r.pdf.Error()
			}
			r.pdf.ClearError()
		}
	}()
	r.pdf.AddUTF8FontFromBytes(family, style, data)
	if r.pdf.Err() {
		return r.pdf.Error()
	}
	if r.pdf.GetFontDesc(family, style).Ascent == 0 {
		return errFontNotRegistered
	}
	return nil
}

var (
	errNotTrueType       = errors.New("doctpl: not a TrueType font")
	errFontNotRegistered = errors.New("doctpl: font was not registered")
)

// isTrueType checks the sfnt version of a TrueType outline font.
func isTrueType(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	v := string(data[:4])
	return v == "\x00\x01\x00\x00" || v == "true"
}

// encodeWindows1252 converts text for the built-in fonts. Characters
// outside the code page become '?'.
func encodeWindows1252(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			b.WriteByte(byte(r))
			continue
		}
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

// Style is the resolved appearance of a paragraph or table.
type Style struct {
	Font          Font
	Align         string // "L", "C", "R" or "J"
	VAlign        string // "T", "M" or "B"
	LineHeight    float64
	SpacingBefore float64
	SpacingAfter  float64
	Border        *table.BorderStyle
}

// ResolveStyle converts style settings into a renderer style. A nil s
// yields the defaults: 10pt Helvetica, left and bottom aligned, no border.
func ResolveStyle(s *StyleSettings, fonts *FontResolver) Style {
	if s == nil {
		s = &StyleSettings{}
	}
	st := Style{
		Font:          fonts.Resolve(s.FontFamily, s.FontStyle, s.FontSizeInPt),
		Align:         alignString(s.horizontal()),
		VAlign:        valignString(s.vertical()),
		LineHeight:    s.LineSpacingInPt,
		SpacingBefore: s.SpacingBeforeInPt,
		SpacingAfter:  s.SpacingAfterInPt,
	}
	if st.LineHeight <= 0 {
		st.LineHeight = st.Font.Size * lineHeightFactor
	}
	if s.BorderWidthInPt > 0 {
		var edges table.Edges
		switch s.BorderStyle {
		case BorderTop:
			edges = table.EdgeTop
		case BorderBottom:
			edges = table.EdgeBottom
		case BorderAll:
			edges = table.EdgeAll
		}
		if edges != 0 {
			st.Border = &table.BorderStyle{Width: s.BorderWidthInPt, Edges: edges}
		}
	}
	return st
}

func alignString(a HAlign) string {
	switch a {
	case AlignCenter:
		return "C"
	case AlignJustify:
		return "J"
	case AlignRight:
		return "R"
	}
	return "L"
}

func valignString(a VAlign) string {
	switch a {
	case VAlignTop:
		return "T"
	case VAlignCenter:
		return "M"
	}
	return "B"
}

// encode converts text for the style's font.
func (s Style) encode(text string) string {
	if s.Font.Encode == nil {
		return text
	}
	return s.Font.Encode(text)
}

// apply selects the style's font on pdf.
func (s Style) apply(pdf *fpdf.Fpdf) {
	pdf.SetFont(s.Font.Family, s.Font.Style, s.Font.Size)
}

// CellStyle converts the style for table cells.
func (s Style) CellStyle() table.CellStyle {
	return table.CellStyle{
		Font:          table.FontSpec{Family: s.Font.Family, Style: s.Font.Style, Size: s.Font.Size},
		Align:         s.Align,
		VAlign:        s.VAlign,
		LineHeight:    s.LineHeight,
		SpacingBefore: s.SpacingBefore,
		SpacingAfter:  s.SpacingAfter,
		Encode:        s.Font.Encode,
	}
}
