package doctpl

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"

	"github.com/lvillar/pdftemplate/table"
)

func newResolver(t *testing.T, faces ...FontFace) (*FontResolver, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	pdf := fpdf.New("P", "pt", "A4", "")
	return NewFontResolver(pdf, true, faces, log), &logs
}

func TestResolveCoreFonts(t *testing.T) {
	r, logs := newResolver(t)
	tests := []struct {
		family string
		want   string
	}{
		{"Arial", "Helvetica"},
		{"helvetica", "Helvetica"},
		{"Times New Roman", "Times"},
		{"  times   new  roman ", "Times"},
		{"Courier New", "Courier"},
		{"ZapfDingbats", "ZapfDingbats"},
		{"", "Helvetica"},
	}
	for _, tt := range tests {
		if got := r.Resolve(tt.family, Regular, 0).Family; got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.family, got, tt.want)
		}
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected warnings: %s", logs.String())
	}
}

func TestResolveUnknownFontFallsBack(t *testing.T) {
	r, logs := newResolver(t)
	f := r.Resolve("Comic Sans", Bold, 14)
	if f.Family != DefaultFontFamily || f.Style != "B" || f.Size != 14 {
		t.Errorf("font = %+v", f)
	}
	r.Resolve("Comic Sans", Regular, 14)
	if got := strings.Count(logs.String(), "font family not available"); got != 1 {
		t.Errorf("warnings = %d, want 1", got)
	}
}

func TestResolveMissingFontFile(t *testing.T) {
	r, logs := newResolver(t, FontFace{Family: "Brand", Path: filepath.Join(t.TempDir(), "brand.ttf")})
	f := r.Resolve("Brand", Regular, 10)
	if f.Family != DefaultFontFamily {
		t.Errorf("family = %q, want fallback", f.Family)
	}
	if !strings.Contains(logs.String(), "reading font file") {
		t.Error("expected a warning for the unreadable font file")
	}
}

func TestResolveUnparsableFontFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ttf")
	if err := os.WriteFile(path, []byte("this is not a font file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, logs := newResolver(t, FontFace{Family: "Broken", Path: path})
	f := r.Resolve("Broken", Bold, 12)
	if f.Family != DefaultFontFamily || f.Style != "B" {
		t.Errorf("font = %+v, want bold fallback", f)
	}
	if r.pdf.Err() {
		t.Errorf("document error after bad font: %v", r.pdf.Error())
	}
	if !strings.Contains(logs.String(), "unusable font file") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestIsTrueType(t *testing.T) {
	tests := []struct {
		data []byte
		want bool
	}{
		{append([]byte{0, 1, 0, 0}, make([]byte, 8)...), true},
		{append([]byte("true"), make([]byte, 8)...), true},
		{append([]byte("OTTO"), make([]byte, 8)...), false},
		{append([]byte("ttcf"), make([]byte, 8)...), false},
		{[]byte{0, 1, 0, 0}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := isTrueType(tt.data); got != tt.want {
			t.Errorf("isTrueType(%q) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func TestResolveStyleLetters(t *testing.T) {
	r, _ := newResolver(t)
	tests := []struct {
		style FontStyle
		want  string
	}{
		{Regular, ""},
		{Bold, "B"},
		{Italic, "I"},
		{BoldItalic, "BI"},
		{Underline, "U"},
	}
	for _, tt := range tests {
		if got := r.Resolve("Arial", tt.style, 10).Style; got != tt.want {
			t.Errorf("%v: style = %q, want %q", tt.style, got, tt.want)
		}
	}
}

func TestResolveStyleDefaults(t *testing.T) {
	r, _ := newResolver(t)
	st := ResolveStyle(nil, r)
	if st.Font.Family != "Helvetica" || st.Font.Size != 10 {
		t.Errorf("font = %+v", st.Font)
	}
	if st.Align != "L" || st.VAlign != "B" {
		t.Errorf("align = %q/%q, want L/B", st.Align, st.VAlign)
	}
	if st.LineHeight != 12 {
		t.Errorf("line height = %v, want 12", st.LineHeight)
	}
	if st.Border != nil {
		t.Error("default style must have no border")
	}
}

func TestResolveStyleSettings(t *testing.T) {
	r, _ := newResolver(t)
	right := AlignRight
	top := VAlignTop
	st := ResolveStyle(&StyleSettings{
		FontFamily:          "Courier",
		FontSizeInPt:        8,
		LineSpacingInPt:     15,
		HorizontalAlignment: &right,
		VerticalAlignment:   &top,
		SpacingBeforeInPt:   3,
		SpacingAfterInPt:    4,
	}, r)
	if st.Font.Family != "Courier" || st.Align != "R" || st.VAlign != "T" || st.LineHeight != 15 {
		t.Errorf("style = %+v", st)
	}
	cs := st.CellStyle()
	if cs.SpacingBefore != 3 || cs.SpacingAfter != 4 || cs.Font.Size != 8 {
		t.Errorf("cell style = %+v", cs)
	}
}

func TestResolveBorder(t *testing.T) {
	r, _ := newResolver(t)
	tests := []struct {
		width float64
		kind  BorderKind
		want  *table.BorderStyle
	}{
		{0, BorderAll, nil},
		{-1, BorderTop, nil},
		{1, BorderNone, nil},
		{1, BorderTop, &table.BorderStyle{Width: 1, Edges: table.EdgeTop}},
		{0.5, BorderBottom, &table.BorderStyle{Width: 0.5, Edges: table.EdgeBottom}},
		{2, BorderAll, &table.BorderStyle{Width: 2, Edges: table.EdgeAll}},
	}
	for _, tt := range tests {
		got := ResolveStyle(&StyleSettings{BorderWidthInPt: tt.width, BorderStyle: tt.kind}, r).Border
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("%v/%v: got %+v, want none", tt.width, tt.kind, got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("%v/%v: got %+v, want %+v", tt.width, tt.kind, got, tt.want)
		}
	}
}

func TestEncodeWindows1252(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"café", "caf\xe9"},
		{"5 €", "5 \x80"},
		{"漢字", "??"},
	}
	for _, tt := range tests {
		if got := encodeWindows1252(tt.in); got != tt.want {
			t.Errorf("encode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
