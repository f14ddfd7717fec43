// Package doctpl turns a declarative JSON document description into a
// paginated PDF.
//
// A document is a page setup plus a flat, ordered list of elements:
// paragraphs, images, tables and page breaks. Tables may also act as
// repeating page headers or footers. All lengths in the description are
// centimetres or points and are converted to points when consumed.
//
// Example JSON:
//
//	{
//	  "PageSize": "A4",
//	  "PageOrientation": "Portrait",
//	  "MarginLeftInCm": 2.5, "MarginTopInCm": 2.5,
//	  "MarginRightInCm": 2.5, "MarginBottomInCm": 2.5,
//	  "DocumentElements": [
//	    {"Text": "Hello  world", "StyleSettings": {"FontFamily": "Arial", "FontSizeInPt": 12}},
//	    {"InsertPageBreak": true}
//	  ]
//	}
package doctpl

// DocumentDefinition is the top-level description of a PDF.
type DocumentDefinition struct {
	PageSize         PageSize    `json:"PageSize"`
	PageOrientation  Orientation `json:"PageOrientation"`
	Title            string      `json:"Title,omitempty"`
	Author           string      `json:"Author,omitempty"`
	Subject          string      `json:"Subject,omitempty"`
	MarginLeftInCm   float64     `json:"MarginLeftInCm"`
	MarginTopInCm    float64     `json:"MarginTopInCm"`
	MarginRightInCm  float64     `json:"MarginRightInCm"`
	MarginBottomInCm float64     `json:"MarginBottomInCm"`

	// Distance of repeating header and footer tables from the page edge.
	// Nil means 1.25 cm.
	HeaderDistanceInCm *float64 `json:"HeaderDistanceInCm,omitempty"`
	FooterDistanceInCm *float64 `json:"FooterDistanceInCm,omitempty"`

	ShowPageNumbers   bool   `json:"ShowPageNumbers,omitempty"`
	BackgroundPdfPath string `json:"BackgroundPdfPath,omitempty"`

	DocumentElements Elements `json:"DocumentElements"`
}

// Element is one of *Paragraph, *Image, *Table or *PageBreak.
type Element interface {
	element()
}

// Paragraph is flowed text. Whitespace inside the text is significant.
type Paragraph struct {
	Text          string         `json:"Text"`
	StyleSettings *StyleSettings `json:"StyleSettings,omitempty"`
}

// Image is a page-level image. Zero width or height means automatic.
type Image struct {
	ImagePath       string  `json:"ImagePath"`
	Alignment       HAlign  `json:"Alignment"`
	LockAspectRatio bool    `json:"LockAspectRatio"`
	ImageWidthInCm  float64 `json:"ImageWidthInCm"`
	ImageHeightInCm float64 `json:"ImageHeightInCm"`
}

// Table is a fixed-column table, either in the document flow or repeated
// on every page as a header or footer.
type Table struct {
	TableType       TableType      `json:"TableType"`
	HasHeaderRow    bool           `json:"HasHeaderRow"`
	RepeatHeaderRow bool           `json:"RepeatHeaderRow,omitempty"`
	StyleSettings   *StyleSettings `json:"StyleSettings,omitempty"`
	Columns         []Column       `json:"Columns"`
	RowData         []RowData      `json:"RowData"`
}

// PageBreak starts a new page with the document's page setup.
type PageBreak struct {
	InsertPageBreak bool `json:"InsertPageBreak"`
}

func (*Paragraph) element() {}
func (*Image) element()     {}
func (*Table) element()     {}
func (*PageBreak) element() {}

// Column defines a table column.
type Column struct {
	Name      string     `json:"Name"`
	WidthInCm float64    `json:"WidthInCm"`
	Type      ColumnType `json:"Type"`
}

// StyleSettings controls the font, alignment, spacing and border of a
// paragraph or table.
type StyleSettings struct {
	FontFamily          string     `json:"FontFamily,omitempty"`
	FontSizeInPt        float64    `json:"FontSizeInPt,omitempty"`
	FontStyle           FontStyle  `json:"FontStyle"`
	LineSpacingInPt     float64    `json:"LineSpacingInPt,omitempty"`
	HorizontalAlignment *HAlign    `json:"HorizontalAlignment,omitempty"`
	Alignment           *HAlign    `json:"Alignment,omitempty"`
	VerticalAlignment   *VAlign    `json:"VerticalAlignment,omitempty"`
	SpacingBeforeInPt   float64    `json:"SpacingBeforeInPt,omitempty"`
	SpacingAfterInPt    float64    `json:"SpacingAfterInPt,omitempty"`
	BorderWidthInPt     float64    `json:"BorderWidthInPt,omitempty"`
	BorderStyle         BorderKind `json:"BorderStyle"`
}

// horizontal returns HorizontalAlignment, falling back to Alignment.
func (s *StyleSettings) horizontal() HAlign {
	switch {
	case s.HorizontalAlignment != nil:
		return *s.HorizontalAlignment
	case s.Alignment != nil:
		return *s.Alignment
	}
	return AlignLeft
}

func (s *StyleSettings) vertical() VAlign {
	if s.VerticalAlignment != nil {
		return *s.VerticalAlignment
	}
	return VAlignBottom
}
