package doctpl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PageSize names a standard paper size.
type PageSize int

const (
	A0 PageSize = iota
	A1
	A2
	A3
	A4
	A5
	A6
	B5
	Ledger
	Legal
	Letter
)

// Orientation is the page orientation.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

// FontStyle selects a font face. Underline is exclusive of bold and italic.
type FontStyle int

const (
	Regular FontStyle = iota
	Bold
	Italic
	BoldItalic
	Underline
)

// HAlign is a horizontal alignment.
type HAlign int

const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignJustify
	AlignRight
)

// VAlign is a vertical alignment.
type VAlign int

const (
	VAlignTop VAlign = iota
	VAlignCenter
	VAlignBottom
)

// BorderKind selects which cell edges receive a border.
type BorderKind int

const (
	BorderNone BorderKind = iota
	BorderTop
	BorderBottom
	BorderAll
)

// TableType is the role of a table.
type TableType int

const (
	TableBody TableType = iota
	TableHeader
	TableFooter
)

// ColumnType is the content kind of a table column.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnImage
	ColumnPageNum
	ColumnQRCode
	ColumnPDF417
)

var (
	pageSizeNames    = []string{"A0", "A1", "A2", "A3", "A4", "A5", "A6", "B5", "Ledger", "Legal", "Letter"}
	orientationNames = []string{"Portrait", "Landscape"}
	fontStyleNames   = []string{"Regular", "Bold", "Italic", "BoldItalic", "Underline"}
	hAlignNames      = []string{"Left", "Center", "Justify", "Right"}
	vAlignNames      = []string{"Top", "Center", "Bottom"}
	borderKindNames  = []string{"None", "Top", "Bottom", "All"}
	tableTypeNames   = []string{"Table", "Header", "Footer"}
	columnTypeNames  = []string{"Text", "Image", "PageNum", "QRCode", "PDF417"}
)

// decodeEnum accepts a case-insensitive name or an ordinal number.
func decodeEnum(data []byte, names []string, kind string) (int, error) {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return 0, nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, kind, err)
		}
		s = strings.TrimSpace(s)
		for i, n := range names {
			if strings.EqualFold(n, s) {
				return i, nil
			}
		}
		if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < len(names) {
			return i, nil
		}
		return 0, fmt.Errorf("%w: unknown %s %q", ErrInvalidDocument, kind, s)
	}
	i, err := strconv.Atoi(string(data))
	if err != nil || i < 0 || i >= len(names) {
		return 0, fmt.Errorf("%w: invalid %s %s", ErrInvalidDocument, kind, data)
	}
	return i, nil
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return strconv.Itoa(i)
	}
	return names[i]
}

func (v PageSize) String() string { return enumName(pageSizeNames, int(v)) }

func (v PageSize) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *PageSize) UnmarshalJSON(data []byte) error {
	i, err := decodeEnum(data, pageSizeNames, "page size")
	*v = PageSize(i)
	return err
}

func (v Orientation) String() string { return enumName(orientationNames, int(v)) }

func (v Orientation) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Orientation) UnmarshalJSON(data []byte) error {
	i, err := decodeEnum(data, orientationNames, "page orientation")
	*v = Orientation(i)
	return err
}

func (v FontStyle) String() string { return enumName(fontStyleNames, int(v)) }

func (v FontStyle) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *FontStyle) UnmarshalJSON(data []byte) error {
	i, err := decodeEnum(data, fontStyleNames, "font style")
	*v = FontStyle(i)
	return err
}

func (v HAlign) String() string { return enumName(hAlignNames, int(v)) }

func (v HAlign) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *HAlign) UnmarshalJSON(data []byte) error {
	i, err := decodeEnum(data, hAlignNames, "horizontal alignment")
	*v = HAlign(i)
	return err
}

func (v VAlign) String() string { return enumName(vAlignNames, int(v)) }

func (v VAlign) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *VAlign) UnmarshalJSON(data []byte) error {
	i, err := decodeEnum(data, vAlignNames, "vertical alignment")
	*v = VAlign(i)
	return err
}

func (v BorderKind) String() string { return enumName(borderKindNames, int(v)) }

func (v BorderKind) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *BorderKind) UnmarshalJSON(data []byte) error {
	i, err := decodeEnum(data, borderKindNames, "border style")
	*v = BorderKind(i)
	return err
}

func (v TableType) String() string { return enumName(tableTypeNames, int(v)) }

func (v TableType) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *TableType) UnmarshalJSON(data []byte) error {
	i, err := decodeEnum(data, tableTypeNames, "table type")
	*v = TableType(i)
	return err
}

func (v ColumnType) String() string { return enumName(columnTypeNames, int(v)) }

func (v ColumnType) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *ColumnType) UnmarshalJSON(data []byte) error {
	i, err := decodeEnum(data, columnTypeNames, "column type")
	*v = ColumnType(i)
	return err
}
