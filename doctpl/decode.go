package doctpl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Elements is the ordered element list of a document. Each JSON object is
// mapped to an element kind by the first marker property it carries, in
// the order TableType, Text, ImagePath, InsertPageBreak.
type Elements []Element

// markers lists element discriminators in precedence order.
var markers = []struct {
	name string
	new  func() Element
}{
	{"TableType", func() Element { return &Table{} }},
	{"Text", func() Element { return &Paragraph{} }},
	{"ImagePath", func() Element { return &Image{} }},
	{"InsertPageBreak", func() Element { return &PageBreak{} }},
}

func (e *Elements) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("%w: DocumentElements: %v", ErrInvalidDocument, err)
	}
	out := make(Elements, 0, len(raws))
	for i, raw := range raws {
		el, err := decodeElement(raw)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, el)
	}
	*e = out
	return nil
}

func decodeElement(raw json.RawMessage) (Element, error) {
	var props map[string]json.RawMessage
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	for _, m := range markers {
		for key := range props {
			if !strings.EqualFold(key, m.name) {
				continue
			}
			el := m.new()
			if err := json.Unmarshal(raw, el); err != nil {
				return nil, asInvalid(err)
			}
			return el, nil
		}
	}
	return nil, fmt.Errorf("%w: element has none of TableType, Text, ImagePath or InsertPageBreak", ErrInvalidDocument)
}

// RowData holds one table row. Values are kept in source order and are
// matched to columns by position.
type RowData []Field

// Field is one column-name to cell-text pair of a row.
type Field struct {
	Key   string
	Value string
}

// Get returns the value stored under key.
func (r RowData) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func (r *RowData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: RowData: %v", ErrInvalidDocument, err)
	}
	if tok == nil {
		*r = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: RowData entries must be objects", ErrInvalidDocument)
	}
	var row RowData
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: RowData: %v", ErrInvalidDocument, err)
		}
		key, _ := kt.(string)
		vt, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: RowData: %v", ErrInvalidDocument, err)
		}
		var val string
		switch v := vt.(type) {
		case nil:
		case string:
			val = v
		case json.Number:
			val = v.String()
		case bool:
			val = fmt.Sprint(v)
		default:
			return fmt.Errorf("%w: RowData value for %q must be a scalar", ErrInvalidDocument, key)
		}
		row = append(row, Field{Key: key, Value: val})
	}
	*r = row
	return nil
}

func (r RowData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Parse decodes a JSON document description. Every failure matches
// ErrInvalidDocument.
func Parse(data []byte) (*DocumentDefinition, error) {
	var doc DocumentDefinition
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, asInvalid(err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks invariants that JSON decoding cannot express.
func (d *DocumentDefinition) Validate() error {
	margins := []struct {
		name string
		v    float64
	}{
		{"MarginLeftInCm", d.MarginLeftInCm},
		{"MarginTopInCm", d.MarginTopInCm},
		{"MarginRightInCm", d.MarginRightInCm},
		{"MarginBottomInCm", d.MarginBottomInCm},
	}
	for _, m := range margins {
		if m.v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %g", ErrInvalidDocument, m.name, m.v)
		}
	}
	for i, el := range d.DocumentElements {
		if el == nil {
			return fmt.Errorf("%w: element %d is null", ErrInvalidDocument, i)
		}
	}
	return nil
}

func asInvalid(err error) error {
	if errors.Is(err, ErrInvalidDocument) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
}
