package doctpl

import (
	"context"
	"io"
)

// Render parses a JSON document description and writes the resulting PDF
// to w.
func Render(w io.Writer, jsonTemplate []byte, opts ...Option) error {
	doc, err := Parse(jsonTemplate)
	if err != nil {
		return err
	}
	_, err = RenderDocument(context.Background(), w, doc, opts...)
	return err
}

// RenderDocument lays out doc and writes the PDF to w. Nothing is written
// unless the whole document laid out successfully. The returned state
// describes the finished layout.
func RenderDocument(ctx context.Context, w io.Writer, doc *DocumentDefinition, opts ...Option) (*State, error) {
	a, err := NewAssembler(doc, opts...)
	if err != nil {
		return nil, err
	}
	state, err := a.Run(ctx)
	if err != nil {
		return state, err
	}
	return state, a.Output(w)
}
