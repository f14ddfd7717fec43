package mcp

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/lvillar/pdftemplate/doctpl"
	"github.com/lvillar/pdftemplate/internal/config"
	"github.com/lvillar/pdftemplate/internal/fileio"
	"github.com/lvillar/pdftemplate/unit"
)

// Resource URIs.
const (
	PageSizesURI       = "pdftemplate://page-sizes"
	ExampleDocumentURI = "pdftemplate://example-document"
	OutputURI          = "pdftemplate://output"
)

// RegisterDefaultResources adds the built-in resources to the server.
// Output files are read from the configured output directory.
func RegisterDefaultResources(s *Server, cfg *config.Config) {
	if cfg == nil {
		cfg = config.Default()
	}
	s.AddResource(Resource{
		URI:         PageSizesURI,
		Name:        "Page sizes",
		Description: "Supported PageSize values with their portrait dimensions in cm.",
		MIMEType:    "application/json",
		Handler:     handlePageSizesResource,
	})

	s.AddResource(Resource{
		URI:         ExampleDocumentURI,
		Name:        "Example document",
		Description: "A document description using every element kind, ready to pass to create_pdf.",
		MIMEType:    "application/json",
		Handler:     handleExampleResource,
	})

	out := &outputResource{dir: cfg.Output.Directory, files: fileio.NewLocal(nil)}
	s.AddResource(Resource{
		URI:  OutputURI,
		Name: "Rendered PDF",
		Description: "A PDF previously written by create_pdf. Pass the file name as a query parameter: " +
			OutputURI + "?name=report.pdf",
		MIMEType: "application/pdf",
		Handler:  out.read,
	})
}

// pageSize is one entry of the page-sizes resource.
type pageSize struct {
	Name     string  `json:"name"`
	WidthCm  float64 `json:"widthCm"`
	HeightCm float64 `json:"heightCm"`
}

func handlePageSizesResource(uri string) ([]ResourceContent, error) {
	var sizes []pageSize
	for size := doctpl.A0; ; size++ {
		w, h, err := doctpl.PageDimensions(size)
		if err != nil {
			break
		}
		sizes = append(sizes, pageSize{
			Name:     size.String(),
			WidthCm:  roundCm(unit.PtToCm(w)),
			HeightCm: roundCm(unit.PtToCm(h)),
		})
	}
	data, err := json.MarshalIndent(sizes, "", "  ")
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{URI: uri, MIMEType: "application/json", Text: string(data)}}, nil
}

func roundCm(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

const exampleDocument = `{
  "PageSize": "A4",
  "PageOrientation": "Portrait",
  "Title": "Delivery note",
  "Author": "Warehouse",
  "MarginLeftInCm": 2,
  "MarginTopInCm": 3,
  "MarginRightInCm": 2,
  "MarginBottomInCm": 2.5,
  "DocumentElements": [
    {
      "TableType": "Header",
      "Columns": [
        {"Name": "Company", "WidthInCm": 13},
        {"Name": "Page", "WidthInCm": 4, "Type": "PageNum"}
      ],
      "RowData": [{"Company": "ACME Logistics", "Page": ""}]
    },
    {
      "Text": "Delivery note 4711",
      "StyleSettings": {"FontFamily": "Helvetica", "FontSizeInPt": 16, "FontStyle": "Bold", "SpacingAfterInPt": 6}
    },
    {
      "TableType": "Table",
      "HasHeaderRow": true,
      "RepeatHeaderRow": true,
      "StyleSettings": {"BorderWidthInPt": 0.5, "BorderStyle": "All"},
      "Columns": [
        {"Name": "Item", "WidthInCm": 11},
        {"Name": "Quantity", "WidthInCm": 3},
        {"Name": "Tracking", "WidthInCm": 3, "Type": "QRCode"}
      ],
      "RowData": [{"Item": "Pallet of paper", "Quantity": "4", "Tracking": "TRK-4711-1"}]
    },
    {"InsertPageBreak": true},
    {"Text": "Signed on delivery.", "StyleSettings": {"HorizontalAlignment": "Right"}}
  ]
}`

func handleExampleResource(uri string) ([]ResourceContent, error) {
	return []ResourceContent{{URI: uri, MIMEType: "application/json", Text: exampleDocument}}, nil
}

// outputResource serves files from the output directory.
type outputResource struct {
	dir   string
	files fileio.Reader
}

func (o *outputResource) read(uri string) ([]ResourceContent, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing URI: %w", err)
	}
	name := u.Query().Get("name")
	if name == "" {
		return nil, fmt.Errorf("missing 'name' parameter in URI")
	}
	// only files directly inside the output directory
	name = filepath.Base(filepath.Clean(name))
	data, err := o.files.ReadFile(filepath.Join(o.dir, name), nil)
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/pdf",
		Blob:     base64.StdEncoding.EncodeToString(data),
	}}, nil
}
