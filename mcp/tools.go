package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lvillar/pdftemplate"
	"github.com/lvillar/pdftemplate/doctpl"
	"github.com/lvillar/pdftemplate/internal/config"
	"github.com/lvillar/pdftemplate/internal/fileio"
)

// toolSet carries the configuration shared by the built-in tools.
type toolSet struct {
	cfg *config.Config
	log *slog.Logger
}

// RegisterDefaultTools adds create_pdf and validate_document to the
// server. A nil cfg uses config.Default.
func RegisterDefaultTools(s *Server, cfg *config.Config) {
	if cfg == nil {
		cfg = config.Default()
	}
	ts := &toolSet{cfg: cfg, log: s.log}
	s.AddTool(ts.createPDFTool())
	s.AddTool(ts.validateDocumentTool())
}

var documentSchema = map[string]any{
	"type": []string{"object", "string"},
	"description": "Document description: PageSize, PageOrientation, Title, Author, margins in cm " +
		"and DocumentElements (paragraphs, images, tables, page breaks). A JSON string is accepted too.",
}

func (ts *toolSet) createPDFTool() Tool {
	return Tool{
		Name: "create_pdf",
		Description: "Render a PDF from a JSON document description. Returns the PDF as base64; " +
			"when fileName is given the file is also written to the configured output directory.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"document": documentSchema,
				"fileName": map[string]any{
					"type":        "string",
					"description": "Optional file name. If omitted, nothing is written to disk.",
				},
				"fileExistsAction": map[string]any{
					"type":        "string",
					"enum":        []string{"Error", "Overwrite", "Rename"},
					"description": "What to do when the file exists. Defaults to the configured action.",
				},
				"includeData": map[string]any{
					"type":        "boolean",
					"description": "Return the base64 PDF even when the file is written. Defaults to true.",
				},
			},
			"required": []string{"document"},
		},
		Handler: ts.handleCreatePDF,
	}
}

// documentArg returns the document argument as JSON text.
func documentArg(args map[string]any) (string, error) {
	raw, ok := args["document"]
	if !ok || raw == nil {
		return "", fmt.Errorf("missing 'document' argument")
	}
	if s, ok := raw.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	return string(data), nil
}

func (ts *toolSet) handleCreatePDF(ctx context.Context, args map[string]any) (ToolResult, error) {
	doc, err := documentArg(args)
	if err != nil {
		return ToolResult{}, err
	}

	file := ts.cfg.FileProperties("")
	file.SaveToDisk = false
	if name, ok := args["fileName"].(string); ok && name != "" {
		if err := checkFileName(name); err != nil {
			return ToolResult{}, err
		}
		file.SaveToDisk = true
		file.FileName = name
	}
	if a, ok := args["fileExistsAction"].(string); ok && a != "" {
		action, err := fileio.ParseExistsAction(a)
		if err != nil {
			return ToolResult{}, err
		}
		file.FileExistsAction = action
	}
	includeData := true
	if v, ok := args["includeData"].(bool); ok {
		includeData = v
	}

	opts := pdftemplate.DefaultOptions()
	opts.GetResultAsByteArray = includeData || !file.SaveToDisk

	out, err := pdftemplate.CreatePdf(ctx, file, pdftemplate.DocumentContent{ContentJson: doc}, opts, ts.cfg.Options(ts.log)...)
	if err != nil {
		return ToolResult{}, err
	}

	summary := fmt.Sprintf("PDF created successfully (%d bytes)", len(out.ResultAsByteArray))
	if out.FileName != "" {
		summary = fmt.Sprintf("PDF created successfully: %s", out.FileName)
	}
	result := ToolResult{Content: []ContentBlock{{Type: "text", Text: summary}}}
	if out.ResultAsByteArray != nil {
		result.Content = append(result.Content, ContentBlock{
			Type:     "resource",
			MIMEType: "application/pdf",
			Data:     base64.StdEncoding.EncodeToString(out.ResultAsByteArray),
		})
	}
	return result, nil
}

// checkFileName accepts plain file names only; files are always written to
// the configured output directory.
func checkFileName(name string) error {
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("fileName %q must not contain a directory", name)
	}
	return nil
}

func (ts *toolSet) validateDocumentTool() Tool {
	return Tool{
		Name: "validate_document",
		Description: "Check a JSON document description without writing anything. Reports the page, " +
			"table and image counts of the layout, or the first input, layout or resource error.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"document": documentSchema,
			},
			"required": []string{"document"},
		},
		Handler: ts.handleValidateDocument,
	}
}

// validationReport is the JSON body returned by validate_document.
type validationReport struct {
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	Pages      int    `json:"pages,omitempty"`
	Sections   int    `json:"sections,omitempty"`
	Paragraphs int    `json:"paragraphs,omitempty"`
	Tables     int    `json:"tables,omitempty"`
	Images     int    `json:"images,omitempty"`
}

func (ts *toolSet) handleValidateDocument(ctx context.Context, args map[string]any) (ToolResult, error) {
	text, err := documentArg(args)
	if err != nil {
		return ToolResult{}, err
	}

	report := validationReport{Valid: true}
	state, err := validate(ctx, []byte(text), ts.cfg, ts.log)
	if err != nil {
		report = validationReport{Valid: false, Error: err.Error()}
	} else {
		report.Pages = state.Pages
		report.Sections = state.Section
		report.Paragraphs = state.Paragraphs
		report.Tables = state.Tables
		report.Images = len(state.Images)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return ToolResult{}, err
	}
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: string(data)}},
		IsError: !report.Valid,
	}, nil
}

// validate lays the document out with the configured fonts and discards
// the output.
func validate(ctx context.Context, data []byte, cfg *config.Config, log *slog.Logger) (*doctpl.State, error) {
	return pdftemplate.ValidateDocument(ctx, pdftemplate.DocumentContent{ContentJson: string(data)},
		cfg.Output.Unicode, cfg.Options(log)...)
}
