package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lvillar/pdftemplate/internal/config"
)

func sendRequest(t *testing.T, s *Server, method string, id int, params any) response {
	t.Helper()

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}

	reqBytes, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	reqBytes = append(reqBytes, '\n')

	var output bytes.Buffer
	s.input = bytes.NewReader(reqBytes)
	s.output = &output

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var resp response
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling response %q: %v", output.String(), err)
	}
	return resp
}

// toolContent returns the content blocks and error flag of a tools/call
// response.
func toolContent(t *testing.T, resp response) ([]ContentBlock, bool) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatal(err)
	}
	var result ToolResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decoding tool result %s: %v", data, err)
	}
	return result.Content, result.IsError
}

func testServer(cfg *config.Config) *Server {
	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s, cfg)
	RegisterDefaultResources(s, cfg)
	return s
}

var helloDocument = map[string]any{
	"PageSize":         "A4",
	"MarginLeftInCm":   2,
	"MarginRightInCm":  2,
	"MarginTopInCm":    2,
	"MarginBottomInCm": 2,
	"DocumentElements": []any{
		map[string]any{"Text": "Hello MCP"},
		map[string]any{"InsertPageBreak": true},
		map[string]any{"Text": "Second page"},
	},
}

func TestServerInitialize(t *testing.T) {
	s := NewServerWithIO(nil, nil, WithVersion("1.2.3"))
	RegisterDefaultTools(s, nil)

	resp := sendRequest(t, s, "initialize", 1, map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1.0"},
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatal("result is not a map")
	}

	if result["protocolVersion"] != ProtocolVersion {
		t.Fatalf("unexpected protocol version: %v", result["protocolVersion"])
	}

	serverInfo, ok := result["serverInfo"].(map[string]any)
	if !ok {
		t.Fatal("missing serverInfo")
	}
	if serverInfo["name"] != "pdftemplate-mcp" || serverInfo["version"] != "1.2.3" {
		t.Fatalf("unexpected server info: %v", serverInfo)
	}
}

func TestServerToolsList(t *testing.T) {
	s := testServer(nil)

	resp := sendRequest(t, s, "tools/list", 2, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result := resp.Result.(map[string]any)
	tools, ok := result["tools"].([]any)
	if !ok {
		t.Fatal("tools is not an array")
	}

	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	if strings.Join(names, ",") != "create_pdf,validate_document" {
		t.Fatalf("unexpected tools %v", names)
	}
}

func TestServerResourcesList(t *testing.T) {
	s := testServer(nil)

	resp := sendRequest(t, s, "resources/list", 3, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result := resp.Result.(map[string]any)
	resources, ok := result["resources"].([]any)
	if !ok {
		t.Fatal("resources is not an array")
	}
	if len(resources) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(resources))
	}
}

func TestServerPing(t *testing.T) {
	s := NewServerWithIO(nil, nil)

	resp := sendRequest(t, s, "ping", 4, nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
}

func TestServerUnknownMethod(t *testing.T) {
	s := NewServerWithIO(nil, nil)

	resp := sendRequest(t, s, "nonexistent/method", 5, nil)
	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected error code -32601, got %d", resp.Error.Code)
	}
}

func TestServerUnknownTool(t *testing.T) {
	s := testServer(nil)

	resp := sendRequest(t, s, "tools/call", 6, map[string]any{
		"name":      "nonexistent_tool",
		"arguments": map[string]any{},
	})
	if resp.Error == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestServerParseError(t *testing.T) {
	var output bytes.Buffer
	s := NewServerWithIO(strings.NewReader("{not json\n"), &output)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	var resp response
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil || resp.Error.Code != codeParseError {
		t.Fatalf("expected parse error, got %+v", resp)
	}
}

func TestServerCreatePDFTool(t *testing.T) {
	s := testServer(nil)

	resp := sendRequest(t, s, "tools/call", 7, map[string]any{
		"name":      "create_pdf",
		"arguments": map[string]any{"document": helloDocument},
	})

	content, isError := toolContent(t, resp)
	if isError {
		t.Fatalf("tool failed: %+v", content)
	}
	if len(content) != 2 || !strings.Contains(content[0].Text, "PDF created successfully") {
		t.Fatalf("unexpected content: %+v", content)
	}
	pdf, err := base64.StdEncoding.DecodeString(content[1].Data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) || content[1].MIMEType != "application/pdf" {
		t.Errorf("resource block does not carry a PDF")
	}
}

func TestServerCreatePDFToolAcceptsString(t *testing.T) {
	s := testServer(nil)
	doc, _ := json.Marshal(helloDocument)

	resp := sendRequest(t, s, "tools/call", 8, map[string]any{
		"name":      "create_pdf",
		"arguments": map[string]any{"document": string(doc)},
	})
	if _, isError := toolContent(t, resp); isError {
		t.Fatal("string document rejected")
	}
}

func TestServerCreatePDFToWriteAndReadBack(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Directory = t.TempDir()
	cfg.Output.FileExistsAction = "Rename"
	s := testServer(cfg)

	for i, want := range []string{"out.pdf", "out_(1).pdf"} {
		resp := sendRequest(t, s, "tools/call", 9+i, map[string]any{
			"name": "create_pdf",
			"arguments": map[string]any{
				"document":    helloDocument,
				"fileName":    "out.pdf",
				"includeData": false,
			},
		})
		content, isError := toolContent(t, resp)
		if isError {
			t.Fatalf("tool failed: %+v", content)
		}
		if len(content) != 1 || !strings.Contains(content[0].Text, want) {
			t.Fatalf("unexpected content: %+v", content)
		}
		if _, err := os.Stat(filepath.Join(cfg.Output.Directory, want)); err != nil {
			t.Fatal(err)
		}
	}

	resp := sendRequest(t, s, "resources/read", 11, map[string]any{"uri": OutputURI + "?name=out.pdf"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Data)
	}
	data, _ := json.Marshal(resp.Result)
	var result struct {
		Contents []ResourceContent `json:"contents"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	pdf, err := base64.StdEncoding.DecodeString(result.Contents[0].Blob)
	if err != nil || !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Errorf("output resource is not a PDF: %v", err)
	}

	resp = sendRequest(t, s, "resources/read", 12, map[string]any{"uri": OutputURI + "?name=../missing.pdf"})
	if resp.Error == nil {
		t.Error("expected error for missing output file")
	}
}

func TestServerCreatePDFToolLayoutError(t *testing.T) {
	s := testServer(nil)

	resp := sendRequest(t, s, "tools/call", 13, map[string]any{
		"name": "create_pdf",
		"arguments": map[string]any{"document": map[string]any{
			"PageSize": "A4",
			"DocumentElements": []any{map[string]any{
				"TableType": "Table",
				"Columns":   []any{map[string]any{"Name": "Wide", "WidthInCm": 25}},
			}},
		}},
	})
	content, isError := toolContent(t, resp)
	if !isError || !strings.Contains(content[0].Text, "page allows table to be 21.00 cm wide") {
		t.Fatalf("expected layout error, got %+v", content)
	}
}

func TestServerValidateDocument(t *testing.T) {
	s := testServer(nil)

	resp := sendRequest(t, s, "tools/call", 14, map[string]any{
		"name":      "validate_document",
		"arguments": map[string]any{"document": helloDocument},
	})
	content, isError := toolContent(t, resp)
	if isError {
		t.Fatalf("valid document reported as invalid: %+v", content)
	}
	var report validationReport
	if err := json.Unmarshal([]byte(content[0].Text), &report); err != nil {
		t.Fatal(err)
	}
	if !report.Valid || report.Pages != 2 || report.Sections != 2 || report.Paragraphs != 2 {
		t.Errorf("unexpected report %+v", report)
	}

	resp = sendRequest(t, s, "tools/call", 15, map[string]any{
		"name":      "validate_document",
		"arguments": map[string]any{"document": `{"DocumentElements": [{"Bogus": true}]}`},
	})
	content, isError = toolContent(t, resp)
	if !isError || !strings.Contains(content[0].Text, `"valid": false`) {
		t.Errorf("expected invalid report, got %+v", content)
	}
}

func TestServerMissingDocument(t *testing.T) {
	s := testServer(nil)

	resp := sendRequest(t, s, "tools/call", 16, map[string]any{
		"name":      "create_pdf",
		"arguments": map[string]any{},
	})
	content, isError := toolContent(t, resp)
	if !isError || !strings.Contains(content[0].Text, "missing 'document'") {
		t.Fatalf("unexpected content: %+v", content)
	}
}

func TestResourcePageSizes(t *testing.T) {
	s := testServer(nil)

	resp := sendRequest(t, s, "resources/read", 17, map[string]any{"uri": PageSizesURI})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	data, _ := json.Marshal(resp.Result)
	var result struct {
		Contents []ResourceContent `json:"contents"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	var sizes []pageSize
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &sizes); err != nil {
		t.Fatal(err)
	}
	if len(sizes) != 11 {
		t.Fatalf("got %d page sizes, want 11", len(sizes))
	}
	a4 := sizes[4]
	if a4.Name != "A4" || a4.WidthCm != 21 || a4.HeightCm != 29.7 {
		t.Errorf("A4 = %+v", a4)
	}
}

func TestExampleDocumentIsValid(t *testing.T) {
	state, err := validate(context.Background(), []byte(exampleDocument), config.Default(), NewServerWithIO(nil, nil).log)
	if err != nil {
		t.Fatalf("example document: %v", err)
	}
	if state.Pages != 2 || state.Tables != 2 {
		t.Errorf("unexpected state: pages=%d tables=%d", state.Pages, state.Tables)
	}
}

func TestValidateScansFontDirs(t *testing.T) {
	cfg := config.Default()
	cfg.Fonts.Dirs = []string{filepath.Join(t.TempDir(), "no-fonts-here")}
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	if _, err := validate(context.Background(), []byte(exampleDocument), cfg, log); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "reading font directory") {
		t.Errorf("font directory not consulted, logs: %s", logs.String())
	}
}

func TestServerCreatePDFRejectsPathInFileName(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Output.Directory = filepath.Join(root, "out")
	if err := os.Mkdir(cfg.Output.Directory, 0o755); err != nil {
		t.Fatal(err)
	}
	s := testServer(cfg)

	for i, name := range []string{"../escaped.pdf", "sub/x.pdf", ".."} {
		resp := sendRequest(t, s, "tools/call", 30+i, map[string]any{
			"name":      "create_pdf",
			"arguments": map[string]any{"document": helloDocument, "fileName": name},
		})
		content, isError := toolContent(t, resp)
		if !isError {
			t.Errorf("%q: expected tool error, got %+v", name, content)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "escaped.pdf")); !os.IsNotExist(err) {
		t.Errorf("file written outside the output directory: %v", err)
	}
}

func TestServerMultipleRequests(t *testing.T) {
	requests := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":4,"method":"ping"}`,
	}

	input := strings.Join(requests, "\n") + "\n"
	var output bytes.Buffer

	s := NewServerWithIO(strings.NewReader(input), &output)
	RegisterDefaultTools(s, nil)
	RegisterDefaultResources(s, nil)

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 responses, got %d: %s", len(lines), output.String())
	}

	for i, line := range lines {
		var resp response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("response %d: unmarshal error: %v\nline: %s", i, err, line)
		}
		if resp.Error != nil {
			t.Errorf("response %d: unexpected error: %s", i, resp.Error.Message)
		}
	}
}

func TestServerRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var output bytes.Buffer
	s := NewServerWithIO(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &output)
	if err := s.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if output.Len() != 0 {
		t.Errorf("response written after cancellation: %s", output.String())
	}
}

func TestToolAddTool(t *testing.T) {
	s := NewServerWithIO(nil, nil)

	customTool := Tool{
		Name:        "custom_tool",
		Description: "A custom test tool",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(ctx context.Context, args map[string]any) (ToolResult, error) {
			return ToolResult{
				Content: []ContentBlock{{Type: "text", Text: "custom result"}},
			}, nil
		},
	}

	s.AddTool(customTool)

	resp := sendRequest(t, s, "tools/call", 1, map[string]any{
		"name":      "custom_tool",
		"arguments": map[string]any{},
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	resultBytes, _ := json.Marshal(resp.Result)
	if !strings.Contains(string(resultBytes), "custom result") {
		t.Fatalf("unexpected result: %s", string(resultBytes))
	}
}
