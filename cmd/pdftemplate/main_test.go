package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	flag "github.com/spf13/pflag"

	"github.com/lvillar/pdftemplate"
	"github.com/lvillar/pdftemplate/internal/config"
)

const helloDoc = `{"PageSize": "A4", "MarginLeftInCm": 2, "MarginRightInCm": 2,
	"DocumentElements": [{"Text": "Hello"}, {"InsertPageBreak": true}, {"Text": "Again"}]}`

const wideDoc = `{"PageSize": "A4", "DocumentElements": [
	{"TableType": "Table", "Columns": [{"Name": "Wide", "WidthInCm": 30}]}]}`

type testIO struct {
	stdout, stderr bytes.Buffer
	deps           *Deps
}

func newTestIO(stdin string) *testIO {
	t := &testIO{}
	t.deps = &Deps{
		Stdin:      strings.NewReader(stdin),
		Stdout:     &t.stdout,
		Stderr:     &t.stderr,
		IsTerminal: func(io.Writer) bool { return false },
	}
	return t
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderWritesNextToOutputDir(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	doc := writeFile(t, in, "invoice.json", helloDoc)

	tio := newTestIO("")
	if err := run(context.Background(), []string{"render", "-d", out, doc}, tio.deps); err != nil {
		t.Fatalf("render: %v\n%s", err, tio.stderr.String())
	}
	want := filepath.Join(out, "invoice.pdf")
	if got := strings.TrimSpace(tio.stdout.String()); got != want {
		t.Errorf("printed %q, want %q", got, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output is not a PDF")
	}
}

func TestRenderIfExists(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "doc.json", helloDoc)
	target := filepath.Join(dir, "out", "doc.pdf")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatal(err)
	}

	args := []string{"render", "-o", target, doc}
	if err := run(context.Background(), args, newTestIO("").deps); err != nil {
		t.Fatal(err)
	}
	err := run(context.Background(), args, newTestIO("").deps)
	if !errors.Is(err, pdftemplate.ErrFileExists) || exitCodeFor(err) != ExitIO {
		t.Fatalf("second render: %v (exit %d)", err, exitCodeFor(err))
	}

	tio := newTestIO("")
	if err := run(context.Background(), append([]string{"render", "--if-exists", "rename"}, args[1:]...), tio.deps); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(tio.stdout.String()); got != filepath.Join(dir, "out", "doc_(1).pdf") {
		t.Errorf("renamed to %q", got)
	}
}

func TestRenderStdinToStdout(t *testing.T) {
	dir := t.TempDir()
	tio := newTestIO(helloDoc)
	if err := run(context.Background(), []string{"render", "--stdout", "-d", dir, "-"}, tio.deps); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(tio.stdout.Bytes(), []byte("%PDF-")) {
		t.Errorf("stdout does not carry a PDF")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("file written although --stdout was given")
	}
}

func TestRenderRefusesTerminal(t *testing.T) {
	tio := newTestIO(helloDoc)
	tio.deps.IsTerminal = func(io.Writer) bool { return true }
	err := run(context.Background(), []string{"render", "--stdout", "-"}, tio.deps)
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestRenderLayoutError(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "wide.json", wideDoc)
	err := run(context.Background(), []string{"render", "-q", doc}, newTestIO("").deps)
	if exitCodeFor(err) != ExitLayout {
		t.Fatalf("exit code %d for %v", exitCodeFor(err), err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "wide.pdf")); !os.IsNotExist(statErr) {
		t.Errorf("output file exists after a layout error")
	}
}

func TestRenderUsesConfig(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "rendered")
	if err := os.Mkdir(out, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeFile(t, dir, "pdftemplate.yaml", "output:\n  directory: "+out+"\n  compression: false\n")
	doc := writeFile(t, dir, "report.json", helloDoc)

	tio := newTestIO("")
	if err := run(context.Background(), []string{"render", "--config", cfgPath, doc}, tio.deps); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(out, "report.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("(Hello)")) {
		t.Errorf("uncompressed output does not contain the paragraph text")
	}
}

func TestRenderUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no command", nil, ExitUsage},
		{"unknown command", []string{"draw"}, ExitUsage},
		{"no document", []string{"render"}, ExitUsage},
		{"unknown flag", []string{"render", "--colour", "x.json"}, ExitUsage},
		{"bad exists action", []string{"render", "--if-exists", "replace", "x.json"}, ExitUsage},
		{"missing input", []string{"render", "/does/not/exist.json"}, ExitIO},
		{"missing config", []string{"render", "-c", "/does/not/exist.yaml", "x.json"}, ExitIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, newTestIO("").deps)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := exitCodeFor(err); got != tt.code {
				t.Errorf("exit code = %d, want %d (%v)", got, tt.code, err)
			}
		})
	}
}

func TestHelp(t *testing.T) {
	err := run(context.Background(), []string{"render", "--help"}, newTestIO("").deps)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
	tio := newTestIO("")
	if err := run(context.Background(), []string{"help"}, tio.deps); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tio.stdout.String(), "validate") {
		t.Errorf("usage lacks commands: %s", tio.stdout.String())
	}
}

func TestValidate(t *testing.T) {
	tio := newTestIO(helloDoc)
	if err := run(context.Background(), []string{"validate", "-"}, tio.deps); err != nil {
		t.Fatal(err)
	}
	if got := tio.stdout.String(); !strings.HasPrefix(got, "ok: 2 pages, 2 sections, 2 paragraphs") {
		t.Errorf("unexpected report %q", got)
	}

	err := run(context.Background(), []string{"validate", "-"}, newTestIO(`{"DocumentElements": [{}]}`).deps)
	if !errors.Is(err, pdftemplate.ErrInvalidDocument) || exitCodeFor(err) != ExitUsage {
		t.Errorf("invalid document: %v", err)
	}

	err = run(context.Background(), []string{"validate", "-"}, newTestIO(wideDoc).deps)
	if exitCodeFor(err) != ExitLayout {
		t.Errorf("wide table: %v", err)
	}
}

func TestValidateUsesFontDirs(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "fonts")
	tio := newTestIO(helloDoc)
	if err := run(context.Background(), []string{"validate", "--font-dir", missing, "-"}, tio.deps); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tio.stderr.String(), "reading font directory") {
		t.Errorf("font directory not scanned, stderr: %s", tio.stderr.String())
	}
}

func TestMCP(t *testing.T) {
	req := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"
	tio := newTestIO(req)
	if err := run(context.Background(), []string{"mcp", "-q"}, tio.deps); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(tio.stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d responses: %s", len(lines), tio.stdout.String())
	}
	var resp struct {
		Result struct {
			ServerInfo struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Result.ServerInfo.Name != "pdftemplate-mcp" {
		t.Errorf("server name = %q", resp.Result.ServerInfo.Name)
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct{ input, output, want string }{
		{"docs/report.json", "", "report.pdf"},
		{"-", "", "document.pdf"},
		{"a.json", "out/custom.pdf", "custom.pdf"},
		{"noext", "", "noext.pdf"},
	}
	for _, tt := range tests {
		if got := outputName(tt.input, tt.output); got != tt.want {
			t.Errorf("outputName(%q, %q) = %q, want %q", tt.input, tt.output, got, tt.want)
		}
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneral},
		{config.ErrInvalidConfig, ExitUsage},
		{pdftemplate.ErrInvalidDocument, ExitUsage},
		{pdftemplate.ErrResourceNotFound, ExitIO},
		{pdftemplate.ErrLayout, ExitLayout},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
