package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/lvillar/pdftemplate"
	"github.com/lvillar/pdftemplate/internal/config"
	"github.com/lvillar/pdftemplate/mcp"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	verbose bool
	quiet   bool
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "YAML configuration file")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug details")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "log errors only")
}

// load reads the configuration and builds the logger. Logs go to stderr.
func (f *commonFlags) load(deps *Deps) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case f.quiet:
		cfg.Log.Level = "error"
	case f.verbose:
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Logger(deps.Stderr), nil
}

// parseFlagSet parses args and marks flag errors as usage errors.
func parseFlagSet(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return err
}

// renderFlags holds the flags of the render command.
type renderFlags struct {
	common     commonFlags
	output     string
	dir        string
	ifExists   string
	fontDirs   []string
	stdout     bool
	noUnicode  bool
	noCompress bool
}

func parseRenderFlags(args []string, stderr io.Writer) (*renderFlags, *flag.FlagSet, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &renderFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file (default: input name with .pdf)")
	fs.StringVarP(&f.dir, "dir", "d", "", "output directory (overrides config)")
	fs.StringVar(&f.ifExists, "if-exists", "", "when the file exists: error, overwrite or rename")
	fs.StringSliceVar(&f.fontDirs, "font-dir", nil, "directory of TrueType fonts (repeatable)")
	fs.BoolVar(&f.stdout, "stdout", false, "write the PDF to stdout instead of a file")
	fs.BoolVar(&f.noUnicode, "no-unicode", false, "use only the built-in Windows-1252 fonts")
	fs.BoolVar(&f.noCompress, "no-compress", false, "do not compress page content")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: pdftemplate render [flags] <document.json | ->")
		fs.PrintDefaults()
	}
	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

func runRender(ctx context.Context, args []string, deps *Deps) error {
	f, fs, err := parseRenderFlags(args, deps.Stderr)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: render takes exactly one document", ErrUsage)
	}
	input := fs.Arg(0)

	cfg, log, err := f.common.load(deps)
	if err != nil {
		return err
	}
	if f.dir != "" {
		cfg.Output.Directory = f.dir
	}
	if f.ifExists != "" {
		cfg.Output.FileExistsAction = f.ifExists
	}
	if f.noUnicode {
		cfg.Output.Unicode = false
	}
	if f.noCompress {
		cfg.Output.Compression = false
	}
	cfg.Fonts.Dirs = append(cfg.Fonts.Dirs, f.fontDirs...)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if f.stdout && deps.IsTerminal(deps.Stdout) {
		return fmt.Errorf("%w: refusing to write PDF data to a terminal", ErrUsage)
	}

	data, err := readInput(input, deps.Stdin)
	if err != nil {
		return err
	}

	file := cfg.FileProperties(outputName(input, f.output))
	if dir := filepath.Dir(f.output); f.output != "" && dir != "." {
		file.Directory = dir
	}
	file.SaveToDisk = !f.stdout

	opts := pdftemplate.DefaultOptions()
	opts.GetResultAsByteArray = f.stdout

	out, err := pdftemplate.CreatePdf(ctx, file, pdftemplate.DocumentContent{ContentJson: string(data)}, opts, cfg.Options(log)...)
	if err != nil {
		return err
	}
	if f.stdout {
		_, err = deps.Stdout.Write(out.ResultAsByteArray)
		return err
	}
	fmt.Fprintln(deps.Stdout, out.FileName)
	return nil
}

// outputName picks the file name for input. An explicit output wins.
func outputName(input, output string) string {
	if output != "" {
		return filepath.Base(output)
	}
	if input == "-" {
		return "document.pdf"
	}
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadInput, path, err)
	}
	return data, nil
}

func runValidate(ctx context.Context, args []string, deps *Deps) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(deps.Stderr)
	var (
		common   commonFlags
		fontDirs []string
	)
	fs.StringSliceVar(&fontDirs, "font-dir", nil, "directory of TrueType fonts (repeatable)")
	addCommonFlags(fs, &common)
	fs.Usage = func() {
		fmt.Fprintln(deps.Stderr, "Usage: pdftemplate validate [flags] <document.json | ->")
		fs.PrintDefaults()
	}
	if err := parseFlagSet(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: validate takes exactly one document", ErrUsage)
	}

	cfg, log, err := common.load(deps)
	if err != nil {
		return err
	}
	cfg.Fonts.Dirs = append(cfg.Fonts.Dirs, fontDirs...)
	data, err := readInput(fs.Arg(0), deps.Stdin)
	if err != nil {
		return err
	}
	state, err := pdftemplate.ValidateDocument(ctx, pdftemplate.DocumentContent{ContentJson: string(data)},
		cfg.Output.Unicode, cfg.Options(log)...)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "ok: %d pages, %d sections, %d paragraphs, %d tables, %d images\n",
		state.Pages, state.Section, state.Paragraphs, state.Tables, len(state.Images))
	return nil
}

func runMCP(ctx context.Context, args []string, deps *Deps) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(deps.Stderr)
	var common commonFlags
	addCommonFlags(fs, &common)
	if err := parseFlagSet(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("%w: mcp takes no arguments", ErrUsage)
	}

	cfg, log, err := common.load(deps)
	if err != nil {
		return err
	}
	server := mcp.NewServerWithIO(deps.Stdin, deps.Stdout, mcp.WithLogger(log), mcp.WithVersion(Version))
	mcp.RegisterDefaultTools(server, cfg)
	mcp.RegisterDefaultResources(server, cfg)

	log.Info("mcp server started", "version", Version)
	return server.Run(ctx)
}
