package pdftemplate

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lvillar/pdftemplate/doctpl"
	"github.com/lvillar/pdftemplate/internal/fileio"
	"github.com/lvillar/pdftemplate/internal/imagesrc"
)

// Option is a functional option for configuring CreatePdf.
type Option func(*taskConfig)

type taskConfig struct {
	logger      *slog.Logger
	images      doctpl.ImageLoader
	writer      fileio.Writer
	exists      func(string) bool
	fonts       []doctpl.FontFace
	fontDirs    []string
	compression bool
}

func newTaskConfig(opts []Option) *taskConfig {
	cfg := &taskConfig{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		images:      imagesrc.NewLoader(),
		writer:      fileio.NewLocal(nil),
		exists:      fileio.Exists,
		compression: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the structured logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *taskConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithImageLoader replaces the filesystem image loader.
func WithImageLoader(l doctpl.ImageLoader) Option {
	return func(c *taskConfig) {
		if l != nil {
			c.images = l
		}
	}
}

// WithWriter replaces the file writer. exists reports whether a path is
// taken and drives the file-exists policy; nil keeps the local check.
func WithWriter(w fileio.Writer, exists func(string) bool) Option {
	return func(c *taskConfig) {
		if w != nil {
			c.writer = w
		}
		if exists != nil {
			c.exists = exists
		}
	}
}

// WithImpersonator installs the hook used to write files as the identity
// given in Options. Without it such requests fail with
// ErrImpersonationUnsupported.
func WithImpersonator(imp fileio.Impersonator) Option {
	return func(c *taskConfig) {
		c.writer = fileio.NewLocal(imp)
	}
}

// WithFont registers a TrueType font file for family. Style is "", "B",
// "I" or "BI". Fonts are used when FileProperties.Unicode is set.
func WithFont(family, style, path string) Option {
	return func(c *taskConfig) {
		c.fonts = append(c.fonts, doctpl.FontFace{Family: family, Style: style, Path: path})
	}
}

// WithFontDir registers every .ttf file in dir. The family is the file
// name without a -Bold, -Italic or -BoldItalic suffix.
func WithFontDir(dir string) Option {
	return func(c *taskConfig) {
		c.fontDirs = append(c.fontDirs, dir)
	}
}

// WithCompression toggles page stream compression. The default is on.
func WithCompression(on bool) Option {
	return func(c *taskConfig) {
		c.compression = on
	}
}

// documentOptions translates the task configuration for the layout engine.
// Font directories are scanned on every call.
func (c *taskConfig) documentOptions(unicode bool, log *slog.Logger) []doctpl.Option {
	opts := []doctpl.Option{
		doctpl.WithLogger(log),
		doctpl.WithImageLoader(c.images),
		doctpl.WithUnicode(unicode),
		doctpl.WithCompression(c.compression),
	}
	fonts := append([]doctpl.FontFace(nil), c.fonts...)
	for _, dir := range c.fontDirs {
		fonts = append(fonts, scanFontDir(dir, log)...)
	}
	for _, f := range fonts {
		opts = append(opts, doctpl.WithFont(f))
	}
	return opts
}

var fontStyleSuffixes = []struct {
	suffix string
	style  string
}{
	{"bolditalic", "BI"},
	{"boldoblique", "BI"},
	{"bold", "B"},
	{"italic", "I"},
	{"oblique", "I"},
	{"regular", ""},
}

// scanFontDir lists the TrueType faces in dir.
func scanFontDir(dir string, log *slog.Logger) []doctpl.FontFace {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("reading font directory", "dir", dir, "error", err)
		return nil
	}
	var faces []doctpl.FontFace
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".ttf") {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		family, style := splitFontStem(stem)
		faces = append(faces, doctpl.FontFace{Family: family, Style: style, Path: filepath.Join(dir, e.Name())})
	}
	return faces
}

func splitFontStem(stem string) (family, style string) {
	lower := strings.ToLower(stem)
	for _, s := range fontStyleSuffixes {
		if strings.HasSuffix(lower, s.suffix) && len(stem) > len(s.suffix) {
			family = strings.TrimRight(stem[:len(stem)-len(s.suffix)], "-_ ")
			if family != "" {
				return family, s.style
			}
		}
	}
	return stem, ""
}
