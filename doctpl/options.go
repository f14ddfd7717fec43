package doctpl

import (
	"io"
	"log/slog"

	"github.com/lvillar/pdftemplate/internal/imagesrc"
)

// ImageLoader resolves image paths into embeddable images together with
// their natural pixel size and resolution.
type ImageLoader interface {
	Load(path string) (*imagesrc.Image, error)
}

// Option is a functional option for configuring rendering.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	images      ImageLoader
	fonts       []FontFace
	unicode     bool
	compression bool
}

func defaultConfig() *config {
	return &config{
		logger:      discardLogger(),
		images:      imagesrc.NewLoader(),
		unicode:     true,
		compression: true,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithLogger sets the logger used for warnings and debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithImageLoader replaces the filesystem image loader.
func WithImageLoader(l ImageLoader) Option {
	return func(c *config) {
		if l != nil {
			c.images = l
		}
	}
}

// WithFont registers a TrueType face. Registered families are only used
// when Unicode text is enabled.
func WithFont(face FontFace) Option {
	return func(c *config) {
		c.fonts = append(c.fonts, face)
	}
}

// WithUnicode selects UTF-8 TrueType fonts (true) or the built-in
// Windows-1252 fonts only (false). The default is true.
func WithUnicode(on bool) Option {
	return func(c *config) {
		c.unicode = on
	}
}

// WithCompression toggles page stream compression. The default is on.
func WithCompression(on bool) Option {
	return func(c *config) {
		c.compression = on
	}
}
