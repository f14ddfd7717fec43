// Package config loads the YAML configuration shared by the pdftemplate
// command and its MCP server.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/lvillar/pdftemplate"
	"github.com/lvillar/pdftemplate/internal/fileio"
)

// MaxInputSize limits the size of a configuration file.
var MaxInputSize = 1 << 20

var (
	ErrInvalidConfig = errors.New("config: invalid configuration")
	ErrInputTooLarge = errors.New("config: input exceeds maximum size")
)

// Config is the root of the configuration file.
type Config struct {
	Output OutputConfig `yaml:"output"`
	Fonts  FontsConfig  `yaml:"fonts"`
	Log    LogConfig    `yaml:"log"`
}

// OutputConfig controls where documents are written.
type OutputConfig struct {
	Directory        string `yaml:"directory"`
	FileExistsAction string `yaml:"file_exists_action"`
	Unicode          bool   `yaml:"unicode"`
	Compression      bool   `yaml:"compression"`
}

// FontsConfig lists TrueType fonts to register.
type FontsConfig struct {
	Dirs  []string   `yaml:"dirs,omitempty"`
	Files []FontFile `yaml:"files,omitempty"`
}

// FontFile is one registered font face.
type FontFile struct {
	Family string `yaml:"family"`
	Style  string `yaml:"style,omitempty"`
	Path   string `yaml:"path"`
}

// LogConfig selects the log level and format ("text" or "json").
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Directory:        ".",
			FileExistsAction: fileio.ExistsError.String(),
			Unicode:          true,
			Compression:      true,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes data over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	cfg := Default()
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return out, nil
}

// Validate checks the enumerated values.
func (c *Config) Validate() error {
	if _, err := c.ExistsAction(); err != nil {
		return fmt.Errorf("%w: output.file_exists_action: %v", ErrInvalidConfig, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	for i, f := range c.Fonts.Files {
		if f.Family == "" || f.Path == "" {
			return fmt.Errorf("%w: fonts.files[%d] needs family and path", ErrInvalidConfig, i)
		}
	}
	return nil
}

// ExistsAction returns the parsed output.file_exists_action.
func (c *Config) ExistsAction() (fileio.ExistsAction, error) {
	if c.Output.FileExistsAction == "" {
		return fileio.ExistsError, nil
	}
	return fileio.ParseExistsAction(c.Output.FileExistsAction)
}

// FileProperties returns the output settings for a file named name.
func (c *Config) FileProperties(name string) pdftemplate.FileProperties {
	action, _ := c.ExistsAction()
	return pdftemplate.FileProperties{
		SaveToDisk:       true,
		Directory:        c.Output.Directory,
		FileName:         name,
		FileExistsAction: action,
		Unicode:          c.Output.Unicode,
	}
}

// Options returns the CreatePdf options for the font and compression
// settings, logging to logger.
func (c *Config) Options(logger *slog.Logger) []pdftemplate.Option {
	opts := []pdftemplate.Option{
		pdftemplate.WithLogger(logger),
		pdftemplate.WithCompression(c.Output.Compression),
	}
	for _, dir := range c.Fonts.Dirs {
		opts = append(opts, pdftemplate.WithFontDir(dir))
	}
	for _, f := range c.Fonts.Files {
		opts = append(opts, pdftemplate.WithFont(f.Family, f.Style, f.Path))
	}
	return opts
}

// Logger builds the structured logger described by the log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, s)
	}
	return level, nil
}
