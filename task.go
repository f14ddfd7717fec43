// Package pdftemplate creates PDF files from JSON document descriptions.
//
// CreatePdf parses the description, lays it out completely in memory and
// only then resolves the target path and writes the file, so a failed
// render never leaves a partial file behind.
package pdftemplate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lvillar/pdftemplate/doctpl"
	"github.com/lvillar/pdftemplate/internal/fileio"
)

// FileExistsAction is the policy applied when the target file exists.
type FileExistsAction = fileio.ExistsAction

const (
	FileExistsError     = fileio.ExistsError
	FileExistsOverwrite = fileio.ExistsOverwrite
	FileExistsRename    = fileio.ExistsRename
)

// FileProperties describes where the PDF is written.
type FileProperties struct {
	SaveToDisk       bool             `json:"SaveToDisk" yaml:"save_to_disk"`
	Directory        string           `json:"Directory" yaml:"directory"`
	FileName         string           `json:"FileName" yaml:"file_name"`
	FileExistsAction FileExistsAction `json:"FileExistsAction" yaml:"file_exists_action"`
	// Unicode enables registered TrueType fonts. Without it only the
	// built-in Windows-1252 fonts are used.
	Unicode bool `json:"Unicode" yaml:"unicode"`
}

// DefaultFileProperties returns the defaults: save to disk as
// example_file.pdf in the working directory, fail if it exists.
func DefaultFileProperties() FileProperties {
	return FileProperties{
		SaveToDisk:       true,
		Directory:        ".",
		FileName:         "example_file.pdf",
		FileExistsAction: FileExistsError,
		Unicode:          true,
	}
}

// DocumentContent carries the JSON document description.
type DocumentContent struct {
	ContentJson string `json:"ContentJson"`
}

// Options controls credentials and failure reporting.
type Options struct {
	// UseGivenCredentials writes the file as UserName (domain\user).
	UseGivenCredentials bool   `json:"UseGivenCredentials" yaml:"use_given_credentials"`
	UserName            string `json:"UserName" yaml:"user_name"`
	Password            string `json:"Password" yaml:"-"`

	// ThrowErrorOnFailure returns failures as errors. When false they are
	// reported in Output with a nil error.
	ThrowErrorOnFailure bool `json:"ThrowErrorOnFailure" yaml:"throw_error_on_failure"`

	// GetResultAsByteArray returns the PDF bytes in Output.
	GetResultAsByteArray bool `json:"GetResultAsByteArray" yaml:"get_result_as_byte_array"`
}

// DefaultOptions returns the defaults: errors are returned and the bytes
// are included in the output.
func DefaultOptions() Options {
	return Options{ThrowErrorOnFailure: true, GetResultAsByteArray: true}
}

// Output is the result of CreatePdf.
type Output struct {
	Success           bool   `json:"Success"`
	FileName          string `json:"FileName,omitempty"`
	ResultAsByteArray []byte `json:"ResultAsByteArray,omitempty"`
	ErrorMessage      string `json:"ErrorMessage,omitempty"`
}

// CreatePdf renders content and, when file.SaveToDisk is set, writes it to
// file.Directory/file.FileName following file.FileExistsAction.
//
// Failures are *TaskError values. With opts.ThrowErrorOnFailure unset they
// are returned as an unsuccessful Output and a nil error instead.
func CreatePdf(ctx context.Context, file FileProperties, content DocumentContent, opts Options, options ...Option) (*Output, error) {
	cfg := newTaskConfig(options)
	log := cfg.logger.With("render_id", uuid.NewString())

	out, err := createPdf(ctx, cfg, file, content, opts, log)
	if err != nil {
		log.Error("creating pdf", "error", err)
		if opts.ThrowErrorOnFailure {
			return nil, err
		}
		return &Output{Success: false, ErrorMessage: err.Error()}, nil
	}
	log.Info("pdf created", "file", out.FileName, "saved", file.SaveToDisk)
	return out, nil
}

func createPdf(ctx context.Context, cfg *taskConfig, file FileProperties, content DocumentContent,
	opts Options, log *slog.Logger) (*Output, error) {
	var id *fileio.Identity
	if file.SaveToDisk {
		if strings.TrimSpace(file.FileName) == "" {
			return nil, newTaskError("resolve", fmt.Errorf("%w: file name is empty", ErrInvalidFileProperties))
		}
		if opts.UseGivenCredentials {
			var err error
			if id, err = fileio.ParseIdentity(opts.UserName, opts.Password); err != nil {
				return nil, newTaskError("credentials", err)
			}
		}
	}

	doc, err := doctpl.Parse([]byte(content.ContentJson))
	if err != nil {
		return nil, newTaskError("parse", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, newTaskError("layout", err)
	}

	var buf bytes.Buffer
	state, err := doctpl.RenderDocument(ctx, &buf, doc, cfg.documentOptions(file.Unicode, log)...)
	if err != nil {
		return nil, newTaskError("layout", err)
	}
	log.Debug("layout finished", "pages", state.Pages, "sections", state.Section, "bytes", buf.Len())

	out := &Output{Success: true}
	if file.SaveToDisk {
		if err := ctx.Err(); err != nil {
			return nil, newTaskError("write", err)
		}
		path, err := fileio.ResolvePath(file.Directory, file.FileName, file.FileExistsAction, cfg.exists)
		if err != nil {
			return nil, newTaskError("resolve", err)
		}
		if err := cfg.writer.WriteFile(path, buf.Bytes(), id); err != nil {
			return nil, newTaskError("write", err)
		}
		out.FileName = path
	}
	if opts.GetResultAsByteArray {
		out.ResultAsByteArray = buf.Bytes()
	}
	return out, nil
}

// ValidateDocument lays out content exactly as CreatePdf would and discards
// the result. It returns the final layout state or the first parse or
// layout error.
func ValidateDocument(ctx context.Context, content DocumentContent, unicode bool, options ...Option) (*doctpl.State, error) {
	cfg := newTaskConfig(options)
	doc, err := doctpl.Parse([]byte(content.ContentJson))
	if err != nil {
		return nil, newTaskError("parse", err)
	}
	state, err := doctpl.RenderDocument(ctx, io.Discard, doc, cfg.documentOptions(unicode, cfg.logger)...)
	if err != nil {
		return nil, newTaskError("layout", err)
	}
	return state, nil
}
