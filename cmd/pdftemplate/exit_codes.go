package main

import (
	"errors"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/lvillar/pdftemplate"
	"github.com/lvillar/pdftemplate/internal/config"
)

// Exit codes follow Unix conventions: 0=success, 1=general, 2=usage.
const (
	ExitSuccess = 0 // Document rendered or validated
	ExitGeneral = 1 // Unexpected error
	ExitUsage   = 2 // Invalid flags, configuration or document
	ExitIO      = 3 // Missing input, image or font file, target exists, write failed
	ExitLayout  = 4 // Document does not fit the page
)

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, pdftemplate.ErrLayout) {
		return ExitLayout
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, pdftemplate.ErrResourceNotFound) ||
		errors.Is(err, pdftemplate.ErrFileExists) ||
		errors.Is(err, pdftemplate.ErrImpersonationUnsupported) ||
		errors.Is(err, ErrReadInput) {
		return ExitIO
	}

	if errors.Is(err, flag.ErrHelp) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, config.ErrInputTooLarge) ||
		errors.Is(err, pdftemplate.ErrInvalidDocument) ||
		errors.Is(err, pdftemplate.ErrInvalidCredentials) ||
		errors.Is(err, pdftemplate.ErrInvalidFileProperties) {
		return ExitUsage
	}

	return ExitGeneral
}
