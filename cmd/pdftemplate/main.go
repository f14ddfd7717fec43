// Command pdftemplate renders JSON document descriptions to PDF.
//
// Usage:
//
//	pdftemplate render [flags] <document.json | ->
//	pdftemplate validate [flags] <document.json | ->
//	pdftemplate mcp [--config file]
//	pdftemplate version
//
// Settings are read from a YAML file given with --config; flags override
// it. Run a command with --help for its flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	ErrUsage     = errors.New("usage error")
	ErrReadInput = errors.New("reading input")
)

// Deps holds the process resources used by the commands.
type Deps struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// IsTerminal reports whether w is an interactive terminal.
	IsTerminal func(w io.Writer) bool
}

// DefaultDeps returns the dependencies of the real process.
func DefaultDeps() *Deps {
	return &Deps{
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		IsTerminal: isTerminal,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], DefaultDeps())
	stop()
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "pdftemplate:", err)
	}
	code := exitCodeFor(err)
	if errors.Is(err, flag.ErrHelp) {
		code = ExitSuccess
	}
	os.Exit(code)
}

func run(ctx context.Context, args []string, deps *Deps) error {
	if len(args) == 0 {
		printUsage(deps.Stderr)
		return fmt.Errorf("%w: missing command", ErrUsage)
	}
	switch args[0] {
	case "render":
		return runRender(ctx, args[1:], deps)
	case "validate":
		return runValidate(ctx, args[1:], deps)
	case "mcp":
		return runMCP(ctx, args[1:], deps)
	case "version", "--version":
		fmt.Fprintln(deps.Stdout, "pdftemplate", Version)
		return nil
	case "help", "-h", "--help":
		printUsage(deps.Stdout)
		return nil
	default:
		printUsage(deps.Stderr)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: pdftemplate <command> [flags]

Commands:
  render     render a JSON document description to PDF
  validate   lay out a document and report problems without writing it
  mcp        serve the render tools over MCP on stdio
  version    print the version
`)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
