package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Exit codes by category. Unclassified errors exit with 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   2,
	CategoryConfig:     7,
	CategoryListener:   8,
	CategoryInternal:   10,
	CategoryTransform:  11,
	CategoryFileSystem: 11,
	CategoryWatch:      12,
}

// CLIErrorAdapter turns an error into stderr output and an exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr, exit: os.Exit}
}

// ExitCodeFor returns 0 for nil, the category's code for classified
// errors and 1 otherwise.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if ce, ok := AsClassified(err); ok {
		if code, ok := exitCodes[ce.category]; ok {
			return code
		}
	}
	return 1
}

// FormatError renders the one-line message shown to users. Verbose mode
// prefixes the category and appends the file.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	ce, ok := AsClassified(err)
	if !ok {
		return "Error: " + err.Error()
	}
	msg := ce.message
	if ce.cause != nil {
		msg += ": " + ce.cause.Error()
	}
	if !a.verbose {
		return "Error: " + msg
	}
	out := fmt.Sprintf("Error [%s]: %s", ce.category, msg)
	if ce.file != "" {
		out += "\n  file: " + ce.file
	}
	return out
}

// HandleError prints err and exits. Fatal errors, and every error in
// verbose mode, are also logged with their attributes.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	ce, classified := AsClassified(err)
	switch {
	case !classified:
		a.logger.Error("Unclassified error", slog.String("error", err.Error()))
	case a.verbose || ce.Fatal():
		a.logger.LogAttrs(context.Background(), slog.LevelError, ce.message, ce.LogAttrs()...)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}
