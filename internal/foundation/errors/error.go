package errors

import (
	stderrors "errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// ErrorCategory says which part of the pipeline failed.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	// CategoryTransform is a source asset that would not compile, minify or compress.
	CategoryTransform  ErrorCategory = "transform"
	CategoryFileSystem ErrorCategory = "filesystem"
	// CategoryListener is a live-reload socket failure.
	CategoryListener ErrorCategory = "listener"
	CategoryWatch    ErrorCategory = "watch"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity separates failures that end the process from those that
// only end the current task run.
type ErrorSeverity string

const (
	SeverityFatal ErrorSeverity = "fatal"
	SeverityError ErrorSeverity = "error"
)

// Fields carries extra key/value detail for logs and HTTP payloads.
type Fields map[string]any

// ClassifiedError is an error with a category, a severity and, for asset
// failures, the file that caused it.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	file     string
	cause    error
	fields   Fields
}

// Error renders "message (file): cause", omitting the empty parts.
func (e *ClassifiedError) Error() string {
	var b strings.Builder
	b.WriteString(e.message)
	if e.file != "" {
		b.WriteString(" (")
		b.WriteString(e.file)
		b.WriteString(")")
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *ClassifiedError) Unwrap() error           { return e.cause }
func (e *ClassifiedError) Category() ErrorCategory { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }
func (e *ClassifiedError) Message() string         { return e.message }
func (e *ClassifiedError) File() string            { return e.file }
func (e *ClassifiedError) Cause() error            { return e.cause }
func (e *ClassifiedError) Fatal() bool             { return e.severity == SeverityFatal }

// Field returns one detail value.
func (e *ClassifiedError) Field(key string) (any, bool) {
	v, ok := e.fields[key]
	return v, ok
}

// Fields returns a copy of the detail values.
func (e *ClassifiedError) Fields() Fields {
	return maps.Clone(e.fields)
}

// WithContext returns a copy of e with one more detail value.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	cp := *e
	cp.fields = maps.Clone(e.fields)
	if cp.fields == nil {
		cp.fields = Fields{}
	}
	cp.fields[key] = value
	return &cp
}

// LogAttrs returns the error as slog attributes, fields in key order.
func (e *ClassifiedError) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("category", string(e.category))}
	if e.file != "" {
		attrs = append(attrs, slog.String("file", e.file))
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	for _, k := range slices.Sorted(maps.Keys(e.fields)) {
		attrs = append(attrs, slog.Any(k, e.fields[k]))
	}
	return attrs
}

// AsClassified returns the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// HasCategory reports whether err's first ClassifiedError has category c.
func HasCategory(err error, c ErrorCategory) bool {
	ce, ok := AsClassified(err)
	return ok && ce.category == c
}

// CategoryOf returns err's category, CategoryInternal when unclassified.
func CategoryOf(err error) ErrorCategory {
	if ce, ok := AsClassified(err); ok {
		return ce.category
	}
	return CategoryInternal
}
