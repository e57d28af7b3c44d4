package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of category c. Severity defaults to error.
func NewError(c ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{category: c, severity: SeverityError, message: message}}
}

// WrapError starts an error of category c caused by err.
func WrapError(err error, c ErrorCategory, message string) *ErrorBuilder {
	return NewError(c, message).WithCause(err)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

// WithFile names the asset or file the error is about.
func (b *ErrorBuilder) WithFile(path string) *ErrorBuilder {
	b.err.file = path
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	if b.err.fields == nil {
		b.err.fields = Fields{}
	}
	b.err.fields[key] = value
	return b
}

// Fatal marks the error as ending the process rather than one task run.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	return &out
}

// ConfigError is a fatal configuration problem.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError is a fatal problem with user input or API misuse.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

// NotFoundError is a failed lookup, e.g. an unknown task name.
func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message)
}

// TransformError is an asset that failed to compile, minify or compress.
// It ends the current task run only.
func TransformError(message string) *ErrorBuilder {
	return NewError(CategoryTransform, message)
}

// WatchError is a fatal failure to set up or keep file watches.
func WatchError(message string) *ErrorBuilder {
	return NewError(CategoryWatch, message).Fatal()
}
