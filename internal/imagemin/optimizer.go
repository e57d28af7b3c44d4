// Package imagemin recompresses theme images in place.
package imagemin

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/themebuilder/internal/fsutil"
	"git.home.luguber.info/inful/themebuilder/internal/layout"
	"git.home.luguber.info/inful/themebuilder/internal/logfields"
	"git.home.luguber.info/inful/themebuilder/internal/metrics"
	"git.home.luguber.info/inful/themebuilder/internal/task"
)

// TaskName is the registry name of the image optimizer.
const TaskName = "imagemin"

// Report summarises one optimizer run.
type Report struct {
	Files       int
	Optimized   int
	BytesBefore int64
	BytesAfter  int64
}

// Saved is the number of bytes removed.
func (r Report) Saved() int64 { return r.BytesBefore - r.BytesAfter }

// Optimizer rewrites every image under images/ with a smaller encoding.
type Optimizer struct {
	theme       layout.Theme
	compressors map[string]Compressor
	recorder    metrics.Recorder
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithCompressor registers c for ext (".png" style, case insensitive).
func WithCompressor(ext string, c Compressor) Option {
	return func(o *Optimizer) { o.compressors[strings.ToLower(ext)] = c }
}

// WithRecorder sets the metrics recorder; nil means no metrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Optimizer) { o.recorder = metrics.OrNoop(r) }
}

// NewOptimizer creates an optimizer for theme with the default compressors.
func NewOptimizer(theme layout.Theme, opts ...Option) *Optimizer {
	o := &Optimizer{
		theme:       theme,
		compressors: DefaultCompressors(),
		recorder:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run optimizes all images. A compressor failure stops the run; files
// handled before it keep their new content.
func (o *Optimizer) Run(ctx context.Context) error {
	report, err := o.Optimize(ctx)
	if saved := report.Saved(); saved > 0 {
		o.recorder.AddBytesSaved(TaskName, saved)
	}
	if err != nil {
		return err
	}
	task.Logger(ctx).Info("Images optimized",
		logfields.Files(report.Files),
		slog.Int("optimized", report.Optimized),
		logfields.BytesSaved(report.Saved()))
	return nil
}

// Optimize does the work of Run and returns the partial report on error.
func (o *Optimizer) Optimize(ctx context.Context) (Report, error) {
	var report Report
	sources, err := o.theme.Glob(layout.ImagesGlob)
	if err != nil {
		return report, err
	}
	logger := task.Logger(ctx)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		c, ok := o.compressors[strings.ToLower(filepath.Ext(src))]
		if !ok {
			logger.Debug("Skipping unsupported image", logfields.Path(src))
			continue
		}

		data, err := os.ReadFile(src)
		if err != nil {
			return report, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read image").
				WithFile(src).
				Build()
		}
		report.Files++
		report.BytesBefore += int64(len(data))

		out, err := c.Optimize(filepath.Base(src), data)
		if err != nil {
			report.BytesAfter += int64(len(data))
			return report, ferrors.WrapError(err, ferrors.CategoryTransform, "image optimization failed").
				WithFile(src).
				Build()
		}
		if len(out) == 0 || len(out) >= len(data) {
			report.BytesAfter += int64(len(data))
			continue
		}

		if err := fsutil.WriteFileAtomic(src, out, fileMode(src)); err != nil {
			report.BytesAfter += int64(len(data))
			return report, err
		}
		report.Optimized++
		report.BytesAfter += int64(len(out))
		logger.Debug("Image optimized", logfields.Path(src), logfields.BytesSaved(int64(len(data)-len(out))))
	}
	return report, nil
}

func fileMode(path string) os.FileMode {
	if fi, err := os.Stat(path); err == nil {
		return fi.Mode().Perm()
	}
	return 0o644
}
