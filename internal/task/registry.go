// Package task maps task names to callables and runs them with logging and metrics.
package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/themebuilder/internal/logfields"
	"git.home.luguber.info/inful/themebuilder/internal/metrics"
)

// Func is a registered task. It returns nil on success.
type Func func(ctx context.Context) error

// Registry holds tasks by name in registration order.
type Registry struct {
	mu       sync.RWMutex
	tasks    map[string]Func
	order    []string
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithRecorder sets the metrics recorder used for every run.
func WithRecorder(r metrics.Recorder) Option {
	return func(reg *Registry) { reg.recorder = metrics.OrNoop(r) }
}

// WithLogger sets the base logger; runs derive a child logger from it.
func WithLogger(l *slog.Logger) Option {
	return func(reg *Registry) {
		if l != nil {
			reg.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tasks:    make(map[string]Func),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register adds a task. Names must be unique and non-empty.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return ferrors.ValidationError("task name must not be empty").Build()
	}
	if fn == nil {
		return ferrors.ValidationError("task func must not be nil").WithContext("task", name).Build()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[name]; exists {
		return ferrors.ValidationError("task already registered").WithContext("task", name).Build()
	}
	r.tasks[name] = fn
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register that panics on error; for static wiring.
func (r *Registry) MustRegister(name string, fn Func) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Names returns task names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the task registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.tasks[name]
	return fn, ok
}

// Run executes one run of the named task. Each run gets a fresh run ID,
// carried in ctx and in every log line the run emits.
func (r *Registry) Run(ctx context.Context, name string) error {
	fn, ok := r.Lookup(name)
	if !ok {
		return ferrors.NotFoundError("unknown task").
			WithContext("task", name).
			WithContext("available", r.Names()).
			Build()
	}

	runID := uuid.NewString()
	logger := r.logger.With(logfields.Task(name), logfields.RunID(runID))
	ctx = withRun(ctx, runInfo{name: name, id: runID, logger: logger})

	logger.Debug("Task started")
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	r.recorder.ObserveTaskDuration(name, elapsed)
	ms := float64(elapsed.Microseconds()) / 1000

	switch {
	case err == nil:
		r.recorder.IncTaskResult(name, metrics.ResultSuccess)
		logger.Info("Task finished", logfields.DurationMS(ms))
	case errors.Is(err, context.Canceled):
		r.recorder.IncTaskResult(name, metrics.ResultCanceled)
		logger.Info("Task canceled", logfields.DurationMS(ms))
	default:
		r.recorder.IncTaskResult(name, metrics.ResultFailed)
		logger.Error("Task failed", logfields.DurationMS(ms), logfields.Error(err))
	}
	return err
}

// RunSeries runs the named tasks one after another, stopping at the first failure.
func (r *Registry) RunSeries(ctx context.Context, names ...string) error {
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Run(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
