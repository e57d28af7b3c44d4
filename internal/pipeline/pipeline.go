// Package pipeline wires the theme tasks into a task registry.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/themebuilder/internal/config"
	"git.home.luguber.info/inful/themebuilder/internal/imagemin"
	"git.home.luguber.info/inful/themebuilder/internal/layout"
	"git.home.luguber.info/inful/themebuilder/internal/livereload"
	"git.home.luguber.info/inful/themebuilder/internal/logfields"
	"git.home.luguber.info/inful/themebuilder/internal/metrics"
	"git.home.luguber.info/inful/themebuilder/internal/scripts"
	"git.home.luguber.info/inful/themebuilder/internal/styles"
	"git.home.luguber.info/inful/themebuilder/internal/task"
	"git.home.luguber.info/inful/themebuilder/internal/watch"
)

// Task names.
const (
	TaskImagemin = imagemin.TaskName
	TaskSass     = styles.TaskName
	TaskUglify   = scripts.TaskName
	TaskWatch    = "watch"
)

// BuildTasks are the one-shot tasks run by `build`, in order.
var BuildTasks = []string{TaskImagemin, TaskSass, TaskUglify}

const listenerShutdownTimeout = 5 * time.Second

// Pipeline holds the registered tasks for one theme.
type Pipeline struct {
	cfg      *config.Config
	theme    layout.Theme
	logger   *slog.Logger
	recorder metrics.Recorder
	promReg  *prom.Registry
	tasks    *task.Registry
}

// New registers imagemin, sass, uglify and watch for theme.
func New(cfg *config.Config, theme layout.Theme, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{cfg: cfg, theme: theme, logger: logger, recorder: metrics.NoopRecorder{}}
	if cfg.Metrics.Enabled {
		p.promReg = prom.NewRegistry()
		p.recorder = metrics.NewPrometheusRecorder(p.promReg)
	}

	compiler, err := styles.NewCompiler(theme, nil)
	if err != nil {
		return nil, err
	}
	optimizer := imagemin.NewOptimizer(theme, imagemin.WithRecorder(p.recorder))
	bundler := scripts.NewBundler(theme)

	p.tasks = task.NewRegistry(task.WithRecorder(p.recorder), task.WithLogger(logger))
	p.tasks.MustRegister(TaskImagemin, optimizer.Run)
	p.tasks.MustRegister(TaskSass, compiler.Run)
	p.tasks.MustRegister(TaskUglify, bundler.Run)
	p.tasks.MustRegister(TaskWatch, p.watch)
	return p, nil
}

// Tasks returns the registry.
func (p *Pipeline) Tasks() *task.Registry { return p.tasks }

// Theme returns the theme the tasks operate on.
func (p *Pipeline) Theme() layout.Theme { return p.theme }

// Run runs one task by name.
func (p *Pipeline) Run(ctx context.Context, name string) error {
	return p.tasks.Run(ctx, name)
}

// Build runs BuildTasks in series.
func (p *Pipeline) Build(ctx context.Context) error {
	return p.tasks.RunSeries(ctx, BuildTasks...)
}

// watch owns the live-reload listener for as long as the watch runs.
func (p *Pipeline) watch(ctx context.Context) (err error) {
	var opts []livereload.Option
	if p.promReg != nil {
		opts = append(opts, livereload.WithMetricsHandler(p.cfg.Metrics.Path, metrics.HTTPHandler(p.promReg)))
	}
	srv := livereload.NewServer(p.cfg.LiveReload, p.recorder, opts...)
	if err := srv.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), listenerShutdownTimeout)
		defer cancel()
		if cerr := srv.Close(shutdownCtx); cerr != nil {
			task.Logger(ctx).Warn("Live-reload listener shutdown failed", logfields.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
	}()

	orch := watch.New(p.theme, p.tasks, srv,
		watch.WithRules(watch.DefaultRules(TaskSass, TaskUglify)),
		watch.WithRecorder(p.recorder),
		watch.WithLogger(task.Logger(ctx)),
	)
	return orch.Run(ctx)
}
