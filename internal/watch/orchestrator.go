// Package watch re-runs theme tasks and forwards reloads when files change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/themebuilder/internal/layout"
	"git.home.luguber.info/inful/themebuilder/internal/logfields"
	"git.home.luguber.info/inful/themebuilder/internal/metrics"
)

// State of an Orchestrator.
type State int

const (
	StateIdle State = iota
	StateWatching
)

func (s State) String() string {
	if s == StateWatching {
		return "watching"
	}
	return "idle"
}

// Runner runs a task by name.
type Runner interface {
	Run(ctx context.Context, name string) error
}

// Notifier receives reload notifications for theme-relative URL paths.
type Notifier interface {
	Changed(path string)
}

// Orchestrator watches a theme and dispatches changes according to its rules.
type Orchestrator struct {
	theme    layout.Theme
	runner   Runner
	notifier Notifier
	rules    []Rule
	recorder metrics.Recorder
	logger   *slog.Logger

	mu     sync.Mutex
	state  State
	queues map[string]*queue
	ready  chan struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithRules(rules []Rule) Option {
	return func(o *Orchestrator) { o.rules = rules }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = metrics.OrNoop(r) }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an idle orchestrator. Without WithRules it uses
// DefaultRules("sass", "uglify").
func New(theme layout.Theme, runner Runner, notifier Notifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		theme:    theme,
		runner:   runner,
		notifier: notifier,
		rules:    DefaultRules("sass", "uglify"),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		queues:   map[string]*queue{},
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	for _, r := range o.rules {
		if !r.Reload() {
			o.queues[r.Task] = newQueue()
		}
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Ready is closed once the initial watches are installed.
func (o *Orchestrator) Ready() <-chan struct{} { return o.ready }

// Run installs watches and dispatches events until ctx is cancelled. It may
// be called once; later calls fail.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return ferrors.ValidationError("watch is already running").Build()
	}
	o.state = StateWatching
	o.mu.Unlock()

	root := o.theme.Root()
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return ferrors.WatchError("theme root is not a directory").
			WithContext("root", root).
			WithCause(err).
			Build()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryWatch, "failed to create file watcher").Fatal().Build()
	}
	defer func() { _ = watcher.Close() }()

	if err := o.addDirsRecursive(watcher, root); err != nil {
		return err
	}

	var wg sync.WaitGroup
	for name, q := range o.queues {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.drain(ctx, func(trigger string) { o.runTask(ctx, name, trigger) })
		}()
	}
	defer wg.Wait()

	close(o.ready)
	o.logger.Info("Watching theme", logfields.Path(root), slog.Int("rules", len(o.rules)))

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Watch stopped")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			o.handleEvent(watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// handleEvent routes one filesystem event. Every matching event produces
// exactly one enqueued run or one notification per matching rule.
func (o *Orchestrator) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || shouldIgnoreEvent(ev.Name) {
		o.recorder.IncWatchEvent(metrics.WatchActionIgnored)
		return
	}
	if w != nil && ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = o.addDirsRecursive(w, ev.Name)
		}
	}

	rel, ok := o.theme.Rel(ev.Name)
	if !ok {
		o.recorder.IncWatchEvent(metrics.WatchActionIgnored)
		return
	}
	matched := match(o.rules, rel)
	if len(matched) == 0 {
		o.recorder.IncWatchEvent(metrics.WatchActionIgnored)
		return
	}

	o.logger.Debug("File change detected", logfields.Path(rel), logfields.Op(ev.Op.String()))
	for _, r := range matched {
		if r.Reload() {
			o.recorder.IncWatchEvent(metrics.WatchActionReload)
			o.notifier.Changed("/" + rel)
			continue
		}
		o.recorder.IncWatchEvent(metrics.WatchActionTask)
		o.queues[r.Task].push(rel)
	}
}

func (o *Orchestrator) runTask(ctx context.Context, name, trigger string) {
	if err := o.runner.Run(ctx, name); err != nil {
		o.logger.Warn("Watched task failed; still watching",
			logfields.Task(name), logfields.Path(trigger), logfields.Error(err))
	}
}

func (o *Orchestrator) addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			if path == root {
				return ferrors.WrapError(err, ferrors.CategoryWatch, "failed to watch theme root").
					Fatal().
					WithContext("root", root).
					Build()
			}
			o.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent reports paths that never trigger anything: hidden
// files (including atomic-write temp files) and editor swap or backup files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".tmp") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db" || base == "4913"
}
