package task

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/themebuilder/internal/metrics"
)

type countingRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results map[string]metrics.ResultLabel
	timed   int
}

func (c *countingRecorder) ObserveTaskDuration(string, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timed++
}

func (c *countingRecorder) IncTaskResult(task string, result metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string]metrics.ResultLabel{}
	}
	c.results[task] = result
}

func TestRegister_Validation(t *testing.T) {
	r := NewRegistry()
	noop := func(context.Context) error { return nil }

	require.Error(t, r.Register("", noop))
	require.Error(t, r.Register("sass", nil))
	require.NoError(t, r.Register("sass", noop))

	err := r.Register("sass", noop)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	assert.Panics(t, func() { r.MustRegister("sass", noop) })
}

func TestNamesKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"imagemin", "sass", "uglify", "watch"} {
		r.MustRegister(n, func(context.Context) error { return nil })
	}
	assert.Equal(t, []string{"imagemin", "sass", "uglify", "watch"}, r.Names())
}

func TestRun_UnknownTask(t *testing.T) {
	err := NewRegistry().Run(t.Context(), "gzip")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestRun_RecordsOutcomeAndRunID(t *testing.T) {
	rec := &countingRecorder{}
	var logs bytes.Buffer
	r := NewRegistry(WithRecorder(rec), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	var seen []string
	r.MustRegister("sass", func(ctx context.Context) error {
		seen = append(seen, RunID(ctx))
		Logger(ctx).Info("compiling")
		return nil
	})
	boom := errors.New("boom")
	r.MustRegister("uglify", func(context.Context) error { return boom })

	require.NoError(t, r.Run(t.Context(), "sass"))
	require.NoError(t, r.Run(t.Context(), "sass"))
	require.ErrorIs(t, r.Run(t.Context(), "uglify"), boom)

	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0])
	assert.NotEqual(t, seen[0], seen[1], "every run gets its own ID")

	assert.Equal(t, metrics.ResultSuccess, rec.results["sass"])
	assert.Equal(t, metrics.ResultFailed, rec.results["uglify"])
	assert.Equal(t, 3, rec.timed)

	out := logs.String()
	assert.True(t, strings.Contains(out, "run_id="+seen[0]))
	assert.True(t, strings.Contains(out, "Task failed"))
}

func TestRun_CanceledResult(t *testing.T) {
	rec := &countingRecorder{}
	r := NewRegistry(WithRecorder(rec))
	r.MustRegister("watch", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.ErrorIs(t, r.Run(ctx, "watch"), context.Canceled)
	assert.Equal(t, metrics.ResultCanceled, rec.results["watch"])
}

func TestRunSeries_StopsAtFirstFailure(t *testing.T) {
	r := NewRegistry()
	var order []string
	mk := func(name string, err error) Func {
		return func(context.Context) error {
			order = append(order, name)
			return err
		}
	}
	r.MustRegister("imagemin", mk("imagemin", nil))
	r.MustRegister("sass", mk("sass", errors.New("syntax")))
	r.MustRegister("uglify", mk("uglify", nil))

	require.Error(t, r.RunSeries(t.Context(), "imagemin", "sass", "uglify"))
	assert.Equal(t, []string{"imagemin", "sass"}, order)
}

func TestContextHelpersOutsideRun(t *testing.T) {
	assert.Empty(t, RunID(context.Background()))
	assert.Same(t, slog.Default(), Logger(context.Background()))
}
