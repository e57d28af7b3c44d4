package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("plain"), 1},
		{ValidationError("x").Build(), 2},
		{NotFoundError("x").Build(), 2},
		{ConfigError("x").Build(), 7},
		{NewError(CategoryListener, "x").Build(), 8},
		{NewError(CategoryInternal, "x").Build(), 10},
		{TransformError("x").Build(), 11},
		{NewError(CategoryFileSystem, "x").Build(), 11},
		{WatchError("x").Build(), 12},
		{fmt.Errorf("wrapped: %w", TransformError("x").Build()), 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.ExitCodeFor(tt.err), "%v", tt.err)
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := WrapError(errors.New("unexpected token"), CategoryTransform, "script minification failed").
		WithFile("lib/menu.js").
		Build()

	assert.Equal(t, "Error: script minification failed: unexpected token",
		NewCLIErrorAdapter(false, nil).FormatError(err))
	assert.Equal(t, "Error [transform]: script minification failed: unexpected token\n  file: lib/menu.js",
		NewCLIErrorAdapter(true, nil).FormatError(err))
	assert.Equal(t, "Error: plain", NewCLIErrorAdapter(false, nil).FormatError(errors.New("plain")))
	assert.Empty(t, NewCLIErrorAdapter(false, nil).FormatError(nil))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		err     error
		code    int
		logged  bool
	}{
		{"task failure quiet", false, TransformError("sass compile failed").Build(), 11, false},
		{"task failure verbose", true, TransformError("sass compile failed").Build(), 11, true},
		{"fatal always logged", false, ConfigError("bad config").Build(), 7, true},
		{"unclassified logged", false, errors.New("plain"), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs, out bytes.Buffer
			a := NewCLIErrorAdapter(tt.verbose, slog.New(slog.NewTextHandler(&logs, nil)))
			a.out = &out
			code := -1
			a.exit = func(c int) { code = c }

			a.HandleError(tt.err)

			assert.Equal(t, tt.code, code)
			assert.Contains(t, out.String(), "Error")
			assert.Equal(t, tt.logged, logs.Len() > 0)
		})
	}
}
