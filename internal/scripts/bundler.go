// Package scripts minifies the theme's script library into a single bundle.
package scripts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/themebuilder/internal/fsutil"
	"git.home.luguber.info/inful/themebuilder/internal/layout"
	"git.home.luguber.info/inful/themebuilder/internal/logfields"
	"git.home.luguber.info/inful/themebuilder/internal/task"
)

// TaskName is the registry name of the script bundler.
const TaskName = "uglify"

// Bundler concatenates minified library files into js/main.js.
type Bundler struct {
	theme layout.Theme
}

// NewBundler creates a bundler for theme.
func NewBundler(theme layout.Theme) *Bundler {
	return &Bundler{theme: theme}
}

// OutputPath is the absolute path of the bundle.
func (b *Bundler) OutputPath() string {
	return b.theme.Path(layout.BundleOutput)
}

// Run builds and writes the bundle. With no library files it does nothing.
func (b *Bundler) Run(ctx context.Context) error {
	logger := task.Logger(ctx)

	sources, err := b.theme.Glob(layout.LibGlob)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		logger.Info("No script sources found", logfields.Path(b.theme.Path(layout.LibGlob)))
		return nil
	}

	bundle, err := b.Bundle(ctx, sources)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(b.OutputPath(), bundle, 0o644); err != nil {
		return err
	}
	logger.Info("Scripts bundled", logfields.Files(len(sources)), logfields.Path(b.OutputPath()))
	return nil
}

// Bundle minifies each source on its own, in the given order, and joins
// the results. Minifying per file keeps identifier renaming local, so an
// edit to one file leaves the other files' regions byte-identical.
func (b *Bundler) Bundle(ctx context.Context, sources []string) ([]byte, error) {
	var buf bytes.Buffer
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read script source").
				WithFile(src).
				Build()
		}
		code, err := Minify(filepath.Base(src), data)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryTransform, "script minification failed").
				WithFile(src).
				Build()
		}
		buf.Write(code)
		if len(code) > 0 && code[len(code)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// Minify returns the minified form of one script.
func Minify(name string, src []byte) ([]byte, error) {
	result := api.Transform(string(src), api.TransformOptions{
		Loader:            api.LoaderJS,
		Sourcefile:        name,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LegalComments:     api.LegalCommentsNone,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, messageError{msg: result.Errors[0]}
	}
	return result.Code, nil
}

type messageError struct{ msg api.Message }

func (e messageError) Error() string {
	if loc := e.msg.Location; loc != nil {
		return fmt.Sprintf("%s:%d:%d: %s", loc.File, loc.Line, loc.Column, e.msg.Text)
	}
	return e.msg.Text
}
