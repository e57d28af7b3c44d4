// Package styles compiles the theme's Sass sources into compressed,
// vendor-prefixed CSS with companion source maps.
package styles

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bep/golibsass/libsass"
	"github.com/evanw/esbuild/pkg/api"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/themebuilder/internal/fsutil"
	"git.home.luguber.info/inful/themebuilder/internal/layout"
	"git.home.luguber.info/inful/themebuilder/internal/logfields"
	"git.home.luguber.info/inful/themebuilder/internal/task"
)

// Output is one compiled style source, held in memory until written.
type Output struct {
	Source  string // absolute path of the .scss entry
	CSSPath string
	MapPath string
	CSS     []byte
	Map     []byte
}

// TaskName is the registry name of the style compiler.
const TaskName = "sass"

// Compiler compiles every top-level, non-partial style source of a theme.
type Compiler struct {
	theme   layout.Theme
	engines []api.Engine
}

// NewCompiler creates a compiler targeting browsers (DefaultBrowsers when empty).
func NewCompiler(theme layout.Theme, browsers []string) (*Compiler, error) {
	if len(browsers) == 0 {
		browsers = DefaultBrowsers
	}
	engines, err := ParseBrowsers(browsers)
	if err != nil {
		return nil, err
	}
	return &Compiler{theme: theme, engines: engines}, nil
}

// Engines returns the resolved prefixing targets.
func (c *Compiler) Engines() []api.Engine {
	out := make([]api.Engine, len(c.engines))
	copy(out, c.engines)
	return out
}

// Run compiles and writes all entries in lexicographic order. The first
// failing entry aborts the run; entries written before it stay in place.
func (c *Compiler) Run(ctx context.Context) error {
	logger := task.Logger(ctx)

	sources, err := c.theme.Glob(layout.SassGlob)
	if err != nil {
		return err
	}
	entries := sources[:0]
	for _, s := range sources {
		if !layout.IsPartial(s) {
			entries = append(entries, s)
		}
	}
	if len(entries) == 0 {
		logger.Info("No style sources found", logfields.Path(c.theme.Path(layout.SassGlob)))
		return nil
	}

	for _, src := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := c.Compile(src)
		if err != nil {
			return err
		}
		if err := out.Write(); err != nil {
			return err
		}
		logger.Debug("Compiled style", logfields.Path(out.CSSPath))
	}
	logger.Info("Styles compiled", logfields.Files(len(entries)))
	return nil
}

// Compile runs the full pipeline for one entry without touching the disk
// beyond reading its sources.
func (c *Compiler) Compile(src string) (*Output, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read style source").
			WithFile(src).
			Build()
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	out := &Output{
		Source:  src,
		CSSPath: filepath.Join(c.theme.Path(layout.CSSDir), base+".css"),
	}
	out.MapPath = out.CSSPath + ".map"

	css, sassMap, err := c.compileSass(src, out, data)
	if err != nil {
		return nil, err
	}
	code, finalMap, err := c.prefix(src, out, css, sassMap)
	if err != nil {
		return nil, err
	}
	out.CSS = finalize(code, filepath.Base(out.MapPath))
	out.Map = finalMap
	return out, nil
}

// compileSass turns Sass into compressed CSS, tracking a source map.
func (c *Compiler) compileSass(src string, out *Output, data []byte) (string, string, error) {
	transpiler, err := libsass.New(libsass.Options{
		OutputStyle:  libsass.CompressedStyle,
		IncludePaths: []string{filepath.Dir(src)},
		SourceMapOptions: libsass.SourceMapOptions{
			Filename:   out.MapPath,
			InputPath:  src,
			OutputPath: out.CSSPath,
			Contents:   true,
			OmitURL:    true,
		},
	})
	if err != nil {
		return "", "", ferrors.WrapError(err, ferrors.CategoryInternal, "init sass transpiler").Build()
	}

	res, err := transpiler.Execute(string(data))
	if err != nil {
		return "", "", ferrors.WrapError(err, ferrors.CategoryTransform, "sass compile failed").
			WithFile(src).
			Build()
	}
	return res.CSS, res.SourceMapContent, nil
}

// prefix adds vendor prefixes for the target engines and re-minifies. The
// Sass map is handed to esbuild inline so the final map points at .scss sources.
func (c *Compiler) prefix(src string, out *Output, css, sassMap string) ([]byte, []byte, error) {
	input := css
	if sassMap != "" {
		input += "\n/*# sourceMappingURL=data:application/json;base64," +
			base64.StdEncoding.EncodeToString([]byte(sassMap)) + " */\n"
	}

	// Engine lowering covers esbuild's prefix table only (user-select,
	// appearance and similar). Legacy flexbox fallbacks such as
	// display:-webkit-box and -ms-flexbox are not generated.
	result := api.Transform(input, api.TransformOptions{
		Loader:           api.LoaderCSS,
		Sourcefile:       filepath.Base(out.CSSPath),
		Sourcemap:        api.SourceMapExternal,
		SourcesContent:   api.SourcesContentInclude,
		MinifyWhitespace: true,
		MinifySyntax:     true,
		Engines:          c.engines,
		LogLevel:         api.LogLevelSilent,
		LegalComments:    api.LegalCommentsNone,
	})
	if len(result.Errors) > 0 {
		return nil, nil, ferrors.TransformError("css prefixing failed").
			WithFile(src).
			WithCause(messageError(result.Errors[0])).
			Build()
	}
	return result.Code, result.Map, nil
}

// finalize links the emitted CSS to its companion map file.
func finalize(code []byte, mapName string) []byte {
	s := strings.TrimRight(string(code), "\n")
	return []byte(s + "\n/*# sourceMappingURL=" + mapName + " */\n")
}

// Write stores the map and then the CSS, each atomically, so the CSS never
// references a map that was not written.
func (o *Output) Write() error {
	if err := fsutil.WriteFileAtomic(o.MapPath, o.Map, 0o644); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(o.CSSPath, o.CSS, 0o644)
}

type esbuildError struct{ msg api.Message }

func (e esbuildError) Error() string {
	if loc := e.msg.Location; loc != nil {
		return fmt.Sprintf("%s:%d:%d: %s", loc.File, loc.Line, loc.Column, e.msg.Text)
	}
	return e.msg.Text
}

func messageError(m api.Message) error { return esbuildError{msg: m} }
