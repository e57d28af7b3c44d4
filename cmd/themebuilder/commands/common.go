// Package commands implements the themebuilder command tree.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/themebuilder/internal/config"
	"git.home.luguber.info/inful/themebuilder/internal/layout"
	"git.home.luguber.info/inful/themebuilder/internal/logfields"
	"git.home.luguber.info/inful/themebuilder/internal/pipeline"
)

// Global carries process-wide state into command Run methods.
type Global struct {
	Context context.Context
	Stdout  io.Writer
}

func (g *Global) ctx() context.Context {
	if g == nil || g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Optional configuration file path" type:"path"`
	Root    string           `short:"r" help:"Theme root directory (default ${default_root})" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Imagemin ImageminCmd `cmd:"" help:"Recompress images/* in place"`
	Sass     SassCmd     `cmd:"" help:"Compile sass/*.scss to css/ with source maps"`
	Uglify   UglifyCmd   `cmd:"" help:"Minify lib/*.js into js/main.js"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild on change and notify live-reload clients"`
	Build    BuildCmd    `cmd:"" help:"Run imagemin, sass and uglify in order"`
	Tasks    TasksCmd    `cmd:"" help:"List registered tasks"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
}

// Vars are the interpolation variables the CLI struct tags refer to.
func Vars(version string) kong.Vars {
	return kong.Vars{
		"version":      version,
		"default_root": config.DefaultThemeRoot,
	}
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(config.LoggingConfig{}.NewLogger(os.Stderr, c.Verbose))
	return nil
}

// LoadConfig reads the optional config file, applies the --root override
// and reconfigures logging from the result.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.Root != "" {
		cfg.ThemeRoot = c.Root
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.Logging.NewLogger(os.Stderr, c.Verbose))
	return cfg, nil
}

// Pipeline builds the task pipeline for the configured theme.
func (c *CLI) Pipeline() (*pipeline.Pipeline, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}
	theme, err := layout.New(cfg.ThemeRoot)
	if err != nil {
		return nil, err
	}
	slog.Debug("Theme resolved", logfields.Path(theme.Root()))
	return pipeline.New(cfg, theme, slog.Default())
}

// runTasks runs names in series against the configured theme.
func runTasks(g *Global, root *CLI, names ...string) error {
	p, err := root.Pipeline()
	if err != nil {
		return err
	}
	return p.Tasks().RunSeries(g.ctx(), names...)
}
