package commands

import (
	"fmt"

	"git.home.luguber.info/inful/themebuilder/internal/pipeline"
)

// ImageminCmd implements the 'imagemin' command.
type ImageminCmd struct{}

func (*ImageminCmd) Run(g *Global, root *CLI) error {
	return runTasks(g, root, pipeline.TaskImagemin)
}

// SassCmd implements the 'sass' command.
type SassCmd struct{}

func (*SassCmd) Run(g *Global, root *CLI) error {
	return runTasks(g, root, pipeline.TaskSass)
}

// UglifyCmd implements the 'uglify' command.
type UglifyCmd struct{}

func (*UglifyCmd) Run(g *Global, root *CLI) error {
	return runTasks(g, root, pipeline.TaskUglify)
}

// WatchCmd implements the 'watch' command. It runs until interrupted.
type WatchCmd struct{}

func (*WatchCmd) Run(g *Global, root *CLI) error {
	return runTasks(g, root, pipeline.TaskWatch)
}

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (*BuildCmd) Run(g *Global, root *CLI) error {
	return runTasks(g, root, pipeline.BuildTasks...)
}

// TasksCmd implements the 'tasks' command.
type TasksCmd struct{}

func (*TasksCmd) Run(g *Global, root *CLI) error {
	p, err := root.Pipeline()
	if err != nil {
		return err
	}
	for _, name := range p.Tasks().Names() {
		if _, err := fmt.Fprintln(g.stdout(), name); err != nil {
			return err
		}
	}
	return nil
}
