package commands

import (
	"path/filepath"

	"github.com/cempisirgen/mccole/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory for the generated mccole.yml"`
}

// Run executes the init command.
func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.Config
	if i.Output != "" {
		path = filepath.Join(i.Output, config.DefaultFile)
	}
	printf(g.Out, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		printf(g.Out, "Initialization failed\n")
		return err
	}
	printf(g.Out, "initialized successfully\n")
	return nil
}
