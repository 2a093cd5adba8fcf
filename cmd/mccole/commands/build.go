package commands

import (
	"github.com/cempisirgen/mccole/internal/build"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	CheckLinks bool `name:"check-links" help:"Fail when a rendered page links to a missing file or anchor"`
}

// Run executes the build command.
func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	res, err := newService(cfg).Run(g.Ctx, build.BuildRequest{
		Config:  cfg,
		Options: build.BuildOptions{CheckLinks: b.CheckLinks},
	})
	if err != nil {
		return err
	}
	printf(g.Out, "Built %d pages into %s (build %s)\n", len(res.Pages), res.OutputPath, res.ID)
	for _, c := range res.Changes {
		printf(g.Out, "  %-8s %s\n", c.Kind, displayPath(c.Path))
	}
	return nil
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
