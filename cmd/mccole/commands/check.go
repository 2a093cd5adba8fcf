package commands

import (
	"github.com/cempisirgen/mccole/internal/build"
	"github.com/cempisirgen/mccole/internal/directive"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Unknown bool `help:"List directive names the build ignores"`
}

// Run executes the check command.
func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	res, err := newService(cfg).Run(g.Ctx, build.BuildRequest{
		Config:  cfg,
		Options: build.BuildOptions{CheckOnly: true},
	})
	if err != nil {
		return err
	}
	s := res.State
	var nlinks, nbib int
	if s.Links != nil {
		nlinks = s.Links.Len()
	}
	if s.Bibliography != nil {
		nbib = s.Bibliography.Len()
	}
	printf(g.Out, "OK: %d numbered pages, %d figures, %d tables, %d links, %d bibliography entries\n",
		len(s.Numbers), len(s.Figures), len(s.Tables), nlinks, nbib)
	if !c.Unknown {
		return nil
	}
	for _, p := range res.Tree.Pages() {
		ds, err := directive.Scan(p.Text)
		if err != nil {
			return err
		}
		for _, name := range directive.Unknown(ds) {
			printf(g.Out, "  %s: ignored directive %q\n", p.Source(), name)
		}
	}
	return nil
}
