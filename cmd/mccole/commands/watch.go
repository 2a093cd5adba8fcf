package commands

import (
	"time"

	"github.com/cempisirgen/mccole/internal/build"
	"github.com/cempisirgen/mccole/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Skip       []string      `help:"Chapter slugs whose directories are not watched" sep:","`
	Debounce   time.Duration `help:"Quiet period before a rebuild" default:"300ms"`
	CheckLinks bool          `name:"check-links" help:"Verify local links after every rebuild"`
}

// Run builds once and then rebuilds on change until interrupted.
func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	watcher := watch.New(cfg, newService(cfg), build.BuildOptions{CheckLinks: w.CheckLinks}).
		WithDebounce(w.Debounce).
		WithSkip(w.Skip...).
		OnBuild(func(res *build.BuildResult, err error) {
			if err == nil && res != nil {
				printf(g.Out, "Built %d pages into %s\n", len(res.Pages), res.OutputPath)
			}
		})
	printf(g.Out, "Watching %s (Ctrl+C to stop)\n", cfg.SourcePath())
	return watcher.Run(g.Ctx)
}
