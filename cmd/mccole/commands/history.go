package commands

import (
	"text/tabwriter"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/history"
	"github.com/cempisirgen/mccole/internal/pipeline"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit   int  `short:"n" help:"Number of builds to list" default:"10"`
	Changes bool `help:"Show the pages changed by the most recent build"`
}

// Run lists recorded builds, newest first.
func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	path := cfg.HistoryPath()
	if path == "" {
		return ferrors.ConfigError("build history is not enabled (set 'history' in the configuration)").
			WithContext("config", root.Config).Build()
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builds, err := store.Recent(g.Ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		printf(g.Out, "No builds recorded\n")
		return nil
	}
	printBuilds(g, builds)

	if !h.Changes {
		return nil
	}
	changes, err := store.ChangedSince(g.Ctx, builds[0].ID)
	if err != nil {
		return err
	}
	printf(g.Out, "\nChanges in %s:\n", builds[0].ID)
	if len(changes) == 0 {
		printf(g.Out, "  none\n")
	}
	for _, c := range changes {
		printf(g.Out, "  %-8s %s\n", c.Kind, displayPath(c.Path))
	}
	return nil
}

func printBuilds(g *Global, builds []history.BuildRecord) {
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	printf(tw, "ID\tSTARTED\tOUTCOME\tPAGES\tREVISION\n")
	for _, b := range builds {
		printf(tw, "%s\t%s\t%s\t%d\t%s\n", b.ID, b.Started.UTC().Format(pipeline.DateLayout), b.Outcome, b.Pages, shortRev(b.Revision))
	}
	_ = tw.Flush()
}

func shortRev(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
