package pipeline

import (
	"context"
	"log/slog"

	"github.com/cempisirgen/mccole/internal/bib"
	"github.com/cempisirgen/mccole/internal/links"
	"github.com/cempisirgen/mccole/internal/logfields"
)

// LoadBibliography parses and formats info/<bibliography>.
func LoadBibliography() Pass {
	return NewPass(PassBibliography, Dependencies{Produces: []Resource{ResBibliography}},
		func(_ context.Context, b *Build) error {
			path := b.Config.BibliographyPath()
			bibliography, err := bib.Load(path, bib.Style(b.Config.BibStyle))
			if err != nil {
				return err
			}
			b.State.Bibliography = bibliography
			slog.Info("Bibliography loaded", logfields.File(path), logfields.Count(bibliography.Len()))
			return nil
		})
}

// LoadLinks reads info/<links> into the link table.
func LoadLinks() Pass {
	return NewPass(PassLinks, Dependencies{Produces: []Resource{ResLinks}},
		func(_ context.Context, b *Build) error {
			path := b.Config.LinksPath()
			table, err := links.Load(path)
			if err != nil {
				return err
			}
			b.State.Links = table
			slog.Info("Link table loaded", logfields.File(path), logfields.Count(table.Len()))
			return nil
		})
}
