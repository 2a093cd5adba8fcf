package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"github.com/cempisirgen/mccole/internal/content"
	"github.com/cempisirgen/mccole/internal/directive"
	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/logfields"
)

// pageRefs is what one page declares, in order of first occurrence.
type pageRefs struct {
	key     string
	slug    string
	file    string
	figures []string
	tables  []string
}

// CollectReferences numbers the figure and table declarations of every page.
// Numbers restart at 1 on each page; per-page results are merged in node
// path order into the book-wide tables. Labels are qualified by the slug of
// the declaring page, so only one page per slug may declare figures, and
// likewise tables.
func CollectReferences() Pass {
	return NewPass(PassCollectReferences, Dependencies{Produces: []Resource{ResReferences}},
		func(_ context.Context, b *Build) error {
			var pages []pageRefs
			err := b.Tree.Walk(func(n *content.Node) error {
				if !n.IsPage() {
					return nil
				}
				refs, err := scanPage(n)
				if err != nil {
					return err
				}
				pages = append(pages, refs)
				return nil
			})
			if err != nil {
				return err
			}

			sort.SliceStable(pages, func(i, j int) bool { return pages[i].key < pages[j].key })

			figures := refTables{b.State.Figures, b.State.FigurePages, b.State.FigurePaths, map[string]string{}, map[string]string{}}
			tables := refTables{b.State.Tables, b.State.TablePages, b.State.TablePaths, map[string]string{}, map[string]string{}}
			for _, p := range pages {
				if err := merge(p, p.figures, "figure", figures); err != nil {
					return err
				}
				if err := merge(p, p.tables, "table", tables); err != nil {
					return err
				}
			}
			slog.Info("Cross-references collected",
				slog.Int("figures", len(b.State.Figures)),
				slog.Int("tables", len(b.State.Tables)))
			return nil
		})
}

func scanPage(n *content.Node) (pageRefs, error) {
	refs := pageRefs{key: n.Key(), slug: n.Slug, file: n.Source()}
	ds, err := directive.Scan(n.Text)
	if err != nil {
		return refs, ferrors.WrapError(err, ferrors.CategoryContent, "malformed directive").
			Fatal().WithContext("file", refs.file).Build()
	}

	seenFig := map[string]bool{}
	seenTbl := map[string]bool{}
	for _, d := range ds {
		switch d.Kind {
		case directive.KindFigure, directive.KindTable:
			slug, ok := d.Slug()
			if !ok {
				return refs, ferrors.ContentError("bad '"+d.Name+"' directive").
					WithContext("file", refs.file).
					WithContext("args", d.Describe()).
					WithCause(ferrors.ErrMissingSlug).Build()
			}
			if d.Kind == directive.KindFigure && !seenFig[slug] {
				seenFig[slug] = true
				refs.figures = append(refs.figures, slug)
			}
			if d.Kind == directive.KindTable && !seenTbl[slug] {
				seenTbl[slug] = true
				refs.tables = append(refs.tables, slug)
			}
		case directive.KindUnknown:
			slog.Debug("Ignoring directive", logfields.File(refs.file), logfields.Directive(d.Name))
		}
	}
	return refs, nil
}

// refTables are the State maps one kind of declaration is merged into.
type refTables struct {
	numbers map[string]int
	pages   map[string]string
	paths   map[string]string
	files   map[string]string
	// owners maps a page slug to the first file declaring this kind under it.
	owners map[string]string
}

func merge(p pageRefs, slugs []string, kind string, t refTables) error {
	if len(slugs) == 0 {
		return nil
	}
	if owner, ok := t.owners[p.slug]; ok && owner != p.file {
		return ferrors.ContentError(kind+"s declared on two pages of one chapter; numbers would repeat").
			WithContext("slug", p.slug).
			WithContext("file", p.file).
			WithContext("first_file", owner).
			WithCause(ferrors.ErrAmbiguousLabel).Build()
	}
	t.owners[p.slug] = p.file
	for i, slug := range slugs {
		if other, dup := t.files[slug]; dup {
			return ferrors.ContentError(kind+" slug declared on two pages").
				WithContext("slug", slug).
				WithContext("file", p.file).
				WithContext("first_file", other).
				WithCause(ferrors.ErrDuplicateReference).Build()
		}
		t.files[slug] = p.file
		t.numbers[slug] = i + 1
		t.pages[slug] = p.slug
		t.paths[slug] = p.key
	}
	return nil
}
