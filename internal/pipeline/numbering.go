package pipeline

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/cempisirgen/mccole/internal/book"
	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/logfields"
)

// NumberChapters walks the declared chapter order. Slugs whose metadata has
// a tag become Chapter i+1; the rest become appendices lettered from 'A' at
// the first untagged slug.
func NumberChapters() Pass {
	return NewPass(PassNumberChapters, Dependencies{
		Requires: []Resource{ResMeta},
		Produces: []Resource{ResNumbers},
	}, func(_ context.Context, b *Build) error {
		numbers, err := Number(b.State.Chapters, b.State.Meta)
		if err != nil {
			return err
		}
		b.State.Numbers = numbers
		slog.Info("Chapters numbered", logfields.Count(len(numbers)))
		return nil
	})
}

// Number assigns chapter and appendix numbers. A chapter listed after an
// appendix keeps its positional number, which leaves a gap; a warning names it.
func Number(chapters []string, meta map[string]book.Meta) (map[string]book.Number, error) {
	out := make(map[string]book.Number, len(chapters))
	firstAppendix := -1
	for i, slug := range chapters {
		m, ok := meta[slug]
		if !ok {
			return nil, ferrors.ConfigError("chapter slug has no page").
				WithContext("slug", slug).
				WithCause(ferrors.ErrUnknownSlug).Build()
		}
		if m.HasTag() {
			if firstAppendix >= 0 {
				slog.Warn("Chapter declared after an appendix; chapters must precede appendices",
					logfields.Slug(slug), slog.String("first_appendix", chapters[firstAppendix]))
			}
			out[slug] = book.Number{Kind: book.KindChapter, Number: strconv.Itoa(i + 1)}
			continue
		}
		if firstAppendix < 0 {
			firstAppendix = i
		}
		out[slug] = book.Number{Kind: book.KindAppendix, Number: book.AppendixLetter(i - firstAppendix)}
	}
	return out, nil
}
