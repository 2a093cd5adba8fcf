package pipeline

import (
	"context"
	"log/slog"

	"github.com/cempisirgen/mccole/internal/book"
	"github.com/cempisirgen/mccole/internal/content"
	"github.com/cempisirgen/mccole/internal/logfields"
)

// CollectMeta copies the front matter of the root page and of each top-level
// page into State.Meta keyed by slug. Pages below a chapter share its slug
// and never replace the chapter's own metadata.
func CollectMeta() Pass {
	return NewPass(PassCollectMeta, Dependencies{Produces: []Resource{ResMeta}},
		func(_ context.Context, b *Build) error {
			err := b.Tree.Walk(func(n *content.Node) error {
				if !n.IsPage() {
					return nil
				}
				if len(n.Path) > 1 {
					slog.Debug("Sub-page metadata not collected", logfields.File(n.Source()), logfields.Slug(n.Slug))
					return nil
				}
				b.State.Meta[n.Slug] = book.Meta(n.Meta).Clone()
				return nil
			})
			if err != nil {
				return err
			}
			slog.Info("Metadata collected", logfields.Count(len(b.State.Meta)))
			return nil
		})
}
