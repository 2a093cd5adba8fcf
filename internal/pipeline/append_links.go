package pipeline

import (
	"context"
	"log/slog"

	"github.com/cempisirgen/mccole/internal/content"
	"github.com/cempisirgen/mccole/internal/logfields"
)

// AppendLinks adds to each page the reference definitions it uses. It
// mutates page text, so it runs once, after every pass that reads raw text.
func AppendLinks() Pass {
	return NewPass(PassAppendLinks, Dependencies{
		Requires:     []Resource{ResLinks},
		Produces:     []Resource{ResLinkedText},
		MustRunAfter: []string{PassCollectMeta, PassCollectReferences},
	}, func(_ context.Context, b *Build) error {
		appended := 0
		err := b.Tree.Walk(func(n *content.Node) error {
			if !n.IsPage() {
				return nil
			}
			block := b.State.Links.Block(n.Text)
			if block == "" {
				return nil
			}
			n.Text += "\n\n" + block
			appended++
			if missing := b.State.Links.Missing(n.Text); len(missing) > 0 {
				slog.Debug("Reference keys not in link table", logfields.File(n.Source()), slog.Any("keys", missing))
			}
			return nil
		})
		if err != nil {
			return err
		}
		slog.Info("Link definitions appended", logfields.Count(appended))
		return nil
	})
}
