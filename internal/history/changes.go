package history

import (
	"context"
	"sort"
	"strings"

	"github.com/inful/mdfp"

	"github.com/cempisirgen/mccole/internal/content"
)

// Change describes how a page differs between two builds.
type Change struct {
	Path string
	Kind string // added, modified or removed
}

// Snapshot fingerprints every page of tree. Call it before the passes run so
// the fingerprint reflects the source, not appended link definitions.
func Snapshot(tree *content.Tree) []PageRecord {
	pages := tree.Pages()
	out := make([]PageRecord, 0, len(pages))
	for _, n := range pages {
		out = append(out, PageRecord{Path: n.Key(), Slug: n.Slug, Fingerprint: Fingerprint(n)})
	}
	return out
}

// Fingerprint hashes a page's front matter and body.
func Fingerprint(n *content.Node) string {
	fm := strings.TrimSuffix(strings.ReplaceAll(string(n.FrontMatter), "\r\n", "\n"), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, n.Text)
}

// Diff compares two page sets.
func Diff(previous, current map[string]PageRecord) []Change {
	var out []Change
	for path, cur := range current {
		prev, ok := previous[path]
		switch {
		case !ok:
			out = append(out, Change{Path: path, Kind: "added"})
		case prev.Fingerprint != cur.Fingerprint:
			out = append(out, Change{Path: path, Kind: "modified"})
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			out = append(out, Change{Path: path, Kind: "removed"})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// ChangedSince compares a build against the build recorded before it. The
// oldest build reports every page as added.
func (s *Store) ChangedSince(ctx context.Context, buildID string) ([]Change, error) {
	builds, err := s.Recent(ctx, -1)
	if err != nil {
		return nil, err
	}
	current, err := s.Pages(ctx, buildID)
	if err != nil {
		return nil, err
	}
	previous := map[string]PageRecord{}
	for i, b := range builds {
		if b.ID == buildID && i+1 < len(builds) {
			previous, err = s.Pages(ctx, builds[i+1].ID)
			if err != nil {
				return nil, err
			}
			break
		}
	}
	return Diff(previous, current), nil
}
