package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cempisirgen/mccole/internal/content"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openMemory(t)
	ctx := t.Context()
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, BuildRecord{ID: "b1", Started: t0, Finished: t0.Add(time.Second), Outcome: OutcomeSuccess, Revision: "abc"},
		[]PageRecord{{Path: "first", Slug: "first", Fingerprint: "f1"}}))
	require.NoError(t, s.Record(ctx, BuildRecord{ID: "b2", Started: t0.Add(time.Minute), Finished: t0.Add(2 * time.Minute), Outcome: OutcomeFailed, Error: "boom"}, nil))

	builds, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "b2", builds[0].ID)
	assert.Equal(t, "boom", builds[0].Error)
	assert.Equal(t, 0, builds[0].Pages)
	assert.Equal(t, "b1", builds[1].ID)
	assert.Equal(t, 1, builds[1].Pages)
	assert.Equal(t, "abc", builds[1].Revision)
	assert.True(t, builds[1].Started.Equal(t0))

	limited, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_ChangedSince(t *testing.T) {
	s := openMemory(t)
	ctx := t.Context()
	t0 := time.Now()

	require.NoError(t, s.Record(ctx, BuildRecord{ID: "old", Started: t0, Finished: t0, Outcome: OutcomeSuccess}, []PageRecord{
		{Path: "first", Slug: "first", Fingerprint: "a"},
		{Path: "second", Slug: "second", Fingerprint: "b"},
		{Path: "gone", Slug: "gone", Fingerprint: "c"},
	}))
	require.NoError(t, s.Record(ctx, BuildRecord{ID: "new", Started: t0.Add(time.Second), Finished: t0.Add(time.Second), Outcome: OutcomeSuccess}, []PageRecord{
		{Path: "first", Slug: "first", Fingerprint: "a"},
		{Path: "second", Slug: "second", Fingerprint: "B"},
		{Path: "third", Slug: "third", Fingerprint: "d"},
	}))

	changes, err := s.ChangedSince(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, []Change{
		{Path: "gone", Kind: "removed"},
		{Path: "second", Kind: "modified"},
		{Path: "third", Kind: "added"},
	}, changes)

	first, err := s.ChangedSince(ctx, "old")
	require.NoError(t, err)
	assert.Len(t, first, 3)
}

func TestStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(t.Context(), BuildRecord{ID: "x", Started: time.Now(), Finished: time.Now(), Outcome: OutcomeSuccess}, nil))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	builds, err := s.Recent(t.Context(), 5)
	require.NoError(t, err)
	assert.Len(t, builds, 1)
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	a := content.NewPage([]string{"a"}, "body", nil)
	a.FrontMatter = []byte("title: A\n")
	b := content.NewPage([]string{"a"}, "body", nil)
	b.FrontMatter = []byte("title: A\r\n")
	c := content.NewPage([]string{"a"}, "other body", nil)
	c.FrontMatter = []byte("title: A\n")

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))

	snap := Snapshot(content.FromNodes(a))
	require.Len(t, snap, 1)
	assert.Equal(t, "a", snap[0].Path)
}
