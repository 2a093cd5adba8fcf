package site

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cempisirgen/mccole/internal/book"
	"github.com/cempisirgen/mccole/internal/config"
	"github.com/cempisirgen/mccole/internal/content"
	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/git"
	"github.com/cempisirgen/mccole/internal/pipeline"
)

func writeTestFile(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

// built runs the standard passes over a small book.
func built(t *testing.T, firstPage string) (*config.Config, *content.Tree, *book.State) {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "mccole.yml", "title: Test Book\nauthor: A. Author\nchapters: [first, second, bib]\ncopy: ['*.svg']\nexclude: ['*.tbl']\n")
	writeTestFile(t, dir, "info/bibliography.bib", `@book{wilson2024, author={Wilson, Greg}, title={Software Design by Example}, year={2024}}`)
	writeTestFile(t, dir, "info/links.yml", "- {key: go, url: 'https://go.dev'}\n")
	writeTestFile(t, dir, "src/index.md", "---\ntitle: Home\n---\nWelcome.\n")
	writeTestFile(t, dir, "src/first/index.md", firstPage)
	writeTestFile(t, dir, "src/first/a.svg", "<svg/>")
	writeTestFile(t, dir, "src/first/sizes.tbl", "| n | size |\n|---|------|\n| 1 | 2 |\n")
	writeTestFile(t, dir, "src/second/index.md", "---\ntitle: Second\ntag: later\n---\nSee [% f fig-a %] and [% t tbl-a %].\n")
	writeTestFile(t, dir, "src/bib/index.md", "---\ntitle: Bibliography\ntag: refs\n---\n")

	cfg, err := config.Load(filepath.Join(dir, "mccole.yml"))
	require.NoError(t, err)
	tree, err := content.NewLoader(cfg.SourcePath(), cfg.Exclude).Load()
	require.NoError(t, err)

	stamp := &pipeline.Stamp{
		Now:      func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) },
		Revision: func(string) (git.Revision, error) { return git.Revision{Hash: "abc1234"}, nil },
	}
	b := pipeline.NewBuild(cfg, tree)
	_, err = pipeline.NewRunner().Run(context.Background(), b, pipeline.Default(pipeline.Options{Stamp: stamp}))
	require.NoError(t, err)
	return cfg, tree, b.State
}

const firstPage = "---\ntitle: First\ntag: basics\nsyllabus: ['Use *emphasis*']\n---\n" +
	"Intro [% b wilson2024 %].\n\n" +
	"[% figure slug=fig-a img=a.svg caption=\"An *arrow*\" %]\n\n" +
	"[% table slug=tbl-a tbl=sizes.tbl caption=Sizes %]\n\n" +
	"Literal \\[% keep %] and [% unknown thing %].\n\n" +
	"See [Go][go].\n"

func pageByKey(tree *content.Tree, key string) *content.Node {
	for _, p := range tree.Pages() {
		if p.Key() == key {
			return p
		}
	}
	return nil
}

func TestRender_WritesBook(t *testing.T) {
	cfg, tree, state := built(t, firstPage)
	r, err := NewRenderer(cfg, state)
	require.NoError(t, err)

	res, err := r.Render(context.Background(), tree)
	require.NoError(t, err)
	assert.Len(t, res.Pages, 4)

	data, err := os.ReadFile(filepath.Join(cfg.OutputPath(), "first", "index.html"))
	require.NoError(t, err)
	page := string(data)

	assert.Contains(t, page, "<title>Test Book: First</title>")
	assert.Contains(t, page, `<h1>Chapter 1: First</h1>`)
	assert.Contains(t, page, `<p class="tag">basics</p>`)
	assert.Contains(t, page, "<ul class=\"syllabus\">\n<li>Use <em>emphasis</em></li>\n</ul>")
	assert.Contains(t, page, `<a href="../second/">&rArr;</a>`)
	assert.NotContains(t, page, "&lArr;")
	assert.Contains(t, page, `<figure id="fig-a">`)
	assert.Contains(t, page, `<img src="../first/a.svg" alt="An *arrow*"/>`)
	assert.Contains(t, page, "<figcaption>Figure 1.1: An <em>arrow</em></figcaption>")
	assert.Contains(t, page, `<p class="caption">Table 1.1: Sizes</p>`)
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, `[<a href="../bib/#wilson2024">wilson2024</a>]`)
	assert.Contains(t, page, "[% keep %]")
	assert.Contains(t, page, "[% unknown thing %]")
	assert.Contains(t, page, `<a href="https://go.dev">Go</a>`)
	assert.Contains(t, page, "Built 2024-03-05 09:00:00 from <code>abc1234</code>")
	assert.NotContains(t, page, "@root/")

	second, err := os.ReadFile(filepath.Join(cfg.OutputPath(), "second", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(second), `<a href="../first/#fig-a">Figure 1.1</a>`)
	assert.Contains(t, string(second), `<a href="../first/#tbl-a">Table 1.1</a>`)
	assert.Contains(t, string(second), `<a href="../first/">&lArr;</a>`)

	bibPage, err := os.ReadFile(filepath.Join(cfg.OutputPath(), "bib", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(bibPage), `<dt id="wilson2024">wilson2024</dt>`)

	home, err := os.ReadFile(filepath.Join(cfg.OutputPath(), "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(home), `<link rel="stylesheet" href="./mccole.css">`)
	assert.Contains(t, string(home), `<li><a href="./first/">Chapter 1: First</a></li>`)
	assert.NotContains(t, string(home), "prevnext")

	broken, err := CheckLinks(res.Pages)
	require.NoError(t, err)
	assert.Empty(t, broken, "%v", broken)
}

func TestRender_UnknownCitation(t *testing.T) {
	cfg, tree, state := built(t, "---\ntitle: First\ntag: basics\n---\nSee [% b nobody %].\n")
	r, err := NewRenderer(cfg, state)
	require.NoError(t, err)

	_, err = r.Page(pageByKey(tree, "first"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.ErrUnknownCitation))
	assert.Equal(t, ferrors.CategoryContent, ferrors.GetCategory(err))
}

func TestRender_MissingImage(t *testing.T) {
	cfg, tree, state := built(t, "---\ntag: basics\n---\n[% figure slug=fig-a img=missing.svg %]\n")
	r, err := NewRenderer(cfg, state)
	require.NoError(t, err)

	_, err = r.Page(pageByKey(tree, "first"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.ErrMissingFile))
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	file, _ := ce.Context().GetString("file")
	assert.Equal(t, "missing.svg", file)
}

func TestRender_UnknownCrossReference(t *testing.T) {
	cfg, tree, state := built(t, "---\ntag: basics\n---\nNo figures here.\n")
	r, err := NewRenderer(cfg, state)
	require.NoError(t, err)

	_, err = r.Page(pageByKey(tree, "second"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.ErrUnknownReference))
}

func TestRender_FilterErrorCarriesFile(t *testing.T) {
	cfg, tree, state := built(t, "---\ntag: basics\n---\nUntitled chapter.\n")
	r, err := NewRenderer(cfg, state)
	require.NoError(t, err)

	_, err = r.Page(pageByKey(tree, "first"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.ErrMissingMeta))
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	file, _ := ce.Context().GetString("file")
	assert.True(t, strings.HasSuffix(file, filepath.Join("first", "index.md")))
}

func TestRewriteRoot(t *testing.T) {
	assert.Equal(t, `<a href="./x/">`, RewriteRoot(`<a href="@root/x/">`, nil))
	assert.Equal(t, `<a href="../x/">`, RewriteRoot(`<a href="@root/x/">`, []string{"a"}))
	assert.Equal(t, `<a href="../../x/">`, RewriteRoot(`<a href="@root/x/">`, []string{"a", "b"}))
}

func TestCheckLinks_ReportsMissingTargets(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "index.html", `<html><body><p id="here"></p>`+
		`<a href="#here">ok</a><a href="#gone">anchor</a><a href="sub/">dir</a>`+
		`<img src="pic.png"><a href="https://example.com/">ext</a><a href="mailto:x@y">mail</a></body></html>`)
	writeTestFile(t, dir, "sub/index.html", `<html><body></body></html>`)

	broken, err := CheckLinks([]string{filepath.Join(dir, "index.html")})
	require.NoError(t, err)
	require.Len(t, broken, 2)
	assert.Equal(t, "#gone", broken[0].URL)
	assert.Equal(t, "missing anchor", broken[0].Reason)
	assert.Equal(t, "pic.png", broken[1].URL)
	assert.Equal(t, "missing target", broken[1].Reason)

	err = BrokenLinksError(broken)
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryValidation, ferrors.GetCategory(err))
	assert.NoError(t, BrokenLinksError(nil))
}
