package site

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cempisirgen/mccole/internal/book"
	"github.com/cempisirgen/mccole/internal/config"
	"github.com/cempisirgen/mccole/internal/content"
	"github.com/cempisirgen/mccole/internal/filters"
	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/logfields"
	"github.com/cempisirgen/mccole/internal/markdown"
)

// OutputFile is the file written for every rendered page.
const OutputFile = "index.html"

// Renderer writes the pages of one finished build.
type Renderer struct {
	cfg     *config.Config
	state   *book.State
	filters *filters.Filters
	md      *markdown.Converter
	layout  *template.Template
}

// Result lists what a render wrote.
type Result struct {
	Pages []string
}

type siteData struct {
	Title    string
	Author   string
	Repo     string
	Date     string
	Revision string
}

type tocEntry struct {
	Slug   string
	Number string
	Title  string
}

type pageData struct {
	Node         *content.Node
	Title        string
	Content      template.HTML
	Syllabus     bool
	Contents     []tocEntry
	Bibliography template.HTML
	Site         siteData
}

// NewRenderer prepares the layout for a finished State.
func NewRenderer(cfg *config.Config, state *book.State) (*Renderer, error) {
	f := filters.New(state)
	layout, err := parseLayout(f.FuncMap())
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "cannot parse page layout").Fatal().Build()
	}
	return &Renderer{cfg: cfg, state: state, filters: f, md: markdown.New(), layout: layout}, nil
}

// Render writes every page of tree under the configured output directory.
func (r *Renderer) Render(ctx context.Context, tree *content.Tree) (*Result, error) {
	out := r.cfg.OutputPath()
	if err := os.MkdirAll(out, 0o750); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot create output directory").
			Fatal().WithContext("dir", out).Build()
	}
	css, err := stylesheet()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "embedded stylesheet missing").Fatal().Build()
	}
	if err := writeFile(filepath.Join(out, styleName), css); err != nil {
		return nil, err
	}

	result := &Result{}
	for _, n := range tree.Pages() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		page, err := r.Page(n)
		if err != nil {
			return result, err
		}
		target := filepath.Join(out, filepath.Join(n.Path...), OutputFile)
		if err := writeFile(target, []byte(page)); err != nil {
			return result, err
		}
		slog.Debug("Wrote page", logfields.Path(target), logfields.Slug(n.Slug))
		result.Pages = append(result.Pages, target)
	}
	slog.Info("Site rendered", logfields.Count(len(result.Pages)), logfields.Path(out))
	return result, nil
}

// Page renders a single node to a complete HTML document with relative links.
func (r *Renderer) Page(n *content.Node) (string, error) {
	exp := &expander{node: n, srcDir: r.cfg.SourcePath(), state: r.state, filters: r.filters, md: r.md}
	text, err := exp.Expand(n.Text)
	if err != nil {
		return "", err
	}
	body, err := r.md.Render(text)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryContent, "cannot render page").
			Fatal().WithContext("file", n.Source()).Build()
	}

	data := pageData{
		Node:    n,
		Content: template.HTML(body), //nolint:gosec // page text is trusted book source
		Site: siteData{
			Title:    r.cfg.Title,
			Author:   r.cfg.Author,
			Repo:     r.cfg.Repo,
			Date:     r.state.Date,
			Revision: r.state.Revision,
		},
	}
	if title, ok := book.Meta(n.Meta).Title(); ok {
		data.Title = title
	}
	if n.IsRoot() {
		data.Contents = r.contents()
	} else if m, ok := r.state.MetaFor(n.Slug); ok {
		_, data.Syllabus = m[book.KeySyllabus]
	}
	if len(n.Path) == 1 && n.Slug == BibSlug && r.state.Bibliography != nil {
		data.Bibliography = template.HTML(r.state.Bibliography.HTML) //nolint:gosec // generated and escaped by package bib
	}

	var buf bytes.Buffer
	if err := r.layout.Execute(&buf, data); err != nil {
		// Filter errors reach us wrapped in a template.ExecError.
		if ce, ok := ferrors.AsClassified(err); ok {
			return "", ce.WithContext("file", n.Source())
		}
		return "", ferrors.WrapError(err, ferrors.CategoryInternal, "cannot execute page layout").
			Fatal().WithContext("file", n.Source()).Build()
	}
	return RewriteRoot(buf.String(), n.Path), nil
}

// contents lists the numbered chapters and appendices in declared order.
func (r *Renderer) contents() []tocEntry {
	var out []tocEntry
	for _, slug := range r.state.Chapters {
		num, ok := r.state.Numbers[slug]
		if !ok {
			continue
		}
		entry := tocEntry{Slug: slug, Number: num.String(), Title: slug}
		if m, ok := r.state.MetaFor(slug); ok {
			if title, ok := m.Title(); ok {
				entry.Title = title
			}
		}
		out = append(out, entry)
	}
	return out
}

// RewriteRoot replaces the "@root/" placeholder with the relative prefix
// that leads from the page at path back to the site root.
func RewriteRoot(page string, path []string) string {
	prefix := "./"
	if len(path) > 0 {
		prefix = strings.Repeat("../", len(path))
	}
	return strings.ReplaceAll(page, filters.RootPrefix, prefix)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot create output directory").
			Fatal().WithContext("dir", filepath.Dir(path)).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot write output file").
			Fatal().WithContext("file", path).Build()
	}
	return nil
}
