package site

import (
	"fmt"
	"html"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/cempisirgen/mccole/internal/book"
	"github.com/cempisirgen/mccole/internal/content"
	"github.com/cempisirgen/mccole/internal/directive"
	"github.com/cempisirgen/mccole/internal/filters"
	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/logfields"
	"github.com/cempisirgen/mccole/internal/markdown"
)

// BibSlug is the page that shows the bibliography and that citations link to.
const BibSlug = "bib"

// expander turns the directives of one page into HTML.
type expander struct {
	node    *content.Node
	srcDir  string
	state   *book.State
	filters *filters.Filters
	md      *markdown.Converter
}

// Expand replaces every directive in the page text. Unknown directives are
// left in place.
func (e *expander) Expand(text string) (string, error) {
	out, err := directive.Replace(text, e.expand)
	if err != nil {
		if _, ok := ferrors.AsClassified(err); ok {
			return "", err
		}
		return "", ferrors.WrapError(err, ferrors.CategoryContent, "malformed directive").
			Fatal().WithContext("file", e.node.Source()).Build()
	}
	return out, nil
}

func (e *expander) expand(d directive.Directive) (string, error) {
	switch d.Kind {
	case directive.KindFigure:
		return e.figure(d)
	case directive.KindTable:
		return e.table(d)
	case directive.KindFigureRef:
		return e.ref(d, "figure", e.state.FigurePaths)
	case directive.KindTableRef:
		return e.ref(d, "table", e.state.TablePaths)
	case directive.KindCite:
		return e.cite(d)
	default:
		slog.Debug("Leaving directive unexpanded",
			logfields.Directive(d.Name), logfields.File(e.node.Source()))
		return "[% " + d.Raw + " %]", nil
	}
}

func (e *expander) figure(d directive.Directive) (string, error) {
	slug, err := e.slug(d)
	if err != nil {
		return "", err
	}
	img, err := e.attr(d, "img")
	if err != nil {
		return "", err
	}
	if _, err := content.RequireFile(e.node, img, "image"); err != nil {
		return "", err
	}
	label, err := e.filters.Label("figure", slug)
	if err != nil {
		return "", e.annotate(err, d)
	}
	caption, err := e.caption(d)
	if err != nil {
		return "", err
	}
	alt, ok := d.Attr("alt")
	if !ok {
		alt = d.Attrs["caption"]
	}
	return fmt.Sprintf("<figure id=\"%s\">\n<img src=\"%s\" alt=\"%s\"/>\n<figcaption>%s: %s</figcaption>\n</figure>",
		html.EscapeString(slug), html.EscapeString(e.asset(img)), html.EscapeString(alt), label, caption), nil
}

func (e *expander) table(d directive.Directive) (string, error) {
	slug, err := e.slug(d)
	if err != nil {
		return "", err
	}
	tbl, err := e.attr(d, "tbl")
	if err != nil {
		return "", err
	}
	body, err := content.ReadFile(e.node, tbl, "table")
	if err != nil {
		return "", err
	}
	label, err := e.filters.Label("table", slug)
	if err != nil {
		return "", e.annotate(err, d)
	}
	caption, err := e.caption(d)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<div class=\"table\" id=\"%s\">\n<p class=\"caption\">%s: %s</p>\n\n%s\n\n</div>",
		html.EscapeString(slug), label, caption, strings.TrimSpace(body)), nil
}

// ref renders `[% f slug %]` and `[% t slug %]` as a link to the declaration.
func (e *expander) ref(d directive.Directive, kind string, paths map[string]string) (string, error) {
	slug := d.Arg(0)
	if slug == "" {
		slug, _ = d.Slug()
	}
	if slug == "" {
		return "", ferrors.ContentError("bad '"+d.Name+"' directive").
			WithContext("file", e.node.Source()).
			WithContext("args", d.Describe()).
			WithCause(ferrors.ErrMissingSlug).Build()
	}
	label, err := e.filters.Label(kind, slug)
	if err != nil {
		return "", e.annotate(err, d)
	}
	return fmt.Sprintf(`<a href="%s#%s">%s</a>`, pageHref(paths[slug]), html.EscapeString(slug), label), nil
}

// cite renders `[% b key1 key2 %]` as bracketed links into the bibliography.
func (e *expander) cite(d directive.Directive) (string, error) {
	if len(d.Args) == 0 {
		return "", ferrors.ContentError("citation without keys").
			WithContext("file", e.node.Source()).
			WithContext("args", d.Describe()).
			WithCause(ferrors.ErrUnknownCitation).Build()
	}
	parts := make([]string, 0, len(d.Args))
	for _, key := range d.Args {
		if !e.state.Bibliography.Has(key) {
			return "", ferrors.ContentError("unknown citation key").
				WithContext("file", e.node.Source()).
				WithContext("key", key).
				WithCause(ferrors.ErrUnknownCitation).Build()
		}
		k := html.EscapeString(key)
		parts = append(parts, fmt.Sprintf(`<a href="%s%s/#%s">%s</a>`, filters.RootPrefix, BibSlug, k, k))
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func (e *expander) slug(d directive.Directive) (string, error) {
	slug, ok := d.Slug()
	if !ok {
		return "", ferrors.ContentError("bad '"+d.Name+"' directive").
			WithContext("file", e.node.Source()).
			WithContext("args", d.Describe()).
			WithCause(ferrors.ErrMissingSlug).Build()
	}
	return slug, nil
}

func (e *expander) attr(d directive.Directive, key string) (string, error) {
	v, ok := d.Attr(key)
	if !ok || v == "" {
		return "", ferrors.ContentError("'"+d.Name+"' directive has no "+key).
			WithContext("file", e.node.Source()).
			WithContext("args", d.Describe()).
			WithCause(ferrors.ErrMissingFile).Build()
	}
	return v, nil
}

func (e *expander) caption(d directive.Directive) (string, error) {
	raw, ok := d.Attr("caption")
	if !ok {
		return "", nil
	}
	out, err := e.md.Inline(raw)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryContent, "cannot render caption").
			Fatal().WithContext("file", e.node.Source()).Build()
	}
	return out, nil
}

// asset returns the site-rooted location of a file stored beside the page.
// Assets are copied into the same relative directory under out_dir.
func (e *expander) asset(name string) string {
	rel, err := filepath.Rel(e.srcDir, filepath.Dir(e.node.FilePath))
	if err != nil || rel == "." {
		return filters.RootPrefix + name
	}
	return filters.RootPrefix + path.Join(filepath.ToSlash(rel), name)
}

func (e *expander) annotate(err error, d directive.Directive) error {
	if ce, ok := ferrors.AsClassified(err); ok {
		return ce.WithContext("file", e.node.Source()).WithContext("directive", d.Describe())
	}
	return err
}

// pageHref links to the page at the slash-joined node path key.
func pageHref(key string) string {
	if key == "" {
		return filters.RootPrefix
	}
	return filters.RootPrefix + key + "/"
}
