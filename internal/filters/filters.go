// Package filters provides the render-time functions templates call to turn
// build state into navigation links, chapter labels and syllabus lists.
//
// Every filter is a pure function of a node and the finished State. Lookups
// that fail indicate a mismatch between content and configuration and are
// returned as fatal errors.
package filters

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/cempisirgen/mccole/internal/book"
	"github.com/cempisirgen/mccole/internal/content"
	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/markdown"
)

// RootPrefix is the placeholder the host rewrites to the site root.
const RootPrefix = "@root/"

// Filters binds the filter functions to one build's State.
type Filters struct {
	state *book.State
	md    *markdown.Converter
}

// New returns filters over s.
func New(s *book.State) *Filters {
	return &Filters{state: s, md: markdown.New()}
}

// IsRoot reports whether n is the tree root.
func IsRoot(n *content.Node) bool { return n.IsRoot() }

// NotRoot is the negation of IsRoot.
func NotRoot(n *content.Node) bool { return !n.IsRoot() }

// LinkPrev returns an anchor to the previous chapter, or "" for the first.
func (f *Filters) LinkPrev(n *content.Node) (template.HTML, error) {
	return f.linkNav(n, -1)
}

// LinkNext returns an anchor to the next chapter, or "" for the last.
func (f *Filters) LinkNext(n *content.Node) (template.HTML, error) {
	return f.linkNav(n, +1)
}

func (f *Filters) linkNav(n *content.Node, step int) (template.HTML, error) {
	if n.Slug == "" {
		return "", nil
	}
	where, ok := f.state.Position(n.Slug)
	if !ok {
		return "", ferrors.InternalError("slug not found in chapters").
			WithContext("slug", n.Slug).
			WithContext("file", n.Source()).
			WithCause(ferrors.ErrUnknownSlug).Build()
	}
	target := where + step
	if target < 0 || target >= len(f.state.Chapters) {
		return "", nil
	}
	arrow := "&rArr;"
	if step < 0 {
		arrow = "&lArr;"
	}
	return template.HTML(fmt.Sprintf(`<a href="%s%s/">%s</a>`, RootPrefix, f.state.Chapters[target], arrow)), nil
}

// IsChapter reports whether n is a non-root page whose metadata has a tag.
func (f *Filters) IsChapter(n *content.Node) (bool, error) {
	if n.IsRoot() {
		return false, nil
	}
	m, err := f.meta(n)
	if err != nil {
		return false, err
	}
	_, ok := m.Tag()
	return ok, nil
}

// PartTag returns the chapter tag, which must exist.
func (f *Filters) PartTag(n *content.Node) (string, error) {
	m, err := f.meta(n)
	if err != nil {
		return "", err
	}
	tag, ok := m.Tag()
	if !ok {
		return "", ferrors.ContentError("page does not have tag").
			WithContext("slug", n.Slug).
			WithContext("file", n.Source()).
			WithCause(ferrors.ErrMissingTag).Build()
	}
	return tag, nil
}

// PartTitle returns the chapter or appendix title.
func (f *Filters) PartTitle(n *content.Node) (string, error) {
	m, err := f.meta(n)
	if err != nil {
		return "", err
	}
	title, ok := m.Title()
	if !ok {
		return "", ferrors.ContentError("page does not have title").
			WithContext("slug", n.Slug).
			WithContext("file", n.Source()).
			WithCause(ferrors.ErrMissingMeta).Build()
	}
	return title, nil
}

// PartNumber returns "Chapter 3" or "Appendix B" for a numbered page.
func (f *Filters) PartNumber(n *content.Node) (string, error) {
	num, ok := f.state.Numbers[n.Slug]
	if !ok {
		return "", ferrors.InternalError("page has no chapter number").
			WithContext("slug", n.Slug).
			WithCause(ferrors.ErrUnknownSlug).Build()
	}
	return num.String(), nil
}

// Syllabus renders the syllabus items as an HTML list, each item converted
// inline.
func (f *Filters) Syllabus(n *content.Node) (template.HTML, error) {
	m, err := f.meta(n)
	if err != nil {
		return "", err
	}
	if _, ok := m[book.KeySyllabus]; !ok {
		return "", ferrors.ContentError("no syllabus").
			WithContext("slug", n.Slug).
			WithContext("file", n.Source()).
			WithCause(ferrors.ErrMissingMeta).Build()
	}
	items := m.Syllabus()
	lines := make([]string, 0, len(items))
	for _, item := range items {
		rendered, err := f.md.Inline(item)
		if err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryContent, "cannot render syllabus item").
				Fatal().WithContext("slug", n.Slug).Build()
		}
		lines = append(lines, "<li>"+rendered+"</li>")
	}
	return template.HTML("<ul class=\"syllabus\">\n" + strings.Join(lines, "\n") + "\n</ul>"), nil
}

// Label returns the caption prefix of a figure or table, e.g. "Figure 2.1".
func (f *Filters) Label(kind, slug string) (string, error) {
	label, ok := f.state.Label(kind, slug)
	if !ok {
		return "", ferrors.ContentError("unknown cross-reference").
			WithContext("kind", kind).
			WithContext("slug", slug).
			WithCause(ferrors.ErrUnknownReference).Build()
	}
	return label, nil
}

func (f *Filters) meta(n *content.Node) (book.Meta, error) {
	m, ok := f.state.MetaFor(n.Slug)
	if !ok {
		return nil, ferrors.ContentError("page metadata not known").
			WithContext("slug", n.Slug).
			WithContext("node", n.String()).
			WithCause(ferrors.ErrMissingMeta).Build()
	}
	return m, nil
}

// FuncMap exposes the filters to html/template under their template names.
func (f *Filters) FuncMap() template.FuncMap {
	return template.FuncMap{
		"is_root":     IsRoot,
		"not_root":    NotRoot,
		"is_chapter":  f.IsChapter,
		"link_prev":   f.LinkPrev,
		"link_next":   f.LinkNext,
		"part_tag":    f.PartTag,
		"part_title":  f.PartTitle,
		"part_number": f.PartNumber,
		"syllabus":    f.Syllabus,
		"label":       f.Label,
	}
}
