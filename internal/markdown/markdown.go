// Package markdown converts page text to HTML with the extensions the book
// layout expects.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Converter renders Markdown. The zero value is not usable; call New.
type Converter struct {
	md goldmark.Markdown
}

// New returns a converter with tables, footnotes, definition lists and
// typographic quotes enabled. Raw HTML passes through untouched.
func New() *Converter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Footnote,
			extension.DefinitionList,
			extension.Strikethrough,
			extension.Typographer,
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Converter{md: md}
}

var defaultConverter = New()

// Render converts a whole page.
func (c *Converter) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Inline converts a single line and strips the paragraph wrapper, so the
// result can sit inside another element.
func (c *Converter) Inline(text string) (string, error) {
	out, err := c.Render(text)
	if err != nil {
		return "", err
	}
	return StripParagraph(out), nil
}

// Render converts text with the shared default converter.
func Render(text string) (string, error) { return defaultConverter.Render(text) }

// Inline converts a single line with the shared default converter.
func Inline(text string) (string, error) { return defaultConverter.Inline(text) }

// StripParagraph removes the wrapping <p> when the fragment is exactly one
// paragraph. Anything else is returned trimmed but unchanged.
func StripParagraph(fragment string) string {
	trimmed := strings.TrimSpace(fragment)
	body := &xhtml.Node{Type: xhtml.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := xhtml.ParseFragment(strings.NewReader(trimmed), body)
	if err != nil || len(nodes) != 1 {
		return trimmed
	}
	p := nodes[0]
	if p.Type != xhtml.ElementNode || p.DataAtom != atom.P {
		return trimmed
	}
	if !strings.HasPrefix(trimmed, "<p>") || !strings.HasSuffix(trimmed, "</p>") {
		return trimmed
	}
	return strings.TrimSuffix(strings.TrimPrefix(trimmed, "<p>"), "</p>")
}
