// Package content models the source tree of a book: one Node per file or
// directory, visited depth-first with parents before children.
package content

import (
	"path"
	"strings"
)

// RootSlug is the slug given to the node at the top of the tree.
const RootSlug = "@root"

// MarkdownExt is the only extension the build passes look at.
const MarkdownExt = "md"

// Node is a single file or directory entry in the document tree.
type Node struct {
	// Path holds the segments from the tree root; empty for the root node.
	Path []string
	// Slug is the first path segment, or RootSlug at the root.
	Slug string
	// Ext is the file extension without the dot; empty for bare directories.
	Ext string
	// Text is the Markdown body. Passes may rewrite it.
	Text string
	// Meta is the page front matter.
	Meta map[string]any
	// FrontMatter is the raw front matter text, kept for fingerprinting.
	FrontMatter []byte
	// FilePath is the source location on disk, when there is one.
	FilePath string
	// Directives holds the per-directory hint file, if any.
	Directives map[string]any

	Children []*Node
}

// NewPage builds a Markdown node; used by tests and generated pages.
func NewPage(segments []string, text string, meta map[string]any) *Node {
	if meta == nil {
		meta = map[string]any{}
	}
	return &Node{
		Path: segments,
		Slug: SlugFor(segments),
		Ext:  MarkdownExt,
		Text: text,
		Meta: meta,
	}
}

// SlugFor derives the slug from path segments.
func SlugFor(segments []string) string {
	if len(segments) == 0 {
		return RootSlug
	}
	return segments[0]
}

// IsRoot reports whether the node sits at the tree root.
func (n *Node) IsRoot() bool { return len(n.Path) == 0 }

// IsPage reports whether build passes should process the node: a Markdown
// file with a slug.
func (n *Node) IsPage() bool { return n.Ext == MarkdownExt && n.Slug != "" }

// Key is the slash-joined path, used to order nodes and name them in errors.
func (n *Node) Key() string { return path.Join(n.Path...) }

// Source names the node for diagnostics: the file when known, else the path.
func (n *Node) Source() string {
	if n.FilePath != "" {
		return n.FilePath
	}
	if n.IsRoot() {
		return "/"
	}
	return n.Key()
}

func (n *Node) String() string {
	var sb strings.Builder
	sb.WriteString("node(")
	sb.WriteString(n.Source())
	sb.WriteString(")")
	return sb.String()
}
