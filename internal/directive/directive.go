// Package directive scans the inline `[% name args %]` markers embedded in
// Markdown pages.
//
// Scanning is total: every marker becomes a Directive whose Kind is one of
// the recognised variants or KindUnknown. Collectors switch on Kind and
// ignore what they do not handle; Unknown lets callers audit what was skipped.
package directive

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the tagged variant of a directive.
type Kind string

const (
	KindFigure    Kind = "figure"
	KindTable     Kind = "table"
	KindFigureRef Kind = "f"
	KindTableRef  Kind = "t"
	KindCite      Kind = "b"
	KindUnknown   Kind = "unknown"
)

var known = map[string]Kind{
	"figure": KindFigure,
	"table":  KindTable,
	"f":      KindFigureRef,
	"t":      KindTableRef,
	"b":      KindCite,
}

const (
	openMark  = "[%"
	closeMark = "%]"
)

// Directive is one parsed marker.
type Directive struct {
	Name  string
	Kind  Kind
	Args  []string
	Attrs map[string]string
	// Raw is the marker text between the delimiters, trimmed.
	Raw string
	// Start and End are byte offsets of the whole marker in the scanned text.
	Start, End int
}

// Attr returns a named attribute.
func (d Directive) Attr(key string) (string, bool) {
	v, ok := d.Attrs[key]
	return v, ok
}

// Slug returns the mandatory slug attribute of figure and table declarations.
func (d Directive) Slug() (string, bool) {
	v, ok := d.Attrs["slug"]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Arg returns the positional argument at i, or "".
func (d Directive) Arg(i int) string {
	if i < 0 || i >= len(d.Args) {
		return ""
	}
	return d.Args[i]
}

// Describe renders the arguments for diagnostics.
func (d Directive) Describe() string {
	keys := make([]string, 0, len(d.Attrs))
	for k := range d.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kw := make([]string, 0, len(keys))
	for _, k := range keys {
		kw = append(kw, fmt.Sprintf("%s=%q", k, d.Attrs[k]))
	}
	return fmt.Sprintf("%s args=[%s] attrs=[%s]", d.Name, strings.Join(d.Args, " "), strings.Join(kw, " "))
}

// SyntaxError reports a malformed marker.
type SyntaxError struct {
	Offset int
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg) }
func (e *SyntaxError) Unwrap() error { return e.Err }

// KindOf maps a directive name to its variant.
func KindOf(name string) Kind {
	if k, ok := known[name]; ok {
		return k
	}
	return KindUnknown
}
