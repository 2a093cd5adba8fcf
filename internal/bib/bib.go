// Package bib loads a BibTeX database and formats it as the book's
// reference list.
package bib

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/nickng/bibtex"
	"golang.org/x/net/html"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
)

// Style names a formatting and ordering style.
type Style string

const (
	// StyleUnsrt keeps database order.
	StyleUnsrt Style = "unsrt"
	// StylePlain sorts by first-author surname, then year, then title.
	StylePlain Style = "plain"
)

// Entry is one normalised bibliography record.
type Entry struct {
	Key     string
	Type    string
	Authors []Author
	Fields  map[string]string
}

// Field returns a lower-cased field, or "".
func (e Entry) Field(name string) string { return e.Fields[name] }

// Author is a parsed name.
type Author struct {
	First string
	Last  string
}

func (a Author) String() string {
	if a.First == "" {
		return a.Last
	}
	return a.First + " " + a.Last
}

// Bibliography is the formatted reference list plus the keys it defines.
type Bibliography struct {
	HTML    string
	Entries []Entry
	keys    map[string]int
}

// Has reports whether key is defined.
func (b *Bibliography) Has(key string) bool {
	if b == nil {
		return false
	}
	_, ok := b.keys[key]
	return ok
}

// Keys returns entry keys in output order.
func (b *Bibliography) Keys() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = e.Key
	}
	return out
}

// Len returns the number of entries.
func (b *Bibliography) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Entries)
}

// Load reads and formats a BibTeX file.
func Load(path string, style Style) (*Bibliography, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ResourceError("bibliography not found").
				WithContext("file", path).WithCause(err).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryResource, "cannot read bibliography").
			Fatal().WithContext("file", path).Build()
	}
	b, err := Parse(bytes.NewReader(data), style)
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return nil, ce.WithContext("file", path)
		}
		return nil, err
	}
	return b, nil
}

// Parse reads BibTeX from r and formats it in the given style.
func Parse(r io.Reader, style Style) (*Bibliography, error) {
	db, err := bibtex.Parse(r)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryResource, "cannot parse bibliography").
			Fatal().Build()
	}
	entries := make([]Entry, 0, len(db.Entries))
	keys := make(map[string]int, len(db.Entries))
	for _, be := range db.Entries {
		if _, dup := keys[be.CiteName]; dup {
			return nil, ferrors.ResourceError("duplicate bibliography key").
				WithContext("key", be.CiteName).Build()
		}
		keys[be.CiteName] = len(entries)
		entries = append(entries, normalise(be))
	}

	switch style {
	case StyleUnsrt, "":
	case StylePlain:
		sortPlain(entries)
	default:
		return nil, ferrors.ConfigError("unknown bibliography style").
			WithContext("style", string(style)).Build()
	}
	for i, e := range entries {
		keys[e.Key] = i
	}
	return &Bibliography{HTML: render(entries), Entries: entries, keys: keys}, nil
}

func normalise(be *bibtex.BibEntry) Entry {
	e := Entry{Key: be.CiteName, Type: strings.ToLower(be.Type), Fields: map[string]string{}}
	for name, v := range be.Fields {
		if v == nil {
			continue
		}
		e.Fields[strings.ToLower(name)] = clean(v.String())
	}
	e.Authors = parseAuthors(e.Fields["author"])
	if len(e.Authors) == 0 {
		e.Authors = parseAuthors(e.Fields["editor"])
	}
	return e
}

// clean drops TeX grouping braces and collapses whitespace.
func clean(s string) string {
	s = strings.NewReplacer("{", "", "}", "", "~", " ", `\&`, "&", "--", "–").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func parseAuthors(s string) []Author {
	if s == "" {
		return nil
	}
	var out []Author
	for _, part := range strings.Split(s, " and ") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if last, first, ok := strings.Cut(part, ","); ok {
			out = append(out, Author{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)})
			continue
		}
		words := strings.Fields(part)
		out = append(out, Author{
			First: strings.Join(words[:len(words)-1], " "),
			Last:  words[len(words)-1],
		})
	}
	return out
}

func sortPlain(entries []Entry) {
	sortKey := func(e Entry) string {
		last := ""
		if len(e.Authors) > 0 {
			last = e.Authors[0].Last
		}
		return strings.ToLower(last) + "\x00" + e.Field("year") + "\x00" + strings.ToLower(e.Field("title"))
	}
	sort.SliceStable(entries, func(i, j int) bool { return sortKey(entries[i]) < sortKey(entries[j]) })
}

func render(entries []Entry) string {
	var sb strings.Builder
	sb.WriteString(`<dl class="bibliography">` + "\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "<dt id=\"%s\">%s</dt>\n", html.EscapeString(e.Key), html.EscapeString(e.Key))
		fmt.Fprintf(&sb, "<dd>%s</dd>\n", formatEntry(e))
	}
	sb.WriteString("</dl>")
	return sb.String()
}

func formatEntry(e Entry) string {
	var parts []string
	if names := joinAuthors(e.Authors); names != "" {
		parts = append(parts, esc(names)+":")
	}
	title := e.Field("title")
	switch e.Type {
	case "book", "booklet", "manual", "phdthesis", "mastersthesis", "techreport":
		if title != "" {
			parts = append(parts, "<em>"+esc(title)+"</em>.")
		}
	default:
		if title != "" {
			parts = append(parts, "“"+esc(title)+"”.")
		}
	}
	if venue := venueOf(e); venue != "" {
		parts = append(parts, venue+".")
	}
	if u := e.Field("url"); u != "" {
		parts = append(parts, fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(u), esc(u)))
	}
	if note := e.Field("note"); note != "" {
		parts = append(parts, esc(note)+".")
	}
	return strings.Join(parts, " ")
}

func venueOf(e Entry) string {
	var bits []string
	switch e.Type {
	case "article":
		j := e.Field("journal")
		if v := e.Field("volume"); v != "" {
			j += " " + v
			if n := e.Field("number"); n != "" {
				j += "(" + n + ")"
			}
		}
		bits = append(bits, "<em>"+esc(strings.TrimSpace(j))+"</em>")
	case "inproceedings", "incollection":
		if bt := e.Field("booktitle"); bt != "" {
			bits = append(bits, "In <em>"+esc(bt)+"</em>")
		}
	case "phdthesis", "mastersthesis":
		bits = append(bits, esc(e.Field("school")))
	case "techreport":
		bits = append(bits, esc(e.Field("institution")))
	}
	if p := e.Field("publisher"); p != "" {
		bits = append(bits, esc(p))
	}
	if y := e.Field("year"); y != "" {
		bits = append(bits, esc(y))
	}
	if pages := e.Field("pages"); pages != "" {
		bits = append(bits, "pp. "+esc(pages))
	}
	var kept []string
	for _, b := range bits {
		if b != "" && b != "<em></em>" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, ", ")
}

func joinAuthors(as []Author) string {
	names := make([]string, len(as))
	for i, a := range as {
		names[i] = a.String()
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}

func esc(s string) string { return html.EscapeString(s) }
