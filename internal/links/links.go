// Package links holds the book-wide table of reference-style link targets
// and computes the per-page definition blocks.
package links

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
)

// Link is one record of the link table.
type Link struct {
	Key   string `yaml:"key"`
	URL   string `yaml:"url"`
	Title string `yaml:"title,omitempty"`
}

// Table keeps links in file order with lookup by key.
type Table struct {
	order []Link
	index map[string]int
}

// NewTable builds a table, rejecting incomplete records and duplicate keys.
func NewTable(records []Link) (*Table, error) {
	t := &Table{index: make(map[string]int, len(records))}
	for i, rec := range records {
		if rec.Key == "" || rec.URL == "" {
			return nil, ferrors.ResourceError("link record needs key and url").
				WithContext("index", i).WithContext("key", rec.Key).
				WithCause(ferrors.ErrBadLinkRecord).Build()
		}
		if _, dup := t.index[rec.Key]; dup {
			return nil, ferrors.ResourceError("duplicate link key").
				WithContext("key", rec.Key).
				WithCause(ferrors.ErrDuplicateLink).Build()
		}
		t.index[rec.Key] = len(t.order)
		t.order = append(t.order, rec)
	}
	return t, nil
}

// Load reads a YAML list of link records.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ResourceError("link table not found").
				WithContext("file", path).WithCause(err).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryResource, "cannot read link table").
			Fatal().WithContext("file", path).Build()
	}
	var records []Link
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryResource, "cannot parse link table").
			Fatal().WithContext("file", path).Build()
	}
	t, err := NewTable(records)
	if err != nil {
		var ce *ferrors.ClassifiedError
		if errors.As(err, &ce) {
			return nil, ce.WithContext("file", path)
		}
		return nil, err
	}
	return t, nil
}

// Len returns the number of links.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Get looks up a link by key.
func (t *Table) Get(key string) (Link, bool) {
	if t == nil {
		return Link{}, false
	}
	i, ok := t.index[key]
	if !ok {
		return Link{}, false
	}
	return t.order[i], true
}

// All returns the links in table order.
func (t *Table) All() []Link {
	if t == nil {
		return nil
	}
	out := make([]Link, len(t.order))
	copy(out, t.order)
	return out
}

var refPattern = regexp.MustCompile(`\[.*?\]\[(.+?)\]`)

// UsedKeys returns the distinct keys referenced as [label][key] in text,
// in order of first use.
func UsedKeys(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range refPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Block returns the reference definitions needed by text, one `[key]: url`
// line per used key, in table order. Keys absent from the table are skipped.
func (t *Table) Block(text string) string {
	if t.Len() == 0 {
		return ""
	}
	used := map[string]bool{}
	for _, k := range UsedKeys(text) {
		used[k] = true
	}
	var lines []string
	for _, l := range t.order {
		if used[l.Key] {
			lines = append(lines, "["+l.Key+"]: "+l.URL)
		}
	}
	return strings.Join(lines, "\n")
}

// Missing returns the used keys that the table does not define.
func (t *Table) Missing(text string) []string {
	var out []string
	for _, k := range UsedKeys(text) {
		if _, ok := t.Get(k); !ok {
			out = append(out, k)
		}
	}
	return out
}
