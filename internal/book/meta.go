package book

import "fmt"

// Front matter keys the build reads.
const (
	KeyTag      = "tag"
	KeyTitle    = "title"
	KeySyllabus = "syllabus"
)

// Meta is one page's front matter.
type Meta map[string]any

// HasTag reports whether the tag key is present at all. Numbering keys on
// presence; a null tag still makes a chapter number.
func (m Meta) HasTag() bool {
	_, ok := m[KeyTag]
	return ok
}

// Tag returns the structural tag when it is set to a non-null value.
func (m Meta) Tag() (string, bool) {
	v, ok := m[KeyTag]
	if !ok || v == nil {
		return "", false
	}
	return stringOf(v), true
}

// Title returns the page title.
func (m Meta) Title() (string, bool) {
	v, ok := m[KeyTitle]
	if !ok {
		return "", false
	}
	return stringOf(v), true
}

// Syllabus returns the syllabus items, or nil.
func (m Meta) Syllabus() []string {
	v, ok := m[KeySyllabus]
	if !ok || v == nil {
		return nil
	}
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, stringOf(it))
		}
		return out
	default:
		return []string{stringOf(v)}
	}
}

// Clone copies the top level of m.
func (m Meta) Clone() Meta {
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}
