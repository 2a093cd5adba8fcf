package directive

import (
	"strings"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
)

// Scan returns every directive in text, in order of appearance.
// A marker preceded by a backslash is literal text and is not returned.
func Scan(text string) ([]Directive, error) {
	var out []Directive
	err := each(text, func(d Directive) error {
		out = append(out, d)
		return nil
	}, nil)
	return out, err
}

// Replace rewrites text, substituting each directive with fn's result.
// Escaped markers lose their backslash.
func Replace(text string, fn func(Directive) (string, error)) (string, error) {
	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	err := each(text, func(d Directive) error {
		repl, err := fn(d)
		if err != nil {
			return err
		}
		sb.WriteString(text[last:d.Start])
		sb.WriteString(repl)
		last = d.End
		return nil
	}, func(escape int) {
		sb.WriteString(text[last:escape])
		last = escape + 1
	})
	if err != nil {
		return "", err
	}
	sb.WriteString(text[last:])
	return sb.String(), nil
}

// Unknown lists the distinct unrecognised directive names in ds.
func Unknown(ds []Directive) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range ds {
		if d.Kind == KindUnknown && !seen[d.Name] {
			seen[d.Name] = true
			out = append(out, d.Name)
		}
	}
	return out
}

func each(text string, fn func(Directive) error, onEscape func(int)) error {
	pos := 0
	for {
		i := strings.Index(text[pos:], openMark)
		if i < 0 {
			return nil
		}
		start := pos + i
		if start > 0 && text[start-1] == '\\' {
			if onEscape != nil {
				onEscape(start - 1)
			}
			pos = start + len(openMark)
			continue
		}
		j := strings.Index(text[start+len(openMark):], closeMark)
		if j < 0 {
			return &SyntaxError{Offset: start, Msg: "unterminated directive", Err: ferrors.ErrUnterminated}
		}
		end := start + len(openMark) + j + len(closeMark)
		inner := strings.TrimSpace(text[start+len(openMark) : end-len(closeMark)])
		d, err := parse(inner, start)
		if err != nil {
			return err
		}
		d.Start, d.End = start, end
		if err := fn(d); err != nil {
			return err
		}
		pos = end
	}
}

func parse(inner string, offset int) (Directive, error) {
	toks, err := tokenize(inner)
	if err != nil {
		return Directive{}, &SyntaxError{Offset: offset, Msg: err.Error()}
	}
	if len(toks) == 0 || toks[0].key != "" {
		return Directive{}, &SyntaxError{Offset: offset, Msg: "directive has no name"}
	}
	d := Directive{Name: toks[0].value, Kind: KindOf(toks[0].value), Raw: inner, Attrs: map[string]string{}}
	for _, tk := range toks[1:] {
		if tk.key != "" {
			d.Attrs[tk.key] = tk.value
			continue
		}
		d.Args = append(d.Args, tk.value)
	}
	return d, nil
}
