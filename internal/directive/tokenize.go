package directive

import (
	"errors"
	"strings"
	"unicode"
)

type token struct {
	key   string
	value string
}

var errUnclosedQuote = errors.New("unclosed quote")

// tokenize splits on whitespace, honouring "double" and 'single' quotes with
// backslash escapes. A token of the form key=value becomes an attribute when
// key is a bare identifier.
func tokenize(s string) ([]token, error) {
	var out []token
	var cur strings.Builder
	key := ""
	inToken := false
	quoted := false
	var quote rune

	flush := func() {
		if inToken {
			out = append(out, token{key: key, value: cur.String()})
		}
		cur.Reset()
		key = ""
		inToken = false
		quoted = false
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			if r == '\\' && i+1 < len(runes) {
				i++
				cur.WriteRune(runes[i])
				continue
			}
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		case r == '"' || r == '\'':
			quote = r
			quoted = true
			inToken = true
		case r == '=' && key == "" && !quoted && isIdent(cur.String()):
			key = cur.String()
			cur.Reset()
			inToken = true
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, errUnclosedQuote
	}
	flush()
	return out, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return false
		}
	}
	return true
}
