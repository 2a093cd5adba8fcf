package book

import "fmt"

// Kind separates chapters from appendices.
type Kind string

const (
	KindChapter  Kind = "Chapter"
	KindAppendix Kind = "Appendix"
)

// Number is the printed position of a chapter or appendix.
type Number struct {
	Kind   Kind
	Number string
}

func (n Number) String() string { return fmt.Sprintf("%s %s", n.Kind, n.Number) }

// AppendixLetter returns the letter for the appendix at offset i from the first.
func AppendixLetter(i int) string { return string(rune('A' + i)) }

// Label returns the printed caption prefix of a figure or table, such as
// "Figure 3.2", qualified by the number of the declaring page when it has one.
func (s *State) Label(kind, slug string) (string, bool) {
	var (
		n     int
		page  string
		found bool
	)
	switch kind {
	case "figure":
		n, found = s.Figures[slug]
		page = s.FigurePages[slug]
	case "table":
		n, found = s.Tables[slug]
		page = s.TablePages[slug]
	}
	if !found {
		return "", false
	}
	word := "Figure"
	if kind == "table" {
		word = "Table"
	}
	if num, ok := s.Numbers[page]; ok {
		return fmt.Sprintf("%s %s.%d", word, num.Number, n), true
	}
	return fmt.Sprintf("%s %d", word, n), true
}
