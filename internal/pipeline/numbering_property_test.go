//go:build property
// +build property

package pipeline

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/cempisirgen/mccole/internal/book"
)

// TestNumberingProperties checks chapter and appendix numbering over
// generated chapter lists where every tagged slug precedes every untagged one.
func TestNumberingProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	layout := func(k, n int) ([]string, map[string]book.Meta) {
		chapters := make([]string, 0, k+n)
		meta := map[string]book.Meta{}
		for i := 0; i < k; i++ {
			slug := fmt.Sprintf("ch%d", i)
			chapters = append(chapters, slug)
			meta[slug] = book.Meta{"tag": slug}
		}
		for i := 0; i < n; i++ {
			slug := fmt.Sprintf("ap%d", i)
			chapters = append(chapters, slug)
			meta[slug] = book.Meta{}
		}
		return chapters, meta
	}

	properties.Property("chapters are numbered 1..K in order", prop.ForAll(
		func(k, n int) bool {
			chapters, meta := layout(k, n)
			got, err := Number(chapters, meta)
			if err != nil {
				return false
			}
			for i := 0; i < k; i++ {
				num := got[chapters[i]]
				if num.Kind != book.KindChapter || num.Number != strconv.Itoa(i+1) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
	))

	properties.Property("appendices are lettered A.. contiguously", prop.ForAll(
		func(k, n int) bool {
			chapters, meta := layout(k, n)
			got, err := Number(chapters, meta)
			if err != nil {
				return false
			}
			for i := 0; i < n; i++ {
				num := got[chapters[k+i]]
				if num.Kind != book.KindAppendix || num.Number != string(rune('A'+i)) {
					return false
				}
			}
			return len(got) == k+n
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, 26),
	))

	properties.TestingRun(t)
}
