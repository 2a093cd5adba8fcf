package bib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
)

const sample = `
@book{wilson2024,
  author = {Wilson, Greg},
  title = {Software Design by Example},
  publisher = {CRC Press},
  year = {2024}
}

@article{brooks1987,
  author = {Frederick P. Brooks},
  title = {No Silver Bullet},
  journal = {Computer},
  volume = {20},
  number = {4},
  year = {1987},
  pages = {10--19}
}

@inproceedings{abelson1985,
  author = {Harold Abelson and Gerald Jay Sussman and Julie Sussman},
  title = {Structure and {Interpretation}},
  booktitle = {Proceedings of Something},
  year = {1985}
}
`

func TestParse_UnsrtKeepsDatabaseOrder(t *testing.T) {
	b, err := Parse(strings.NewReader(sample), StyleUnsrt)
	require.NoError(t, err)
	assert.Equal(t, []string{"wilson2024", "brooks1987", "abelson1985"}, b.Keys())
	assert.Equal(t, 3, b.Len())
	assert.True(t, b.Has("brooks1987"))
	assert.False(t, b.Has("knuth1968"))

	assert.True(t, strings.HasPrefix(b.HTML, `<dl class="bibliography">`))
	assert.True(t, strings.HasSuffix(b.HTML, `</dl>`))
	assert.Contains(t, b.HTML, `<dt id="wilson2024">wilson2024</dt>`)
	assert.Contains(t, b.HTML, `Greg Wilson: <em>Software Design by Example</em>. CRC Press, 2024.`)
	assert.Contains(t, b.HTML, `<em>Computer 20(4)</em>`)
	assert.Contains(t, b.HTML, `pp. 10–19`)
	assert.Contains(t, b.HTML, `Harold Abelson, Gerald Jay Sussman, and Julie Sussman:`)
	assert.Contains(t, b.HTML, `Structure and Interpretation`)
}

func TestParse_PlainSortsBySurname(t *testing.T) {
	b, err := Parse(strings.NewReader(sample), StylePlain)
	require.NoError(t, err)
	assert.Equal(t, []string{"abelson1985", "brooks1987", "wilson2024"}, b.Keys())
	assert.True(t, b.Has("wilson2024"))

	first := strings.Index(b.HTML, `id="abelson1985"`)
	last := strings.Index(b.HTML, `id="wilson2024"`)
	assert.Less(t, first, last)
}

func TestParse_UnknownStyle(t *testing.T) {
	_, err := Parse(strings.NewReader(sample), Style("alpha"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestParse_DuplicateKey(t *testing.T) {
	src := "@misc{a, title={One}}\n@misc{a, title={Two}}\n"
	_, err := Parse(strings.NewReader(src), StyleUnsrt)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryResource))
}

func TestLoad_MissingFileIsResourceError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "bibliography.bib"), StyleUnsrt)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryResource))
	assert.Contains(t, err.Error(), "bibliography.bib")
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bibliography.bib")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	b, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())
}

func TestParseAuthors(t *testing.T) {
	as := parseAuthors("Knuth, Donald E. and Leslie Lamport and Plato")
	require.Len(t, as, 3)
	assert.Equal(t, Author{First: "Donald E.", Last: "Knuth"}, as[0])
	assert.Equal(t, Author{First: "Leslie", Last: "Lamport"}, as[1])
	assert.Equal(t, "Plato", as[2].String())
}

func TestNilBibliography(t *testing.T) {
	var b *Bibliography
	assert.False(t, b.Has("x"))
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Keys())
}
