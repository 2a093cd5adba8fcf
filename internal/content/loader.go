package content

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/frontmatter"
	"github.com/cempisirgen/mccole/internal/logfields"
)

// IndexFile is the Markdown file that gives a directory its own page.
const IndexFile = "index.md"

// DirectivesFile is the optional per-directory hint file.
const DirectivesFile = ".mccole.yml"

// Loader reads a source directory into a Tree.
type Loader struct {
	src     string
	exclude []string
}

// NewLoader creates a loader for src, skipping files that match any exclude glob.
func NewLoader(src string, exclude []string) *Loader {
	return &Loader{src: src, exclude: exclude}
}

// Load reads the whole source directory.
func (l *Loader) Load() (*Tree, error) {
	info, err := os.Stat(l.src)
	if err != nil || !info.IsDir() {
		return nil, ferrors.FileSystemError("source directory not found").
			WithContext("dir", l.src).WithCause(err).Build()
	}
	root, err := l.loadDir(l.src, nil)
	if err != nil {
		return nil, err
	}
	root.Slug = RootSlug
	return &Tree{Root: root}, nil
}

func (l *Loader) loadDir(dir string, segments []string) (*Node, error) {
	node := &Node{Path: segments, Slug: SlugFor(segments), FilePath: dir, Meta: map[string]any{}}

	directives, err := ReadDirectives(dir)
	if err != nil {
		return nil, err
	}
	node.Directives = directives

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot list directory").
			Fatal().WithContext("dir", dir).Build()
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)
		if strings.HasPrefix(name, ".") || l.excluded(full) {
			continue
		}
		if entry.IsDir() {
			child, err := l.loadDir(full, appendSegment(segments, name))
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
			continue
		}
		if name == IndexFile {
			if err := loadPage(node, full); err != nil {
				return nil, err
			}
			continue
		}

		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if ext == MarkdownExt {
			child := &Node{
				Path: appendSegment(segments, strings.TrimSuffix(name, "."+ext)),
				Ext:  ext,
			}
			child.Slug = SlugFor(child.Path)
			if err := loadPage(child, full); err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
			continue
		}
		child := &Node{Path: appendSegment(segments, name), Ext: ext, FilePath: full}
		child.Slug = SlugFor(child.Path)
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func (l *Loader) excluded(full string) bool {
	rel, err := filepath.Rel(l.src, full)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(full)
	for _, pat := range l.exclude {
		if ok, _ := doublestar.Match(pat, base); ok {
			return true
		}
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

func loadPage(n *Node, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read page").
			Fatal().WithContext("file", file).Build()
	}
	page, err := frontmatter.Parse(data)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryContent, "invalid front matter").
			Fatal().WithContext("file", file).Build()
	}
	n.Ext = MarkdownExt
	n.FilePath = file
	n.Meta = page.Fields
	n.FrontMatter = page.Raw
	n.Text = string(page.Body)
	slog.Debug("Loaded page", logfields.File(file), logfields.Slug(n.Slug))
	return nil
}

// ReadDirectives returns the contents of the directory hint file, or an
// empty map when the file does not exist.
func ReadDirectives(dir string) (map[string]any, error) {
	path := filepath.Join(dir, DirectivesFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read directives file").
			Fatal().WithContext("file", path).Build()
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "invalid directives file").
			Fatal().WithContext("file", path).Build()
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// ReadFile loads a file that sits next to the node's source.
func ReadFile(n *Node, name, kind string) (string, error) {
	path, err := RequireFile(n, name, kind)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read "+kind+" file").
			Fatal().WithContext("file", path).Build()
	}
	return string(data), nil
}

// RequireFile checks that a file referenced by a page exists next to its source.
func RequireFile(n *Node, name, kind string) (string, error) {
	path := filepath.Join(filepath.Dir(n.FilePath), filepath.FromSlash(name))
	if _, err := os.Stat(path); err != nil {
		return "", ferrors.ContentError("missing "+kind+" file").
			WithContext("file", name).
			WithContext("page", n.Source()).
			WithCause(ferrors.ErrMissingFile).Build()
	}
	return path, nil
}

func appendSegment(segments []string, s string) []string {
	out := make([]string, len(segments), len(segments)+1)
	copy(out, segments)
	return append(out, s)
}
