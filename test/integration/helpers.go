package integration

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/cempisirgen/mccole/internal/config"
)

// PageStructure is the part of a rendered page the integration tests compare.
type PageStructure struct {
	Title string
	H1    string
	IDs   []string
	Links []string
}

// setupBookRepo copies a fixture book into a fresh git repository with one
// commit and returns the repository directory and the commit hash.
func setupBookRepo(t *testing.T, fixture string) (string, string) {
	t.Helper()

	tmpDir := t.TempDir()
	require.NoError(t, copyDir(fixture, tmpDir), "failed to copy fixture book")

	repo, err := git.PlainInit(tmpDir, false)
	require.NoError(t, err, "failed to initialize git repo")

	w, err := repo.Worktree()
	require.NoError(t, err, "failed to get worktree")
	require.NoError(t, w.AddGlob("."), "failed to add files to git")

	hash, err := w.Commit("Initial test commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err, "failed to create initial commit")

	return tmpDir, hash.String()
}

// copyDir recursively copies a directory tree.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		targetPath := filepath.Join(dst, relPath)
		if info.IsDir() {
			return os.MkdirAll(targetPath, 0o750)
		}
		return copyFile(path, targetPath)
	})
}

// copyFile copies a single file.
func copyFile(src, dst string) error {
	// #nosec G304 -- test utility with paths from test setup, not user input
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- test utility with paths from test setup, not user input
	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	_, err = io.Copy(dstFile, srcFile)
	return err
}

// loadBookConfig loads the configuration of a copied fixture.
func loadBookConfig(t *testing.T, dir string) *config.Config {
	t.Helper()

	cfg, err := config.Load(filepath.Join(dir, config.DefaultFile))
	require.NoError(t, err, "failed to load test config")
	return cfg
}

// outputFiles lists every file under dir as slash-separated relative paths.
func outputFiles(t *testing.T, dir string) []string {
	t.Helper()

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	return files
}

// parsePage extracts the comparable structure of a rendered page.
func parsePage(t *testing.T, path string) PageStructure {
	t.Helper()

	// #nosec G304 -- test utility with paths from test setup, not user input
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	doc, err := html.Parse(f)
	require.NoError(t, err, "failed to parse %s", path)

	var ps PageStructure
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				ps.Title = textOf(n)
			case "h1":
				if ps.H1 == "" {
					ps.H1 = textOf(n)
				}
			case "a":
				if href := attr(n, "href"); href != "" {
					ps.Links = append(ps.Links, href)
				}
			}
			if id := attr(n, "id"); id != "" {
				ps.IDs = append(ps.IDs, id)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return ps
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
