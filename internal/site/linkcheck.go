package site

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
)

// Link is a local reference found in a rendered page.
type Link struct {
	Page string // file the link appears in
	URL  string
	Tag  string // a, img, link, script
}

// BrokenLink is a Link whose target file or anchor does not exist.
type BrokenLink struct {
	Link
	Reason string
}

func (b BrokenLink) String() string {
	return fmt.Sprintf("%s: <%s> %s (%s)", b.Page, b.Tag, b.URL, b.Reason)
}

// ExtractLinks returns the relative links of one rendered page.
func ExtractLinks(page string) ([]Link, error) {
	f, err := os.Open(filepath.Clean(page))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot open rendered page").
			Fatal().WithContext("file", page).Build()
	}
	defer func() { _ = f.Close() }()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "cannot parse rendered page").
			Fatal().WithContext("file", page).Build()
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			key := ""
			switch n.Data {
			case "a", "link":
				key = "href"
			case "img", "script":
				key = "src"
			}
			if v := getAttr(n, key); key != "" && isLocal(v) {
				links = append(links, Link{Page: page, URL: v, Tag: n.Data})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

// CheckLinks verifies every local link of the given pages against the
// files on disk, including fragment targets inside rendered pages.
func CheckLinks(pages []string) ([]BrokenLink, error) {
	ids := map[string]map[string]bool{}
	var broken []BrokenLink
	for _, page := range pages {
		links, err := ExtractLinks(page)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			if reason := check(l, ids); reason != "" {
				broken = append(broken, BrokenLink{Link: l, Reason: reason})
			}
		}
	}
	return broken, nil
}

// BrokenLinksError folds a non-empty report into a validation error.
func BrokenLinksError(broken []BrokenLink) error {
	if len(broken) == 0 {
		return nil
	}
	lines := make([]string, 0, len(broken))
	for _, b := range broken {
		lines = append(lines, b.String())
	}
	return ferrors.ValidationError(fmt.Sprintf("%d broken link(s)", len(broken))).
		WithContext("links", strings.Join(lines, "; ")).Build()
}

func check(l Link, ids map[string]map[string]bool) string {
	u, err := url.Parse(l.URL)
	if err != nil {
		return "unparseable"
	}
	target := l.Page
	if u.Path != "" {
		target = filepath.Join(filepath.Dir(l.Page), filepath.FromSlash(u.Path))
		info, err := os.Stat(target)
		if err != nil {
			return "missing target"
		}
		if info.IsDir() {
			target = filepath.Join(target, OutputFile)
			if _, err := os.Stat(target); err != nil {
				return "missing index"
			}
		}
	}
	if u.Fragment == "" || filepath.Ext(target) != ".html" {
		return ""
	}
	known, ok := ids[target]
	if !ok {
		known, err = collectIDs(target)
		if err != nil {
			return "unreadable target"
		}
		ids[target] = known
	}
	if !known[u.Fragment] {
		return "missing anchor"
	}
	return ""
}

func collectIDs(page string) (map[string]bool, error) {
	f, err := os.Open(filepath.Clean(page))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}
	out := map[string]bool{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := getAttr(n, "id"); id != "" {
				out[id] = true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

// isLocal reports whether a link points into the generated site.
func isLocal(link string) bool {
	if link == "" {
		return false
	}
	for _, p := range []string{"mailto:", "tel:", "javascript:", "data:", "//"} {
		if strings.HasPrefix(link, p) {
			return false
		}
	}
	u, err := url.Parse(link)
	if err != nil {
		return true
	}
	return u.Scheme == "" && u.Host == ""
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
