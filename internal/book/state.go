// Package book holds the typed build state shared by the passes and the
// render-time filters.
//
// A State is created empty for every build. Each field is owned by exactly
// one pass; once the pipeline finishes the State is only read.
package book

import (
	"github.com/cempisirgen/mccole/internal/bib"
	"github.com/cempisirgen/mccole/internal/links"
)

// State is the per-build result of the passes.
type State struct {
	// Chapters is the declared chapter order.
	Chapters []string

	// Date is the UTC build time, "YYYY-MM-DD HH:MM:SS".
	Date string
	// Revision is the HEAD commit of the enclosing repository, if any.
	Revision string

	Bibliography *bib.Bibliography
	Links        *links.Table

	Meta    map[string]Meta
	Numbers map[string]Number

	Figures map[string]int
	Tables  map[string]int
	// FigurePages and TablePages name the page slug that declared each entry.
	FigurePages map[string]string
	TablePages  map[string]string
	// FigurePaths and TablePaths hold the slash-joined node path of that page.
	FigurePaths map[string]string
	TablePaths  map[string]string
}

// NewState returns an empty state for the given chapter order.
func NewState(chapters []string) *State {
	order := make([]string, len(chapters))
	copy(order, chapters)
	return &State{
		Chapters:    order,
		Meta:        map[string]Meta{},
		Numbers:     map[string]Number{},
		Figures:     map[string]int{},
		Tables:      map[string]int{},
		FigurePages: map[string]string{},
		TablePages:  map[string]string{},
		FigurePaths: map[string]string{},
		TablePaths:  map[string]string{},
	}
}

// Position returns the index of slug in the chapter order.
func (s *State) Position(slug string) (int, bool) {
	for i, c := range s.Chapters {
		if c == slug {
			return i, true
		}
	}
	return -1, false
}

// MetaFor returns the collected front matter for slug.
func (s *State) MetaFor(slug string) (Meta, bool) {
	m, ok := s.Meta[slug]
	return m, ok
}
