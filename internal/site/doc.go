// Package site is the reference host for the build passes: it renders every
// Markdown page of a finished build into a static HTML book.
//
// Rendering happens strictly after the pipeline. Directives are expanded
// against the build State, the page is converted with goldmark, wrapped in
// the embedded layout (which calls the filters) and written to
// out_dir/<path>/index.html with "@root/" rewritten to a relative prefix.
package site
