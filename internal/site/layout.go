package site

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed layouts/page.html layouts/mccole.css
var layoutFS embed.FS

const (
	layoutName = "page.html"
	styleName  = "mccole.css"
)

func parseLayout(funcs template.FuncMap) (*template.Template, error) {
	return template.New(layoutName).
		Funcs(funcs).
		Option("missingkey=error").
		ParseFS(layoutFS, "layouts/"+layoutName)
}

func stylesheet() ([]byte, error) {
	return fs.ReadFile(layoutFS, "layouts/"+styleName)
}
