// Package web holds the embedded HTML templates.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"add":     func(a, b int) int { return a + b },
	"join":    strings.Join,
	"short": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n]) + "…"
	},
}

// Templates parses every page and partial into one set for gin's
// SetHTMLTemplate. Pages are looked up by file name, e.g. "login.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
}
