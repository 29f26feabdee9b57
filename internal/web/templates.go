package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// LoadTemplates parses the embedded view templates.
func LoadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
	}
	return template.New("root").Funcs(funcMap).ParseFS(templateFS, "templates/*.tmpl")
}
