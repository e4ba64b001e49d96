package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"unicode"

	"github.com/jrsteele09/go-rift-portal/navigation"
)

//go:embed templates/*
var templateFiles embed.FS

const (
	layoutTemplate  = "layout.html"
	genericTemplate = "page.html"
)

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

var templateFuncs = template.FuncMap{
	"lower": strings.ToLower,
}

// ParseTemplate parses a page template together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

// page is a renderable view bound to a route name
type page struct {
	name  string
	title string
	tmpl  *template.Template
}

var pageTitles = map[string]string{
	"home":              "Home",
	"about":             "About",
	"signup":            "Sign up",
	"authCallback":      "Signing you in",
	"verifyEmail":       "Verify your email",
	"createProfile":     "Create your profile",
	"verifyRiotAccount": "Link your Riot account",
	"dashboard":         "Dashboard",
	"teams":             "Teams",
	"events":            "Events",
	"rankings":          "Rankings",
	"settings":          "Settings",
	"notFound":          "Page not found",
	"error":             "Something went wrong",
}

// loadPages parses one template per navigable route plus the error pages. Routes without their own
// template fall back to the generic page.
func loadPages(table *navigation.Table) (map[string]*page, error) {
	names := []string{"notFound", "error"}
	for _, path := range table.Paths() {
		m, err := table.Resolve(path)
		if err != nil {
			return nil, err
		}
		if m.Path == path {
			names = append(names, m.Route.Name)
		}
	}

	pages := make(map[string]*page, len(names))
	for _, name := range names {
		file := templateFileName(name)
		if _, err := fs.Stat(TemplateFilesFS(), file); err != nil {
			file = genericTemplate
		}
		tmpl, err := ParseTemplate(file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		title, ok := pageTitles[name]
		if !ok {
			title = name
		}
		pages[name] = &page{name: name, title: title, tmpl: tmpl}
	}
	return pages, nil
}

// templateFileName maps a route name such as verifyRiotAccount to verify_riot_account.html
func templateFileName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String() + ".html"
}
