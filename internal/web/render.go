// Package web renders the staff pages from embedded html/template files
// and carries one-shot flash messages between redirects.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-orders/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data passed to every template.
type Page struct {
	Title    string
	Username string
	Role     model.Role
	Flash    Flash
	Data     any
}

// Renderer implements echo.Renderer.  Each page is parsed together with
// base.html so every page shares the layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the embedded templates.  Times are shown in loc.
func NewRenderer(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.Local
	}
	funcs := template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"clock": func(t time.Time) string { return t.In(loc).Format("15:04") },
		"day":   func(t time.Time) string { return t.In(loc).Format("02/01/2006") },
		"stamp": func(t time.Time) string { return t.In(loc).Format("02/01/2006 15:04") },
	}
	base, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base: %w", err)
	}
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, f := range files {
		name := path.Base(f)
		if name == "base.html" {
			continue
		}
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(name, ".html")] = t
	}
	return r, nil
}

// Render writes the named page.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "base.html", data)
}
