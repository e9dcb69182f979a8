// Package web renders the upload and review views and serves their static assets.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/researchmate/webclient/internal/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

// PageTemplate is the name of the root page template.
const PageTemplate = "index"

// Page is everything the page template needs. It carries no behavior.
type Page struct {
	State       models.SessionState
	DownloadURL string
	Alert       string
	AcceptType  string
	Year        int
}

// URLBuilder turns a server-provided relative path into an absolute link.
type URLBuilder func(path string) string

// NewPage builds the view model for a session snapshot. alert is shown once
// as a blocking dialog when non-empty.
func NewPage(state models.SessionState, buildURL URLBuilder, alert string) Page {
	p := Page{
		State:      state,
		Alert:      alert,
		AcceptType: models.DocxContentType,
		Year:       time.Now().Year(),
	}
	if state.InReview() && buildURL != nil {
		p.DownloadURL = buildURL(state.Review.DownloadURL)
	}
	return p
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Render writes the named template.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// StaticFS returns the embedded static directory as the root.
func StaticFS() (fs.FS, error) {
	return fs.Sub(staticFiles, "static")
}

// RegisterStaticRoutes serves the embedded script and stylesheet under /static.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := StaticFS()
	if err != nil {
		return err
	}

	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	e.GET("/static/*", func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(c.Response(), c.Request())
		return nil
	})
	return nil
}
