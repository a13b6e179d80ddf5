// Package view holds the embedded page templates and static assets.
package view

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/pkg/errors"

	"github.com/okbk/onepage/internal/page"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Template names rendered by the server.
const (
	Index          = "index.html"
	Nav            = "nav.html"
	ThemeButton    = "theme_button.html"
	Modal          = "modal.html"
	ContactNotice  = "contact_notice.html"
	AdminLogin     = "admin_login.html"
	AdminDashboard = "admin_dashboard.html"
	AdminError     = "admin_error.html"
)

// Data is what every page-level template receives.
type Data struct {
	page.View
	Year   int
	Static bool
	// PageID identifies the live page behind this document. Fragment
	// requests send it back in the X-Page-Id header.
	PageID string
}

// NewData wraps a page snapshot for rendering.
func NewData(v page.View) Data {
	return Data{View: v, Year: time.Now().Year()}
}

// Templates parses every embedded template.
func Templates() (*template.Template, error) {
	t, err := template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing templates")
	}
	return t, nil
}

// Static returns the embedded asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}
	return sub
}

// Render writes the full page for v. Static renders omit the live endpoints.
func Render(w io.Writer, v page.View, static bool) error {
	t, err := Templates()
	if err != nil {
		return err
	}
	data := NewData(v)
	data.Static = static
	return errors.Wrap(t.ExecuteTemplate(w, Index, data), "rendering page")
}
