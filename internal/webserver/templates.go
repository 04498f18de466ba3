package webserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pagePrivacy      = "privacy.html"
	pageDataDeletion = "data_deletion.html"
	pageAdminList    = "admin_deletion_requests.html"
)

// Renderer holds one parsed template set per page, each layered on base.html.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{pagePrivacy, pageDataDeletion, pageAdminList} {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render buffers the page so a template error never leaves a half-written
// response behind.
func (r *Renderer) Render(w http.ResponseWriter, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
