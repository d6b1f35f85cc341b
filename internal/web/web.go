package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/eldtechnologies/intake/internal/forms"
)

//go:embed templates/*.html
var templateFS embed.FS

// FormPage drives the contact form template.
type FormPage struct {
	CSRFToken string
	Values    forms.Input
	Errors    []forms.FieldError
}

// SuccessPage drives the post-submit confirmation template.
type SuccessPage struct {
	Name string
}

// SubmissionRow is one rendered row of the admin table.
type SubmissionRow struct {
	ID        int64
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// SubmissionsPage drives the admin table template.
type SubmissionsPage struct {
	Submissions []SubmissionRow
	Total       int64
	Limit       int
	Offset      int
	PrevOffset  int
	NextOffset  int
	HasPrev     bool
	HasNext     bool
}

// ErrorPage drives the shared error template.
type ErrorPage struct {
	Status int
	Title  string
	Detail string
}

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04:05")
	},
}

// Renderer renders the embedded HTML pages. Pages render into a buffer
// first so a template fault never leaks a half-written body.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses all embedded pages. Call once at startup.
func NewRenderer() (*Renderer, error) {
	pages := []string{"form", "success", "submissions", "error"}
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.templates[page] = t
	}
	return r, nil
}

// Render writes the named page with the given status code.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
