package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templateFuncs = template.FuncMap{
	"minutes": func(seconds int) int { return seconds / 60 },
	"seconds": func(seconds int) int { return seconds % 60 },
}

// pageData is the data every page template receives.
type pageData struct {
	Title   string
	Heading string

	// index and search
	Query  string
	Tracks []models.Track
	Wait   int // seconds until the visitor may add again
	Added  bool

	// queue
	State *models.QueueState

	// error
	Message        string
	UpstreamStatus int
	UpstreamBody   string
}

// templates holds one parsed set per page, each combining the layout with the page's content block.
type templates struct {
	pages map[string]*template.Template
}

func parseTemplates() (*templates, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"index", "queue", "error"} {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFiles, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &templates{pages: pages}, nil
}

// render executes page into a buffer first so a template error never leaves a half-written response.
func (t *templates) render(w http.ResponseWriter, status int, page string, data pageData) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("unknown template %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// waitSeconds rounds a wait up to whole seconds for display.
func waitSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
