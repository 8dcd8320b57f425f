// Package views holds the embedded HTML templates for the public site and the admin pages
package views

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/stooppolitics/stoop-cms/internal/models"
	"github.com/stooppolitics/stoop-cms/internal/services/public"
	"github.com/stooppolitics/stoop-cms/pkg/config"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses every page; names are the file base names, e.g. "index.html"
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(Funcs()).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return tmpl, nil
}

// MustTemplates panics when the embedded templates do not parse
func MustTemplates() *template.Template {
	return template.Must(Templates())
}

// Funcs returns the helpers available to every template
func Funcs() template.FuncMap {
	return template.FuncMap{
		"deref":    deref,
		"seconds":  seconds,
		"date":     date,
		"iso":      iso,
		"duration": duration,
	}
}

// PageData is rendered by index.html
type PageData struct {
	Site    config.SiteConfig
	Page    *public.Page
	FeedURL string
}

// LoginData is rendered by login.html
type LoginData struct {
	Site  config.SiteConfig
	Error string
	Email string
}

// AdminData is rendered by admin.html
type AdminData struct {
	Site     config.SiteConfig
	Email    string
	Episodes []models.Episode
	Unread   int64
}

// EditorData is rendered by editor.html
type EditorData struct {
	Site    config.SiteConfig
	Email   string
	Episode *models.Episode
	Nodes   []models.TranscriptNode
}

// MessageData is rendered by message.html
type MessageData struct {
	Site    config.SiteConfig
	Title   string
	Message string
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func seconds(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *f)
}

func date(v any) string {
	t, ok := timeOf(v)
	if !ok {
		return ""
	}
	return t.Format("January 2, 2006")
}

func iso(v any) string {
	t, ok := timeOf(v)
	if !ok {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func timeOf(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	}
	return time.Time{}, false
}

// duration formats seconds as m:ss or h:mm:ss
func duration(total float64) string {
	if total <= 0 {
		return ""
	}
	s := int(math.Round(total))
	h, m, sec := s/3600, (s%3600)/60, s%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
