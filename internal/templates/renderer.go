package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

//go:embed views/*.tmpl
var viewFS embed.FS

// Fragment names a swappable widget.
type Fragment string

const (
	FragmentNavPanel Fragment = "nav-panel"
	FragmentPricing  Fragment = "pricing-plans"
	FragmentFAQ      Fragment = "faq-list"
	FragmentChat     Fragment = "chat-box"
)

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"itoa": strconv.Itoa,
		"htmx": func() Script { return HTMX },
		"when": func(cond bool, class string) string {
			if cond {
				return class
			}
			return ""
		},
		"classes": func(parts ...string) string {
			out := parts[:0:0]
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return strings.Join(out, " ")
		},
	}
	tmpl, err := template.New("_root").Funcs(funcs).ParseFS(viewFS, "views/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("templates: parse: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page renders the full landing page.
func (r *Renderer) Page(data PageData) templ.Component {
	return r.component("page", data)
}

// Fragment renders one widget for an htmx swap.
func (r *Renderer) Fragment(name Fragment, data PageData) templ.Component {
	return r.component(string(name), data)
}

func (r *Renderer) component(name string, data PageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
			return fmt.Errorf("templates: execute %s: %w", name, err)
		}
		return nil
	})
}
