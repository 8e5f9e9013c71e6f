// Package views renders the HTML pages. Templates are embedded html/template
// files exposed to handlers as templ components.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	appI18n "github.com/pavelanni/examsys/internal/i18n"
	"github.com/pavelanni/examsys/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// base is never executed directly; each render works on a clone so the
// request-scoped functions can be bound.
var base = template.Must(template.New("").Funcs(placeholderFuncs()).ParseFS(templateFS, "templates/*.html"))

type flashCtxKey struct{}

// Flash is a one-shot message shown at the top of the next page.
type Flash struct {
	Kind    string
	Message string
}

// WithFlash stores the flash to render in ctx.
func WithFlash(ctx context.Context, f Flash) context.Context {
	return context.WithValue(ctx, flashCtxKey{}, f)
}

func flashFromCtx(ctx context.Context) *Flash {
	if f, ok := ctx.Value(flashCtxKey{}).(Flash); ok && f.Message != "" {
		return &f
	}
	return nil
}

func placeholderFuncs() template.FuncMap {
	return requestFuncs(context.Background())
}

func requestFuncs(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"T":  func(id string) string { return appI18n.T(ctx, id) },
		"Tp": func(id string, n int) string { return appI18n.Tp(ctx, id, n) },
		"Td": func(id string, kv ...any) string {
			data := make(map[string]any, len(kv)/2)
			for i := 0; i+1 < len(kv); i += 2 {
				data[fmt.Sprint(kv[i])] = kv[i+1]
			}
			return appI18n.Td(ctx, id, data)
		},
		"lang":    func() string { return appI18n.Lang(ctx) },
		"dir":     func() string { return appI18n.Dir(ctx) },
		"csrf":    func() string { return model.CSRFTokenFromContext(ctx) },
		"session": func() *model.Session { return model.SessionFromContext(ctx) },
		"flash":   func() *Flash { return flashFromCtx(ctx) },
		"ago":     func(t time.Time) string { return humanize.Time(t) },
		"date":    func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"num":     func(f float64) string { return humanize.FormatFloat("#,###.#", f) },
		"comma":   func(n int) string { return humanize.Comma(int64(n)) },
		"grade": func(g *string) string {
			if g == nil {
				return "-"
			}
			return *g
		},
		"clock": model.FormatClock,
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
	}
}

// page returns a component rendering the named template with data.
func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, err := base.Clone()
		if err != nil {
			return fmt.Errorf("clone templates: %w", err)
		}
		t = t.Funcs(requestFuncs(ctx))
		tmpl := t.Lookup(name)
		if tmpl == nil {
			return fmt.Errorf("template %q not found", name)
		}
		return templ.FromGoHTML(tmpl, data).Render(ctx, w)
	})
}
