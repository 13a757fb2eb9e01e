package httpapi

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"time"
)

//go:embed views/*.html
var views embed.FS

// ParseTemplates parses the embedded page templates.
func ParseTemplates() (*template.Template, error) {
	tmpl, err := template.New("pages").Funcs(templateFuncs).ParseFS(views, "views/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

var templateFuncs = template.FuncMap{
	"money": money,
	"old":   old,
	"date":  date,
}

// money formats cents as Brazilian reais.
func money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := cents / 100
	s := fmt.Sprintf("%d", whole)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "." + s[i:]
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, s, cents%100)
}

// old returns the flashed form value for key, or fallback when the form
// was not just submitted.
func old(input url.Values, key string, fallback any) string {
	if input != nil {
		if v, ok := input[key]; ok && len(v) > 0 {
			return v[0]
		}
	}
	if fallback == nil {
		return ""
	}
	return fmt.Sprint(fallback)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02/01/2006 15:04")
}
