package render

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/kpp-site/internal/model"
)

// TemplateFuncs returns the helpers available to every template.
func (r *Renderer) TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"lower":     strings.ToLower,
		"upper":     strings.ToUpper,
		"hasPrefix": strings.HasPrefix,
		"truncate":  truncate,
		"add": func(a, b int) int {
			return a + b
		},
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"formatMonth": func(t time.Time) string {
			return t.Format("January 2006")
		},
		"formatNumber":   formatNumber,
		"formatCapacity": formatCapacity,
		"formatMoney":    formatMoney,
		"statusLabel":    model.ProjectStatusLabel,
		"isActive": func(current, href string) bool {
			if href == "/" {
				return current == "/"
			}
			return current == href || strings.HasPrefix(current, href+"/")
		},
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			d := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				if key, ok := values[i].(string); ok {
					d[key] = values[i+1]
				}
			}
			return d
		},
	}
}

// truncate shortens s to at most length runes.
func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return strings.TrimSpace(string(runes[:length])) + "..."
}

// formatNumber inserts thousands separators.
func formatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// formatCapacity renders megawatts, switching to gigawatts from 1000 MW.
func formatCapacity(mw float64) string {
	if mw >= 1000 {
		return strconv.FormatFloat(mw/1000, 'f', -1, 64) + " GW"
	}
	return strconv.FormatFloat(mw, 'f', -1, 64) + " MW"
}

// formatMoney renders a whole amount with separators and the currency code.
func formatMoney(amount float64, currency string) string {
	return formatNumber(int64(amount+0.5)) + " " + currency
}
