// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/markdown"
	"github.com/olegiv/concierge/internal/pricing"
	"github.com/olegiv/concierge/internal/util"
	"github.com/olegiv/concierge/internal/vip"
)

// dateLayouts per language for long dates.
var dateLayouts = map[string]string{
	"en": "January 2, 2006",
	"fr": "2 January 2006",
	"it": "2 January 2006",
}

// Funcs returns the template functions.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"T":          i18n.T,
		"price":      pricing.FormatString,
		"markdown":   markdown.ToHTML,
		"excerpt":    markdown.Excerpt,
		"formatDate": formatDate,
		"isoDate": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"langName": langName,
		"isAdmin": func(s *vip.Session) bool {
			return s.IsAdmin()
		},
		"canViewPrivate": func(s *vip.Session) bool {
			return s.CanViewPrivate()
		},
		"slugify": util.Slugify,
		"join":    strings.Join,
		"truncate": func(s string, length int) string {
			r := []rune(s)
			if len(r) <= length {
				return s
			}
			return string(r[:length]) + "…"
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},
		"dict": dict,
	}
}

// formatDate formats t as a long date with localized month names.
func formatDate(t time.Time, lang string) string {
	layout, ok := dateLayouts[lang]
	if !ok {
		layout = dateLayouts["en"]
	}
	out := t.Format(layout)
	month := t.Month().String()
	if key := "month." + strings.ToLower(month); i18n.Has(key) {
		out = strings.Replace(out, month, i18n.T(lang, key), 1)
	}
	return out
}

// langName returns the name of a language in that language, e.g. "français".
func langName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return display.Self.Name(tag)
}

// dict builds a map from alternating keys and values, for passing several
// values to a partial.
func dict(values ...any) map[string]any {
	m := make(map[string]any, len(values)/2)
	for i := 0; i+1 < len(values); i += 2 {
		if k, ok := values[i].(string); ok {
			m[k] = values[i+1]
		}
	}
	return m
}
