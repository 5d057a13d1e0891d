// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markdown renders blog posts and listing descriptions to sanitized HTML.
package markdown

import (
	"bytes"
	"html"
	"html/template"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	// ugcPolicy allows the tags goldmark emits and keeps heading anchors.
	ugcPolicy = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("id").Matching(regexp.MustCompile(`^[a-z0-9-]+$`)).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
		p.AddTargetBlankToFullyQualifiedLinks(true)
		return p
	}()

	stripPolicy = bluemonday.StrictPolicy()
	spaces      = regexp.MustCompile(`\s+`)
)

// ToHTML converts Markdown source to sanitized HTML.
func ToHTML(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(ugcPolicy.SanitizeBytes(buf.Bytes()))
}

// PlainText renders src and strips all markup.
func PlainText(src string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return strings.TrimSpace(src)
	}
	text := html.UnescapeString(stripPolicy.Sanitize(buf.String()))
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}

// Excerpt returns at most n runes of plain text, cut at a word boundary.
func Excerpt(src string, n int) string {
	text := PlainText(src)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)[:n]
	cut := string(runes)
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
