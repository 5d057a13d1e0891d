// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the sitemap and robots.txt.
package seo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// XMLNamespace is the sitemaps.org 0.9 namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq is a sitemap changefreq hint.
type ChangeFreq string

const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
)

// SitemapURL is one <url> element.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap is the <urlset> document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// Entry is a site path to list. A zero UpdatedAt omits lastmod.
type Entry struct {
	Path      string
	UpdatedAt time.Time
}

// SitemapBuilder accumulates URLs under one site origin.
type SitemapBuilder struct {
	origin string
	doc    Sitemap
}

func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		origin: strings.TrimRight(siteURL, "/"),
		doc:    Sitemap{XMLNS: XMLNamespace},
	}
}

// AddHomepage lists the site root at top priority.
func (b *SitemapBuilder) AddHomepage() {
	b.Add(ChangeFreqDaily, "1.0", Entry{Path: "/"})
}

// Add lists entries sharing one change frequency and priority.
func (b *SitemapBuilder) Add(freq ChangeFreq, priority string, entries ...Entry) {
	for _, e := range entries {
		u := SitemapURL{Loc: b.origin + e.Path, ChangeFreq: freq, Priority: priority}
		if !e.UpdatedAt.IsZero() {
			u.LastMod = e.UpdatedAt.UTC().Format(time.RFC3339)
		}
		b.doc.URLs = append(b.doc.URLs, u)
	}
}

func (b *SitemapBuilder) Len() int { return len(b.doc.URLs) }

// Build renders the indented XML document with its declaration.
func (b *SitemapBuilder) Build() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(b.doc); err != nil {
		return nil, fmt.Errorf("encoding sitemap: %w", err)
	}
	return buf.Bytes(), nil
}
