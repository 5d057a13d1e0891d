// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render executes the site's HTML templates.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/session"
	"github.com/olegiv/concierge/internal/vip"
)

// Renderer handles template rendering with caching.
type Renderer struct {
	templates    map[string]*template.Template
	sessions     *session.Manager
	brandName    string
	siteURL      string
	contactEmail string
	isDev        bool
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS  fs.FS
	Sessions     *session.Manager
	BrandName    string
	SiteURL      string
	ContactEmail string
	IsDev        bool
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates:    make(map[string]*template.Template),
		sessions:     cfg.Sessions,
		brandName:    cfg.BrandName,
		siteURL:      strings.TrimSuffix(cfg.SiteURL, "/"),
		contactEmail: cfg.ContactEmail,
		isDev:        cfg.IsDev,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTemplates parses every page under pages/ together with the base
// layout and all partials.
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := templateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}
	pages, err := templateFiles(templatesFS, "pages")
	if err != nil {
		return fmt.Errorf("getting pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page templates found")
	}

	for _, tmplPath := range pages {
		name := strings.TrimSuffix(path.Base(tmplPath), ".html")

		// Parse in order: base layout, partials, page template
		files := []string{"layouts/base.html"}
		files = append(files, partials...)
		files = append(files, tmplPath)

		tmpl, err := template.New("").Funcs(Funcs()).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return nil
}

// templateFiles returns all .html files in a directory.
func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Description string
	Canonical   string
	OGImage     string
	Data        any
	Errors      map[string]string
	Form        any

	// Filled in by Render.
	Lang         string
	Languages    []string
	Session      *vip.Session
	Brand        string
	ContactEmail string
	SiteURL      string
	Path         string
	Flash        string
	FlashType    string
	CurrentYear  int
	IsDev        bool
}

// T translates key into the page language.
func (d TemplateData) T(key string, args ...any) string {
	return i18n.T(d.Lang, key, args...)
}

// Render renders a page with the given data and status code.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	// Add default data
	data.Lang = middleware.GetLang(req)
	data.Languages = i18n.SupportedLanguages
	data.Session = middleware.GetSession(req)
	data.Brand = r.brandName
	data.ContactEmail = r.contactEmail
	data.SiteURL = r.siteURL
	data.Path = req.URL.Path
	data.CurrentYear = time.Now().Year()
	data.IsDev = r.isDev
	if data.Canonical == "" {
		data.Canonical = r.siteURL + req.URL.Path
	}

	// Get flash message from session
	if r.sessions != nil && data.Flash == "" {
		data.Flash, data.FlashType = r.sessions.PopFlash(req.Context())
	}

	// Render to buffer first to catch errors
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}
