// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/captcha"
	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/inquiry"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/render"
	"github.com/olegiv/concierge/internal/util"
)

// honeypotField is the hidden form field bots tend to fill in.
const honeypotField = "website"

// ContactHandler handles contact and booking inquiries.
type ContactHandler struct {
	renderer  *render.Renderer
	inquiries *inquiry.Service
	captcha   *captcha.Verifier
	catalog   *catalog.Catalog
	logger    *slog.Logger
}

// NewContactHandler creates a new ContactHandler. verifier may be nil.
func NewContactHandler(renderer *render.Renderer, inquiries *inquiry.Service, verifier *captcha.Verifier, cat *catalog.Catalog, logger *slog.Logger) *ContactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{
		renderer:  renderer,
		inquiries: inquiries,
		captcha:   verifier,
		catalog:   cat,
		logger:    logger,
	}
}

// ContactData holds the data for the contact page.
type ContactData struct {
	Kinds     []inquiry.Kind
	ItemTitle string
	Captcha   template.HTML
}

// ContactSentData holds the data for the confirmation page.
type ContactSentData struct {
	Result       inquiry.Result
	ContactEmail string
}

// Form handles GET /contact. ?kind= and ?item= preselect a villa, yacht or
// service so its page can link straight to the booking form.
func (h *ContactHandler) Form(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := inquiry.Input{
		Kind:     inquiry.Kind(q.Get("kind")),
		ItemSlug: q.Get("item"),
	}.Normalize()
	if !in.Kind.Valid() {
		in.Kind = inquiry.KindContact
	}
	if !util.IsValidSlug(in.ItemSlug) {
		in.ItemSlug = ""
	}

	h.renderForm(w, r, http.StatusOK, in, nil)
}

// Submit handles POST /contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.renderer, http.StatusBadRequest)
		return
	}

	lang := middleware.GetLang(r)
	in := inquiry.Input{
		Kind:     inquiry.Kind(r.FormValue("kind")),
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Phone:    r.FormValue("phone"),
		Subject:  r.FormValue("subject"),
		ItemSlug: r.FormValue("item_slug"),
		Message:  r.FormValue("message"),
		CheckIn:  r.FormValue("check_in"),
		CheckOut: r.FormValue("check_out"),
		Language: lang,
		Honeypot: r.FormValue(honeypotField),
		Captcha:  captcha.ResponseFromForm(r),
	}
	if g := strings.TrimSpace(r.FormValue("guests")); g != "" {
		n, err := strconv.Atoi(g)
		if err != nil {
			n = -1
		}
		in.Guests = n
	}

	res, err := h.inquiries.Submit(r.Context(), in, h.meta(r))
	if err != nil {
		if fields, ok := h.formErrors(err, lang); ok {
			h.renderForm(w, r, http.StatusUnprocessableEntity, in.Normalize(), fields)
			return
		}
		h.logger.Error("failed to submit inquiry", "error", err)
		renderError(w, r, h.renderer, http.StatusInternalServerError)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "contact_sent", render.TemplateData{
		Title: i18n.T(lang, "contact.title"),
		Data: ContactSentData{
			Result:       res,
			ContactEmail: h.inquiries.ContactEmail(),
		},
	})
}

// APISubmit handles POST /api/inquiries.
func (h *ContactHandler) APISubmit(w http.ResponseWriter, r *http.Request) {
	var in inquiry.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	lang := middleware.GetLang(r)
	if in.Language == "" || !i18n.IsSupported(in.Language) {
		in.Language = lang
	}

	res, err := h.inquiries.Submit(r.Context(), in, h.meta(r))
	if err != nil {
		if fields, ok := h.formErrors(err, lang); ok {
			writeJSONFields(w, i18n.T(lang, "inquiry.error"), fields)
			return
		}
		logAndJSONError(w, "failed to submit inquiry", "error", err)
		return
	}

	msg := i18n.T(lang, "inquiry.success")
	if !res.Relayed {
		msg = i18n.T(lang, "inquiry.fallback")
	}
	writeJSONSuccess(w, map[string]any{
		"id":      res.ID,
		"relayed": res.Relayed,
		"mailto":  res.MailtoURL,
		"message": msg,
	})
}

// formErrors translates validation and captcha failures into per-field
// messages. ok is false for any other error.
func (h *ContactHandler) formErrors(err error, lang string) (map[string]string, bool) {
	var verrs inquiry.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for field, key := range verrs {
			fields[field] = i18n.T(lang, key)
		}
		return fields, true
	}
	if code := captcha.Code(err); code != "" {
		return map[string]string{captcha.FormField: i18n.T(lang, code)}, true
	}
	return nil, false
}

func (h *ContactHandler) meta(r *http.Request) inquiry.Meta {
	return inquiry.Meta{
		IP:        util.ClientIP(r),
		SessionID: audit.SessionID(r.Context()),
		UserID:    middleware.GetUserID(r),
		Path:      r.URL.Path,
	}
}

func (h *ContactHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, in inquiry.Input, fields map[string]string) {
	lang := middleware.GetLang(r)
	data := ContactData{
		Kinds:     []inquiry.Kind{inquiry.KindContact, inquiry.KindVilla, inquiry.KindYacht, inquiry.KindService},
		ItemTitle: h.itemTitle(r, in),
		Captcha:   h.captcha.Widget(lang),
	}

	renderPage(w, r, h.renderer, status, "contact", render.TemplateData{
		Title:       i18n.T(lang, "contact.title"),
		Description: i18n.T(lang, "contact.intro"),
		Data:        data,
		Form:        in,
		Errors:      fields,
	})
}

// itemTitle looks up the display name of the item an inquiry is about.
func (h *ContactHandler) itemTitle(r *http.Request, in inquiry.Input) string {
	if h.catalog == nil || in.ItemSlug == "" {
		return ""
	}
	ctx := r.Context()
	switch in.Kind {
	case inquiry.KindVilla:
		if v, err := h.catalog.GetVilla(ctx, middleware.GetSession(r), in.ItemSlug); err == nil {
			return v.Name
		}
	case inquiry.KindYacht:
		if y, err := h.catalog.GetYacht(ctx, in.ItemSlug); err == nil {
			return y.Name
		}
	case inquiry.KindService:
		if s, err := h.catalog.GetService(ctx, in.ItemSlug); err == nil {
			return s.Title
		}
	}
	return ""
}
