// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/auth"
	"github.com/olegiv/concierge/internal/captcha"
	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/render"
	"github.com/olegiv/concierge/internal/session"
	"github.com/olegiv/concierge/internal/util"
	"github.com/olegiv/concierge/internal/vip"
)

// VIP area routes.
const (
	routeVIPLogin   = "/vip/login"
	routeVIPLounge  = "/vip"
	routeVIPAccount = "/vip/account"
)

// VIPHandler handles the VIP login, lounge and account pages and the token API.
type VIPHandler struct {
	renderer        *render.Renderer
	sessions        *session.Manager
	users           *vip.Service
	catalog         *catalog.Catalog
	loginProtection *middleware.LoginProtection
	captcha         *captcha.Verifier
	recorder        *audit.Recorder
	tokenSecret     []byte
	tokenTTL        time.Duration
	logger          *slog.Logger
}

// VIPConfig wires a VIPHandler.
type VIPConfig struct {
	Renderer        *render.Renderer
	Sessions        *session.Manager
	Users           *vip.Service
	Catalog         *catalog.Catalog
	LoginProtection *middleware.LoginProtection
	Captcha         *captcha.Verifier
	Recorder        *audit.Recorder
	TokenSecret     []byte
	TokenTTL        time.Duration
	Logger          *slog.Logger
}

// NewVIPHandler creates a new VIPHandler.
func NewVIPHandler(cfg VIPConfig) *VIPHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &VIPHandler{
		renderer:        cfg.Renderer,
		sessions:        cfg.Sessions,
		users:           cfg.Users,
		catalog:         cfg.Catalog,
		loginProtection: cfg.LoginProtection,
		captcha:         cfg.Captcha,
		recorder:        cfg.Recorder,
		tokenSecret:     cfg.TokenSecret,
		tokenTTL:        cfg.TokenTTL,
		logger:          cfg.Logger,
	}
}

// LoginData holds the data for the login page.
type LoginData struct {
	Email   string
	Next    string
	Captcha template.HTML
}

// LoginForm handles GET /vip/login.
func (h *VIPHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	next := localRedirect(r.URL.Query().Get("next"), routeVIPLounge)
	if middleware.GetSession(r) != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, LoginData{Next: next})
}

func (h *VIPHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginData) {
	lang := middleware.GetLang(r)
	data.Captcha = h.captcha.Widget(lang)
	renderPage(w, r, h.renderer, status, "vip_login", render.TemplateData{
		Title:       i18n.T(lang, "vip.login.title"),
		Description: i18n.T(lang, "vip.login.intro"),
		Data:        data,
	})
}

// loginOutcome is the result of a credential check.
type loginOutcome struct {
	user    vip.User
	message string // translated failure message; empty on success
	status  int
}

// authenticate checks credentials with account lockout and records the
// audit trail. Shared by the HTML and JSON logins.
func (h *VIPHandler) authenticate(r *http.Request, email, password string) loginOutcome {
	lang := middleware.GetLang(r)
	email = util.NormalizeEmail(email)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			h.recorder.RecordRequest(r, audit.TypeLoginFailed, 0, map[string]any{
				"email": email, "reason": "locked",
			})
			return loginOutcome{
				message: i18n.T(lang, "vip.login.locked", formatDuration(remaining)),
				status:  http.StatusTooManyRequests,
			}
		}
	}

	user, err := h.users.Authenticate(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, vip.ErrInvalidCredentials) {
			h.logger.Error("database error during login", "error", err)
			return loginOutcome{message: i18n.T(lang, "error.server"), status: http.StatusInternalServerError}
		}

		slog.Debug("vip login failed", "email", email)
		h.recorder.RecordRequest(r, audit.TypeLoginFailed, 0, map[string]any{
			"email": email, "reason": "credentials",
		})
		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
				slog.Warn("vip account locked after failed logins", "email", email, "duration", lockDuration.String())
				return loginOutcome{
					message: i18n.T(lang, "vip.login.locked", formatDuration(lockDuration)),
					status:  http.StatusTooManyRequests,
				}
			}
		}
		return loginOutcome{message: i18n.T(lang, "vip.login.failed"), status: http.StatusUnauthorized}
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}
	h.recorder.RecordRequest(r, audit.TypeLogin, user.ID, map[string]any{
		"role":   string(user.Role),
		"method": loginMethod(r),
	})
	slog.Info("vip logged in", "user_id", user.ID, "role", user.Role)
	return loginOutcome{user: user}
}

func loginMethod(r *http.Request) string {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return "token"
	}
	return "session"
}

// Login handles POST /vip/login.
func (h *VIPHandler) Login(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.renderer, http.StatusBadRequest)
		return
	}

	data := LoginData{
		Email: strings.TrimSpace(r.FormValue("email")),
		Next:  localRedirect(r.FormValue("next"), routeVIPLounge),
	}
	password := r.FormValue("password")

	if data.Email == "" || password == "" {
		h.sessions.SetFlash(r.Context(), i18n.T(lang, "vip.login.failed"), flashTypeError)
		h.renderLogin(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	if err := h.captcha.Verify(r.Context(), captcha.ResponseFromForm(r), util.ClientIP(r)); err != nil {
		h.sessions.SetFlash(r.Context(), i18n.T(lang, captcha.Code(err)), flashTypeError)
		h.renderLogin(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	out := h.authenticate(r, data.Email, password)
	if out.message != "" {
		h.sessions.SetFlash(r.Context(), out.message, flashTypeError)
		h.renderLogin(w, r, out.status, data)
		return
	}

	if err := h.sessions.Login(r.Context(), vip.NewSession(out.user)); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	flashSuccess(w, r, h.sessions, data.Next, i18n.T(lang, "vip.login.success", out.user.Name))
}

// Logout handles POST /vip/logout.
func (h *VIPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID > 0 {
		h.recorder.RecordRequest(r, audit.TypeLogout, userID, nil)
	}

	if err := h.sessions.Logout(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}
	slog.Info("vip logged out", "user_id", userID)

	flashAndRedirect(w, r, h.sessions, "/", i18n.T(middleware.GetLang(r), "vip.logout.success"), "info")
}

// Lounge handles GET /vip: the private collection.
func (h *VIPHandler) Lounge(w http.ResponseWriter, r *http.Request) {
	villas, err := h.catalog.PrivateVillas(r.Context(), middleware.GetSession(r))
	if err != nil {
		h.logger.Error("failed to list private villas", "error", err)
		renderError(w, r, h.renderer, http.StatusInternalServerError)
		return
	}

	lang := middleware.GetLang(r)
	renderPage(w, r, h.renderer, http.StatusOK, "vip_lounge", render.TemplateData{
		Title:       i18n.T(lang, "vip.lounge.title"),
		Description: i18n.T(lang, "vip.lounge.intro"),
		Data:        villas,
	})
}

// Account handles GET /vip/account.
func (h *VIPHandler) Account(w http.ResponseWriter, r *http.Request) {
	h.renderAccount(w, r, http.StatusOK, nil)
}

func (h *VIPHandler) renderAccount(w http.ResponseWriter, r *http.Request, status int, fields map[string]string) {
	s := middleware.GetSession(r)
	user, ok := requireEntity(w, r, h.renderer, "user", s.UserID, func() (vip.User, error) {
		return h.users.GetUser(r.Context(), s.UserID)
	})
	if !ok {
		return
	}

	renderPage(w, r, h.renderer, status, "vip_account", render.TemplateData{
		Title:  i18n.T(middleware.GetLang(r), "vip.account.title"),
		Data:   user,
		Errors: fields,
	})
}

// ChangePassword handles POST /vip/account.
func (h *VIPHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.renderer, http.StatusBadRequest)
		return
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	if next != r.FormValue("confirm_password") {
		h.renderAccount(w, r, http.StatusUnprocessableEntity, map[string]string{
			"confirm_password": i18n.T(lang, "vip.account.mismatch"),
		})
		return
	}

	err := h.users.ChangePassword(r.Context(), middleware.GetSession(r), current, next)
	var verr *vip.ValidationError
	switch {
	case err == nil:
		slog.Info("vip password changed", "user_id", middleware.GetUserID(r))
		flashSuccess(w, r, h.sessions, routeVIPAccount, i18n.T(lang, "vip.account.updated"))
	case errors.Is(err, vip.ErrInvalidCredentials):
		h.renderAccount(w, r, http.StatusUnprocessableEntity, map[string]string{
			"current_password": i18n.T(lang, "vip.account.wrong_current"),
		})
	case errors.As(err, &verr):
		h.renderAccount(w, r, http.StatusUnprocessableEntity, map[string]string{
			"new_password": i18n.T(lang, "vip.account.too_short", vip.MinPasswordLength),
		})
	default:
		h.logger.Error("failed to change password", "error", err)
		renderError(w, r, h.renderer, http.StatusInternalServerError)
	}
}

// loginRequest is the body of POST /api/vip/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// APILogin handles POST /api/vip/login and returns a bearer token.
func (h *VIPHandler) APILogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	out := h.authenticate(r, req.Email, req.Password)
	if out.message != "" {
		writeJSONError(w, out.status, out.message)
		return
	}

	sess := vip.NewSession(out.user)
	token, expires, err := auth.IssueToken(sess.UserID, sess.Email, string(sess.Role), sess.Name, h.tokenSecret, h.tokenTTL)
	if err != nil {
		logAndJSONError(w, "failed to issue api token", "error", err, "user_id", sess.UserID)
		return
	}

	writeJSONSuccess(w, map[string]any{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expires.UTC(),
		"session":    sess,
	})
}

// APIMe handles GET /api/vip/me.
func (h *VIPHandler) APIMe(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r)
	writeJSONSuccess(w, map[string]any{
		"session":           s,
		"can_view_private":  s.CanViewPrivate(),
		"is_admin":          s.IsAdmin(),
		"authenticated_via": loginMethodOf(r),
	})
}

func loginMethodOf(r *http.Request) string {
	if middleware.ViaBearer(r) {
		return "token"
	}
	return "session"
}

// formatDuration renders a lockout duration for messages.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
