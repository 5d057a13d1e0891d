// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/inquiry"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/scheduler"
	"github.com/olegiv/concierge/internal/store"
	"github.com/olegiv/concierge/internal/vip"
)

// Inquiry listing limits.
const (
	inquiryDefaultLimit = 50
	inquiryMaxLimit     = 200
)

// CacheInvalidator drops cached catalog data. *catalog.CachedSource implements it.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// JobRunner lists and triggers maintenance jobs. *scheduler.Scheduler implements it.
type JobRunner interface {
	Jobs() []scheduler.JobInfo
	Trigger(ctx context.Context, name string) error
}

// AdminHandler serves the admin JSON API.
type AdminHandler struct {
	users     *vip.Service
	inquiries *inquiry.Service
	cache     CacheInvalidator
	jobs      JobRunner
	recorder  *audit.Recorder
	logger    *slog.Logger
}

// AdminConfig wires an AdminHandler. Cache and Jobs may be nil.
type AdminConfig struct {
	Users     *vip.Service
	Inquiries *inquiry.Service
	Cache     CacheInvalidator
	Jobs      JobRunner
	Recorder  *audit.Recorder
	Logger    *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AdminHandler{
		users:     cfg.Users,
		inquiries: cfg.Inquiries,
		cache:     cfg.Cache,
		jobs:      cfg.Jobs,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
	}
}

// writeUserError maps directory errors onto HTTP responses.
func (h *AdminHandler) writeUserError(w http.ResponseWriter, err error, op string) {
	var verr *vip.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSONFields(w, "Validation failed", verr.Fields)
	case errors.Is(err, vip.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, vip.ErrEmailTaken):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, vip.ErrLastAdmin), errors.Is(err, vip.ErrSelfDelete):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, vip.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "Insufficient permissions")
	default:
		logAndJSONError(w, "failed to "+op, "error", err)
	}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context(), middleware.GetSession(r))
	if err != nil {
		h.writeUserError(w, err, "list users")
		return
	}
	writeJSONSuccess(w, map[string]any{
		"users": users,
		"total": len(users),
	})
}

// CreateUser handles POST /api/admin/users.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in vip.CreateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := middleware.GetSession(r)
	user, err := h.users.CreateUser(r.Context(), actor, in)
	if err != nil {
		h.writeUserError(w, err, "create user")
		return
	}

	h.recorder.RecordRequest(r, audit.TypeUserCreated, actor.UserID, map[string]any{
		"target_id": user.ID,
		"role":      string(user.Role),
	})
	slog.Info("vip user created", "user_id", user.ID, "role", user.Role, "created_by", actor.UserID)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    user,
	})
}

// GetUser handles GET /api/admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	user, ok := requireEntityWithJSONError(w, "User", id, func() (vip.User, error) {
		return h.users.GetUser(r.Context(), id)
	})
	if !ok {
		return
	}
	writeJSONSuccess(w, map[string]any{"user": user})
}

// UpdateUser handles PATCH /api/admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	var in vip.UpdateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := middleware.GetSession(r)
	user, err := h.users.UpdateUser(r.Context(), actor, id, in)
	if err != nil {
		h.writeUserError(w, err, "update user")
		return
	}

	var changed []string
	for field, set := range map[string]bool{
		"email":    in.Email != nil,
		"name":     in.Name != nil,
		"role":     in.Role != nil,
		"password": in.Password != nil,
	} {
		if set {
			changed = append(changed, field)
		}
	}
	slices.Sort(changed)
	h.recorder.RecordRequest(r, audit.TypeUserUpdated, actor.UserID, map[string]any{
		"target_id": user.ID,
		"fields":    changed,
	})

	writeJSONSuccess(w, map[string]any{"user": user})
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	actor := middleware.GetSession(r)
	if err := h.users.DeleteUser(r.Context(), actor, id); err != nil {
		h.writeUserError(w, err, "delete user")
		return
	}

	h.recorder.RecordRequest(r, audit.TypeUserDeleted, actor.UserID, map[string]any{
		"target_id": id,
	})
	slog.Info("vip user deleted", "user_id", id, "deleted_by", actor.UserID)

	writeJSONSuccess(w, nil)
}

// ClearCache handles POST /api/admin/cache/clear.
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeJSONSuccess(w, map[string]any{"cleared": false})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		logAndJSONError(w, "failed to clear catalog cache", "error", err)
		return
	}
	slog.Info("catalog cache cleared", "user_id", middleware.GetUserID(r))
	writeJSONSuccess(w, map[string]any{"cleared": true})
}

// ListInquiries handles GET /api/admin/inquiries. ?status= filters by relay status.
func (h *AdminHandler) ListInquiries(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", store.InquiryPending, store.InquiryRelayed, store.InquiryFailed:
	default:
		writeJSONError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	limit, offset := limitOffset(r, inquiryDefaultLimit, inquiryMaxLimit)

	items, total, err := h.inquiries.List(r.Context(), status, limit, offset)
	if err != nil {
		logAndJSONError(w, "failed to list inquiries", "error", err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"inquiries": items,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// ListJobs handles GET /api/admin/jobs.
func (h *AdminHandler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := []scheduler.JobInfo{}
	if h.jobs != nil {
		jobs = h.jobs.Jobs()
	}
	writeJSONSuccess(w, map[string]any{"jobs": jobs})
}

// TriggerJob handles POST /api/admin/jobs/{name}/run.
func (h *AdminHandler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.jobs == nil {
		writeJSONError(w, http.StatusNotFound, "Job not found")
		return
	}

	err := h.jobs.Trigger(r.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		writeJSONError(w, http.StatusNotFound, "Job not found")
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"job":     name,
			"error":   err.Error(),
		})
	default:
		slog.Info("job triggered manually", "job", name, "user_id", middleware.GetUserID(r))
		writeJSONSuccess(w, map[string]any{"job": name})
	}
}
