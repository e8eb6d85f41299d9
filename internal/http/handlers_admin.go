package httpx

import (
	"net/http"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
)

// AdminHandlers exposes the browser's AdminStore.
type AdminHandlers struct{}

type roleRequest struct {
	Role domainauth.Role `json:"role"`
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AdminHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Admin.Dashboard(r.Context()))
}

// Users handles GET /api/admin/users.
func (h *AdminHandlers) Users(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	limit, offset := ParseLimitOffset(r, model.DefaultListLimit, model.MaxListLimit)
	WriteResult(w, http.StatusOK, c.Admin.Users(r.Context(), limit, offset))
}

// Activity handles GET /api/admin/activity.
func (h *AdminHandlers) Activity(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Admin.RecentActivity(r.Context(), parseIntQuery(r, "limit", 0)))
}

// Audit handles GET /api/admin/audit with user_id, entity_type and entity_id filters.
func (h *AdminHandlers) Audit(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	limit, offset := ParseLimitOffset(r, model.DefaultListLimit, model.MaxListLimit)
	WriteResult(w, http.StatusOK, c.Admin.AuditLog(r.Context(), model.AuditListOptions{
		UserID:     optionalQuery(r, "user_id"),
		EntityType: optionalQuery(r, "entity_type"),
		EntityID:   optionalQuery(r, "entity_id"),
		Limit:      limit,
		Offset:     offset,
	}))
}

// EntityHistory handles GET /api/admin/audit/{entity_type}/{entity_id}.
func (h *AdminHandlers) EntityHistory(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Admin.EntityHistory(r.Context(), r.PathValue("entity_type"), r.PathValue("entity_id")))
}

// UserActivity handles GET /api/admin/users/{id}/activity.
func (h *AdminHandlers) UserActivity(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Admin.UserActivity(r.Context(), r.PathValue("id")))
}

// UpdateRole handles PUT /api/admin/users/{id}/role.
func (h *AdminHandlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusOK, c.Admin.UpdateUserRole(r.Context(), r.PathValue("id"), req.Role))
}
