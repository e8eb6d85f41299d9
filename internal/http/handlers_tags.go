package httpx

import (
	"net/http"
)

const defaultPopularTags = 20

// TagHandlers exposes the browser's TagStore.
type TagHandlers struct{}

type addTagRequest struct {
	TagName string `json:"tag_name"`
}

type replaceTagsRequest struct {
	Tags []string `json:"tags"`
}

// List handles GET /api/tags.
func (h *TagHandlers) List(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Tags.FetchAll(r.Context()))
}

// Popular handles GET /api/tags/popular?limit=N.
func (h *TagHandlers) Popular(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Tags.FetchPopular(r.Context(), parseIntQuery(r, "limit", defaultPopularTags)))
}

// ForBhajan handles GET /api/bhajans/{id}/tags.
func (h *TagHandlers) ForBhajan(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Tags.ForBhajan(r.Context(), r.PathValue("id")))
}

// Add handles POST /api/bhajans/{id}/tags.
func (h *TagHandlers) Add(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req addTagRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusCreated, c.Tags.Add(r.Context(), r.PathValue("id"), req.TagName))
}

// Replace handles PUT /api/bhajans/{id}/tags.
func (h *TagHandlers) Replace(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req replaceTagsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusOK, c.Tags.Replace(r.Context(), r.PathValue("id"), req.Tags))
}

// Remove handles DELETE /api/tags/{id}.
func (h *TagHandlers) Remove(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Tags.Remove(r.Context(), r.PathValue("id")))
}
