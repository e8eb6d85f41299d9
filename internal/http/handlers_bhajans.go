package httpx

import (
	"net/http"
	"strings"

	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/service"
)

// BhajanHandlers exposes the browser's BhajanStore.
type BhajanHandlers struct {
	Analytics *service.AnalyticsService
}

type updateBhajanRequest struct {
	model.UpdateBhajanRequest
	Tags []string `json:"tags,omitempty"`
}

type reviewRequest struct {
	Comment string `json:"comment"`
}

// bhajanListOptions reads list filters from the query string.
func bhajanListOptions(r *http.Request) model.BhajanListOptions {
	limit, offset := ParseLimitOffset(r, model.DefaultListLimit, model.MaxListLimit)
	opts := model.BhajanListOptions{
		Search:    optionalQuery(r, "search"),
		Tags:      listQuery(r, "tags"),
		CreatedBy: optionalQuery(r, "created_by"),
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
		Limit:     limit,
		Offset:    offset,
	}
	if s := optionalQuery(r, "status"); s != nil {
		status := model.BhajanStatus(strings.ToLower(*s))
		opts.Status = &status
	}
	return opts
}

// List handles GET /api/bhajans.
func (h *BhajanHandlers) List(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Bhajans.FetchBhajans(r.Context(), bhajanListOptions(r)))
}

// Pending handles GET /api/bhajans/pending.
func (h *BhajanHandlers) Pending(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Bhajans.FetchPendingReviews(r.Context()))
}

// Create handles POST /api/bhajans.
func (h *BhajanHandlers) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req model.CreateBhajanRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusCreated, c.Bhajans.Create(r.Context(), req))
}

// Get handles GET /api/bhajans/{id}.
func (h *BhajanHandlers) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Bhajans.FetchBhajan(r.Context(), r.PathValue("id")))
}

// Update handles PUT /api/bhajans/{id}. A "tags" array replaces the bhajan's tags.
func (h *BhajanHandlers) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req updateBhajanRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusOK, c.Bhajans.Update(r.Context(), r.PathValue("id"), req.UpdateBhajanRequest, req.Tags))
}

// Delete handles DELETE /api/bhajans/{id}.
func (h *BhajanHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Bhajans.Delete(r.Context(), r.PathValue("id")))
}

// Submit handles POST /api/bhajans/{id}/submit.
func (h *BhajanHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Bhajans.SubmitForReview(r.Context(), r.PathValue("id")))
}

// Approve handles POST /api/bhajans/{id}/approve with an optional {"comment"} body.
func (h *BhajanHandlers) Approve(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusOK, c.Bhajans.Approve(r.Context(), r.PathValue("id"), req.Comment))
}

// Reject handles POST /api/bhajans/{id}/reject with an optional {"comment"} body.
func (h *BhajanHandlers) Reject(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusOK, c.Bhajans.Reject(r.Context(), r.PathValue("id"), req.Comment))
}

// View handles POST /api/bhajans/{id}/view. Counting is best effort.
func (h *BhajanHandlers) View(w http.ResponseWriter, r *http.Request) {
	if h.Analytics != nil {
		h.Analytics.TrackBhajanView(r.Context(), r.PathValue("id"))
	}
	w.WriteHeader(http.StatusNoContent)
}
