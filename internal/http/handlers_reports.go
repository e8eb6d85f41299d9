package httpx

import (
	"net/http"

	"github.com/target/bhajan-library/internal/domain/model"
)

// ReportHandlers exposes the browser's ReportStore.
type ReportHandlers struct{}

type moderationRequest struct {
	Comment string `json:"comment"`
}

// List handles GET /api/reports with optional status and bhajan_id filters.
func (h *ReportHandlers) List(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	limit, offset := ParseLimitOffset(r, model.DefaultListLimit, model.MaxListLimit)
	opts := model.ReportListOptions{BhajanID: optionalQuery(r, "bhajan_id"), Limit: limit, Offset: offset}
	if s := optionalQuery(r, "status"); s != nil {
		status := model.ReportStatus(*s)
		opts.Status = &status
	}
	WriteResult(w, http.StatusOK, c.Reports.FetchAll(r.Context(), opts))
}

// Mine handles GET /api/reports/mine.
func (h *ReportHandlers) Mine(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Reports.FetchMine(r.Context()))
}

// Stats handles GET /api/reports/stats.
func (h *ReportHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Reports.Stats(r.Context()))
}

// ForBhajan handles GET /api/bhajans/{id}/reports.
func (h *ReportHandlers) ForBhajan(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Reports.FetchForBhajan(r.Context(), r.PathValue("id")))
}

// Create handles POST /api/reports.
func (h *ReportHandlers) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req model.CreateReportRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusCreated, c.Reports.Create(r.Context(), req))
}

// Review handles POST /api/reports/{id}/review.
func (h *ReportHandlers) Review(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Reports.MarkUnderReview(r.Context(), r.PathValue("id")))
}

// Resolve handles POST /api/reports/{id}/resolve.
func (h *ReportHandlers) Resolve(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req moderationRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusOK, c.Reports.Resolve(r.Context(), r.PathValue("id"), req.Comment))
}

// Dismiss handles POST /api/reports/{id}/dismiss.
func (h *ReportHandlers) Dismiss(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req moderationRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusOK, c.Reports.Dismiss(r.Context(), r.PathValue("id"), req.Comment))
}
