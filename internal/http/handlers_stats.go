package httpx

import (
	"net/http"

	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/service"
)

const defaultMostViewed = 10

// StatsHandlers serves public site statistics.
type StatsHandlers struct {
	Analytics *service.AnalyticsService
}

func (h *StatsHandlers) available(w http.ResponseWriter) bool {
	if h.Analytics == nil {
		WriteAppError(w, apperrors.Internal("statistics are not configured"))
		return false
	}
	return true
}

// Site handles GET /api/stats/site.
func (h *StatsHandlers) Site(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	stats, err := h.Analytics.SiteStatistics(r.Context())
	if err != nil {
		WriteAppError(w, apperrors.BackendFailure(err))
		return
	}
	WriteData(w, http.StatusOK, stats)
}

// MostViewed handles GET /api/stats/most-viewed?limit=N.
func (h *StatsHandlers) MostViewed(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	top, err := h.Analytics.MostViewed(r.Context(), parseIntQuery(r, "limit", defaultMostViewed))
	if err != nil {
		WriteAppError(w, apperrors.BackendFailure(err))
		return
	}
	WriteData(w, http.StatusOK, top)
}
