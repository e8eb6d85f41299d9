package httpx

import (
	"net/http"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/domain/route"
	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/service"
)

// PageHandlers answer guarded page requests with the JSON payload the page renders from.
// They run behind Guard, so the route's access policy already holds.
type PageHandlers struct {
	Analytics *service.AnalyticsService
}

// pagePayload is the body of every page response.
type pagePayload struct {
	Route  string            `json:"route"`
	Params map[string]string `json:"params,omitempty"`
	Auth   domainauth.State  `json:"auth"`
	Data   any               `json:"data,omitempty"`
}

func writePage(w http.ResponseWriter, r *http.Request, c *service.Client, data any) {
	nav, _ := NavigationFromContext(r.Context())
	WriteJSON(w, http.StatusOK, pagePayload{
		Route:  nav.Route,
		Params: nav.Params,
		Auth:   c.Sessions.State(),
		Data:   data,
	})
}

// Home handles GET /: the approved catalogue plus a counted visit.
func (h *PageHandlers) Home(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	if h.Analytics != nil {
		h.Analytics.TrackHomeVisit(r.Context())
	}
	opts := bhajanListOptions(r)
	approved := model.BhajanStatusApproved
	opts.Status = &approved
	writePage(w, r, c, c.Bhajans.FetchBhajans(r.Context(), opts))
}

// Login handles GET /login. The payload carries the sanitized return path.
func (h *PageHandlers) Login(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	writePage(w, r, c, map[string]string{
		route.RedirectParam: route.SafeReturnPath(r.URL.Query().Get(route.RedirectParam)),
	})
}

// Signup handles GET /signup.
func (h *PageHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	writePage(w, r, c, nil)
}

type bhajanDetail struct {
	Bhajan    any   `json:"bhajan"`
	Tags      any   `json:"tags,omitempty"`
	Favorited *bool `json:"favorited,omitempty"`
}

// BhajanDetail handles GET /bhajan/{id} and counts the view.
func (h *PageHandlers) BhajanDetail(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	res := c.Bhajans.FetchBhajan(r.Context(), id)
	if !res.Success {
		WriteResult(w, http.StatusOK, res)
		return
	}
	if h.Analytics != nil {
		h.Analytics.TrackBhajanView(r.Context(), id)
	}

	detail := bhajanDetail{Bhajan: res.Data}
	if tags := c.Tags.ForBhajan(r.Context(), id); tags.Success {
		detail.Tags = tags.Data
	}
	if c.Sessions.State().IsAuthenticated() {
		if fav := c.Favorites.IsFavorited(r.Context(), id); fav.Success {
			if v, ok := fav.Data.(bool); ok {
				detail.Favorited = &v
			}
		}
	}
	writePage(w, r, c, detail)
}

// BhajanCreate handles GET /bhajan/create: the form needs the known tag names.
func (h *PageHandlers) BhajanCreate(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	writePage(w, r, c, c.Tags.FetchAll(r.Context()))
}

// BhajanEdit handles GET /bhajan/{id}/edit.
func (h *PageHandlers) BhajanEdit(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	res := c.Bhajans.FetchBhajan(r.Context(), r.PathValue("id"))
	if !res.Success {
		WriteResult(w, http.StatusOK, res)
		return
	}
	writePage(w, r, c, res)
}

// MyBhajans handles GET /my-bhajans.
func (h *PageHandlers) MyBhajans(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	writePage(w, r, c, c.Bhajans.FetchMyBhajans(r.Context()))
}

// AdminDashboard handles GET /admin.
func (h *PageHandlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	writePage(w, r, c, c.Admin.Dashboard(r.Context()))
}

// AdminReviewQueue handles GET /admin/review-queue.
func (h *PageHandlers) AdminReviewQueue(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	writePage(w, r, c, c.Bhajans.FetchPendingReviews(r.Context()))
}

// AdminReports handles GET /admin/reports.
func (h *PageHandlers) AdminReports(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	opts := model.ReportListOptions{Limit: model.DefaultListLimit}
	if s := optionalQuery(r, "status"); s != nil {
		status := model.ReportStatus(*s)
		opts.Status = &status
	}
	writePage(w, r, c, c.Reports.FetchAll(r.Context(), opts))
}

// notFound answers paths no route claims.
func notFound(w http.ResponseWriter, _ *http.Request) {
	WriteAppError(w, apperrors.NotFound("Page not found"))
}
