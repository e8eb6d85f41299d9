package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/bhajan-library/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Clients   ClientResolver // Required
	Analytics *service.AnalyticsService
	Cookie    ClientCookieConfig
	Health    []HealthCheck
	Metrics   http.Handler // Optional: served on GET /metrics
	Logger    *slog.Logger
}

// NewRouter creates the HTTP router. Every route except /healthz and /metrics runs with the
// browser's Client resolved; page routes additionally pass through the navigation guard.
func NewRouter(services RouterServices) http.Handler {
	root := http.NewServeMux()
	root.Handle("GET /healthz", healthHandler(services.Health))
	root.Handle("HEAD /healthz", healthHandler(services.Health))
	if services.Metrics != nil {
		root.Handle("GET /metrics", services.Metrics)
	}

	app := http.NewServeMux()
	registerPageRoutes(app, &PageHandlers{Analytics: services.Analytics})
	registerAuthRoutes(app, &AuthHandlers{})
	registerBhajanRoutes(app, &BhajanHandlers{Analytics: services.Analytics})
	registerTagRoutes(app, &TagHandlers{})
	registerReportRoutes(app, &ReportHandlers{})
	registerFavoriteRoutes(app, &FavoriteHandlers{})
	registerPreferenceRoutes(app, &PreferenceHandlers{})
	registerAdminRoutes(app, &AdminHandlers{})
	registerStatsRoutes(app, &StatsHandlers{Analytics: services.Analytics})
	app.HandleFunc("/", notFound)

	root.Handle("/", ClientSession(services.Clients, services.Cookie, services.Logger)(app))
	return root
}

func registerPageRoutes(mux *http.ServeMux, h *PageHandlers) {
	page := func(fn http.HandlerFunc) http.Handler { return Guard(fn) }
	mux.Handle("GET /{$}", page(h.Home))
	mux.Handle("GET /login", page(h.Login))
	mux.Handle("GET /signup", page(h.Signup))
	mux.Handle("GET /bhajan/create", page(h.BhajanCreate))
	mux.Handle("GET /bhajan/{id}", page(h.BhajanDetail))
	mux.Handle("GET /bhajan/{id}/edit", page(h.BhajanEdit))
	mux.Handle("GET /my-bhajans", page(h.MyBhajans))
	mux.Handle("GET /admin", page(h.AdminDashboard))
	mux.Handle("GET /admin/review-queue", page(h.AdminReviewQueue))
	mux.Handle("GET /admin/reports", page(h.AdminReports))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/auth/signup", h.SignUp)
	mux.HandleFunc("POST /api/auth/signin", h.SignIn)
	mux.HandleFunc("POST /api/auth/signout", h.SignOut)
	mux.HandleFunc("POST /api/auth/password-reset", h.PasswordReset)
	mux.HandleFunc("POST /api/auth/password-reset/confirm", h.PasswordResetConfirm)
	mux.HandleFunc("POST /api/auth/password", h.UpdatePassword)
	mux.HandleFunc("POST /api/auth/refresh", h.Refresh)
	mux.HandleFunc("GET /api/auth/state", h.State)
}

func registerBhajanRoutes(mux *http.ServeMux, h *BhajanHandlers) {
	registerCRUD(mux, crudRoutes{
		Base:    "/api/bhajans",
		Create:  h.Create,
		List:    h.List,
		GetByID: h.Get,
		Update:  h.Update,
		Delete:  h.Delete,
	})
	mux.HandleFunc("GET /api/bhajans/pending", h.Pending)
	mux.HandleFunc("POST /api/bhajans/{id}/submit", h.Submit)
	mux.HandleFunc("POST /api/bhajans/{id}/approve", h.Approve)
	mux.HandleFunc("POST /api/bhajans/{id}/reject", h.Reject)
	mux.HandleFunc("POST /api/bhajans/{id}/view", h.View)
}

func registerTagRoutes(mux *http.ServeMux, h *TagHandlers) {
	mux.HandleFunc("GET /api/tags", h.List)
	mux.HandleFunc("GET /api/tags/popular", h.Popular)
	mux.HandleFunc("DELETE /api/tags/{id}", h.Remove)
	mux.HandleFunc("GET /api/bhajans/{id}/tags", h.ForBhajan)
	mux.HandleFunc("POST /api/bhajans/{id}/tags", h.Add)
	mux.HandleFunc("PUT /api/bhajans/{id}/tags", h.Replace)
}

func registerReportRoutes(mux *http.ServeMux, h *ReportHandlers) {
	mux.HandleFunc("GET /api/reports", h.List)
	mux.HandleFunc("POST /api/reports", h.Create)
	mux.HandleFunc("GET /api/reports/mine", h.Mine)
	mux.HandleFunc("GET /api/reports/stats", h.Stats)
	mux.HandleFunc("GET /api/bhajans/{id}/reports", h.ForBhajan)
	mux.HandleFunc("POST /api/reports/{id}/review", h.Review)
	mux.HandleFunc("POST /api/reports/{id}/resolve", h.Resolve)
	mux.HandleFunc("POST /api/reports/{id}/dismiss", h.Dismiss)
}

func registerFavoriteRoutes(mux *http.ServeMux, h *FavoriteHandlers) {
	mux.HandleFunc("GET /api/favorites", h.List)
	mux.HandleFunc("GET /api/favorites/count", h.Count)
	mux.HandleFunc("GET /api/favorites/{bhajanID}", h.Status)
	mux.HandleFunc("POST /api/favorites/{bhajanID}", h.Add)
	mux.HandleFunc("DELETE /api/favorites/{bhajanID}", h.Remove)
	mux.HandleFunc("POST /api/favorites/{bhajanID}/toggle", h.Toggle)
}

func registerPreferenceRoutes(mux *http.ServeMux, h *PreferenceHandlers) {
	mux.HandleFunc("GET /api/preferences", h.Get)
	mux.HandleFunc("PUT /api/preferences", h.Update)
	mux.HandleFunc("POST /api/preferences/toggle-meaning", h.ToggleMeaning)
	mux.HandleFunc("POST /api/preferences/reset", h.Reset)
	mux.HandleFunc("POST /api/preferences/scripts/{script}/toggle", h.ToggleScript)
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers) {
	mux.HandleFunc("GET /api/admin/dashboard", h.Dashboard)
	mux.HandleFunc("GET /api/admin/users", h.Users)
	mux.HandleFunc("GET /api/admin/activity", h.Activity)
	mux.HandleFunc("GET /api/admin/audit", h.Audit)
	mux.HandleFunc("GET /api/admin/audit/{entity_type}/{entity_id}", h.EntityHistory)
	mux.HandleFunc("GET /api/admin/users/{id}/activity", h.UserActivity)
	mux.HandleFunc("PUT /api/admin/users/{id}/role", h.UpdateRole)
}

func registerStatsRoutes(mux *http.ServeMux, h *StatsHandlers) {
	mux.HandleFunc("GET /api/stats/site", h.Site)
	mux.HandleFunc("GET /api/stats/most-viewed", h.MostViewed)
}

// crudRoutes names the standard handlers of one resource.
type crudRoutes struct {
	Base       string
	Create     http.HandlerFunc
	List       http.HandlerFunc
	GetByID    http.HandlerFunc
	Update     http.HandlerFunc
	Delete     http.HandlerFunc
	Middleware func(http.Handler) http.Handler
}

// registerCRUD registers standard CRUD routes for a resource base path, applying mw if non-nil.
func registerCRUD(mux *http.ServeMux, cfg crudRoutes) {
	if cfg.Base == "" {
		panic("registerCRUD: Base must not be empty") //nolint:forbidigo // Fail fast during server setup.
	}
	if cfg.Create == nil ||
		cfg.List == nil ||
		cfg.GetByID == nil ||
		cfg.Update == nil ||
		cfg.Delete == nil {
		panic("registerCRUD: nil handler for base " + cfg.Base) //nolint:forbidigo // Fail fast during server setup.
	}

	wrap := func(h http.HandlerFunc) http.Handler {
		if cfg.Middleware != nil {
			return cfg.Middleware(h)
		}
		return h
	}
	mux.Handle("POST "+cfg.Base, wrap(cfg.Create))
	mux.Handle("GET "+cfg.Base, wrap(cfg.List))
	mux.Handle("GET "+cfg.Base+"/{id}", wrap(cfg.GetByID))
	mux.Handle("PUT "+cfg.Base+"/{id}", wrap(cfg.Update))
	mux.Handle("DELETE "+cfg.Base+"/{id}", wrap(cfg.Delete))
}
