package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/target/bhajan-library/internal/domain/route"
	"github.com/target/bhajan-library/internal/service"
)

const (
	// ClientCookieName is the default name of the cookie identifying the browser and therefore its Client.
	ClientCookieName = "client_id"
	// DefaultClientCookieMaxAge keeps the browser identity for a year.
	DefaultClientCookieMaxAge = 365 * 24 * time.Hour
)

var errNoClient = errors.New("client unavailable")

// ClientResolver returns the Client of one browser. *service.ClientRegistry satisfies it.
type ClientResolver interface {
	Get(ctx context.Context, key string) (*service.Client, error)
}

// ClientCookieConfig controls the client_id cookie.
type ClientCookieConfig struct {
	Name   string // Defaults to ClientCookieName
	Domain string
	Secure bool
	MaxAge time.Duration
}

// ClientSession returns a middleware that resolves the request's Client from the client_id
// cookie, minting a new identity when the cookie is missing or malformed.
func ClientSession(clients ClientResolver, cfg ClientCookieConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultClientCookieMaxAge
	}
	if cfg.Name == "" {
		cfg.Name = ClientCookieName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, fresh := clientKeyFromRequest(r, cfg.Name)
			if fresh {
				setClientCookie(w, key, cfg)
			}

			c, err := clients.Get(r.Context(), key)
			if err != nil {
				logger.ErrorContext(r.Context(), "resolve client", "client_id", key, "error", err)
				WriteError(w, ErrorParams{
					Code:    http.StatusInternalServerError,
					ErrCode: "client_unavailable",
					Err:     errNoClient,
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(SetClientInContext(r.Context(), c)))
		})
	}
}

func clientKeyFromRequest(r *http.Request, name string) (string, bool) {
	if c, err := r.Cookie(name); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String(), false
		}
	}
	return uuid.NewString(), true
}

func setClientCookie(w http.ResponseWriter, key string, cfg ClientCookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    key,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Guard returns a middleware that runs the navigation guard for page requests. Denied
// transitions become 302 redirects; allowed ones carry the decision to the page handler.
func Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := requireClient(w, r)
		if !ok {
			return
		}
		nav := c.Navigator.Navigate(r.Context(), r.URL.RequestURI())
		if nav.Outcome != route.Allowed {
			http.Redirect(w, r, nav.Location, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(SetNavigationInContext(r.Context(), nav)))
	})
}

// requireClient fetches the request's Client, writing a 500 when the middleware is missing.
func requireClient(w http.ResponseWriter, r *http.Request) (*service.Client, bool) {
	c, ok := ClientFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "client_unavailable",
			Err:     errNoClient,
		})
	}
	return c, ok
}
