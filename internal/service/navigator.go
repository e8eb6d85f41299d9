package service

import (
	"context"
	"errors"
	"log/slog"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/route"
)

// Sessions is the part of SessionManager the navigator depends on.
type Sessions interface {
	State() domainauth.State
	InitializeAuth(ctx context.Context) Result
}

// NavigatorOptions groups dependencies for Navigator.
type NavigatorOptions struct {
	Sessions Sessions     // Required
	Routes   *route.Table // Optional: defaults to route.DefaultTable()
	Metrics  Metrics
	Logger   *slog.Logger
}

// Navigator gates page transitions against the route table.
type Navigator struct {
	sessions Sessions
	routes   *route.Table
	metrics  Metrics
	logger   *slog.Logger
}

// Navigation is the outcome of one transition.
type Navigation struct {
	route.Decision
	Intent route.Intent      `json:"-"`
	Params map[string]string `json:"params,omitempty"`
	Known  bool              `json:"known"`
}

// NewNavigator constructs a Navigator.
func NewNavigator(opts NavigatorOptions) (*Navigator, error) {
	if opts.Sessions == nil {
		return nil, errors.New("Sessions is required")
	}
	routes := opts.Routes
	if routes == nil {
		routes = route.DefaultTable()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		sessions: opts.Sessions,
		routes:   routes,
		metrics:  metricsOrNoop(opts.Metrics),
		logger:   logger.With("component", "navigator"),
	}, nil
}

// Navigate decides whether fullPath may be shown. With no user loaded it first waits for the
// session bootstrap, joining one that is already in flight. It never fails: denials become
// redirects and unknown paths are allowed so the page layer can answer 404.
func (n *Navigator) Navigate(ctx context.Context, fullPath string) Navigation {
	state := n.sessions.State()
	if !state.IsAuthenticated() {
		if res := n.sessions.InitializeAuth(ctx); !res.Success {
			n.logger.DebugContext(ctx, "session bootstrap failed before navigation", "path", fullPath, "error", res.Error)
		}
		state = n.sessions.State()
	}

	intent, params, known := n.routes.Lookup(fullPath)
	nav := Navigation{
		Decision: route.Decide(intent, FlagsOf(state), fullPath),
		Intent:   intent,
		Params:   params,
		Known:    known,
	}
	n.metrics.ObserveGuard(intent.Name, string(nav.Outcome))
	if nav.Outcome != route.Allowed {
		n.logger.DebugContext(ctx, "navigation redirected",
			"path", fullPath, "route", intent.Name, "outcome", nav.Outcome, "location", nav.Location)
	}
	return nav
}

// FlagsOf projects the auth state onto the guard's inputs.
func FlagsOf(st domainauth.State) route.Flags {
	return route.Flags{
		Authenticated: st.IsAuthenticated(),
		Editor:        st.IsEditor(),
		Admin:         st.IsAdmin(),
	}
}
