// Package route holds the static access policy attached to navigable pages and the pure
// decision function that gates a transition.
package route

import (
	"net/url"
	"strings"
)

// Names of the pages in the route table.
const (
	NameHome             = "home"
	NameLogin            = "login"
	NameSignup           = "signup"
	NameBhajanCreate     = "bhajan-create"
	NameBhajanDetail     = "bhajan-detail"
	NameBhajanEdit       = "bhajan-edit"
	NameMyBhajans        = "my-bhajans"
	NameAdminDashboard   = "admin-dashboard"
	NameAdminReviewQueue = "admin-review-queue"
	NameAdminReports     = "admin-reports"
)

const (
	// HomePath is the redirect target for guest-only and role failures.
	HomePath = "/"
	// LoginPath is the redirect target for unauthenticated access.
	LoginPath = "/login"
	// RedirectParam carries the originally requested path through the login flow.
	RedirectParam = "redirect"
)

// Intent is the access policy attached to a page. It is static per route.
type Intent struct {
	Name           string
	Pattern        string
	RequiresAuth   bool
	RequiresEditor bool
	RequiresAdmin  bool
	GuestOnly      bool
}

// Flags is the subset of session state the guard needs.
type Flags struct {
	Authenticated bool
	Editor        bool
	Admin         bool
}

// Outcome is the terminal state of one navigation.
type Outcome string

const (
	Allowed           Outcome = "allowed"
	RedirectedToLogin Outcome = "redirected-to-login"
	RedirectedToHome  Outcome = "redirected-to-home"
)

// Decision is the result of gating one transition. Location is empty when Allowed.
type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Location string  `json:"location,omitempty"`
	Route    string  `json:"route,omitempty"`
}

// Decide evaluates intent against flags. Checks run in a fixed order and the first failing
// check wins.
func Decide(intent Intent, flags Flags, fullPath string) Decision {
	d := Decision{Outcome: Allowed, Route: intent.Name}
	switch {
	case intent.GuestOnly && flags.Authenticated:
		d.Outcome, d.Location = RedirectedToHome, HomePath
	case intent.RequiresAuth && !flags.Authenticated:
		d.Outcome, d.Location = RedirectedToLogin, LoginURL(fullPath)
	case intent.RequiresEditor && !flags.Editor:
		d.Outcome, d.Location = RedirectedToHome, HomePath
	case intent.RequiresAdmin && !flags.Admin:
		d.Outcome, d.Location = RedirectedToHome, HomePath
	}
	return d
}

// LoginURL builds the login location that returns to fullPath after sign-in.
func LoginURL(fullPath string) string {
	if fullPath == "" {
		return LoginPath
	}
	// Slashes are legal in a query component and keep the return path readable.
	return LoginPath + "?" + RedirectParam + "=" + strings.ReplaceAll(url.QueryEscape(fullPath), "%2F", "/")
}

// SafeReturnPath validates a post-login return destination. Only same-origin absolute paths
// are accepted; anything else falls back to home.
func SafeReturnPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return HomePath
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return HomePath
	}
	return raw
}
