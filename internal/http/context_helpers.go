package httpx

import (
	"context"

	"github.com/target/bhajan-library/internal/service"
)

// Unexported context key types avoid collisions across packages.
type (
	clientKey     struct{}
	navigationKey struct{}
)

// SetClientInContext returns a child context that carries the browser's Client.
// If c is nil, the original ctx is returned unchanged.
func SetClientInContext(ctx context.Context, c *service.Client) context.Context {
	if c == nil {
		return ctx
	}
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFromContext returns the Client resolved by the ClientSession middleware.
func ClientFromContext(ctx context.Context) (*service.Client, bool) {
	c, ok := ctx.Value(clientKey{}).(*service.Client)
	return c, ok && c != nil
}

// SetNavigationInContext records the guard's decision for the page handler.
func SetNavigationInContext(ctx context.Context, nav service.Navigation) context.Context {
	return context.WithValue(ctx, navigationKey{}, nav)
}

// NavigationFromContext returns the guard's decision for the current page.
func NavigationFromContext(ctx context.Context) (service.Navigation, bool) {
	nav, ok := ctx.Value(navigationKey{}).(service.Navigation)
	return nav, ok
}
