// Package tenant carries the tenant scope of a unit of work on its
// context.Context. The scope is never stored in a shared global, so
// concurrent requests sharing goroutines cannot leak tenants into each
// other. Nesting restores naturally with context derivation: the inner
// scope lives on the derived context and the caller keeps its own.
package tenant

import "context"

// scope is the ambient tenant state of one unit of work.
type scope struct {
	tenantID string
	ignored  bool
	dynamic  bool
}

// scopeKey is an unexported key type to prevent external forgery.
type scopeKey struct{}

// WithTenant derives a context scoped to the given tenant.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope{tenantID: tenantID})
}

// WithDynamic derives a context scoped to the given tenant, marked as a
// dynamic override of the caller's own tenant. Used by administrative
// operations acting on behalf of another tenant.
func WithDynamic(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope{tenantID: tenantID, dynamic: true})
}

// WithIgnored derives a context in which no tenant predicate is applied.
// Used by cross-tenant administrative operations such as syncing
// dictionaries to all tenants.
func WithIgnored(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope{ignored: true})
}

// Current returns the tenant id of the active scope.
func Current(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(scopeKey{}).(scope)
	if !ok || s.ignored || s.tenantID == "" {
		return "", false
	}

	return s.tenantID, true
}

// IsIgnored reports whether tenant filtering is suspended for this scope.
func IsIgnored(ctx context.Context) bool {
	s, ok := ctx.Value(scopeKey{}).(scope)
	return ok && s.ignored
}

// IsDynamic reports whether the active scope is a dynamic override.
func IsDynamic(ctx context.Context) bool {
	s, ok := ctx.Value(scopeKey{}).(scope)
	return ok && s.dynamic
}

// RunWithTenant executes fn inside a scope for the given tenant. The
// caller's scope is untouched on every exit path.
func RunWithTenant[T any](ctx context.Context, tenantID string, fn func(ctx context.Context) (T, error)) (T, error) {
	return fn(WithTenant(ctx, tenantID))
}

// RunWithDynamic executes fn inside a dynamic-override scope.
func RunWithDynamic[T any](ctx context.Context, tenantID string, fn func(ctx context.Context) (T, error)) (T, error) {
	return fn(WithDynamic(ctx, tenantID))
}

// RunIgnored executes fn with tenant filtering suspended. Prefer this
// closure form so the ignored scope cannot spread along the call chain.
func RunIgnored[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	return fn(WithIgnored(ctx))
}
