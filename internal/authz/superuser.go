package authz

import (
	"context"
	"fmt"
)

// IsSuperuser reports whether the current principal bypasses data-scope
// and permission checks. System and test principals always do.
func IsSuperuser(ctx context.Context) bool {
	p, ok := GetPrincipal(ctx)
	if !ok {
		return false
	}

	switch p.Type {
	case PrincipalTypeSystem, PrincipalTypeTest:
		return true
	case PrincipalTypeUser:
		return p.Superuser
	default:
		return false
	}
}

// RequireSystemPrincipal checks that the current principal is System,
// otherwise returns an error. Used to protect sensitive background
// operations such as cross-tenant synchronization.
func RequireSystemPrincipal(ctx context.Context) error {
	p, ok := GetPrincipal(ctx)
	if !ok {
		return fmt.Errorf("authz: no principal in context")
	}

	if !p.IsSystem() {
		return fmt.Errorf("authz: operation requires system principal, got %s", p.String())
	}

	return nil
}

// RunAsSystem executes fn with a System principal, limiting the elevated
// scope to the closure.
func RunAsSystem[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	return fn(NewSystemContext(ctx))
}
