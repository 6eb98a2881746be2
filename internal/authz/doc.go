// Package authz provides the single-principal authorization model.
//
// Core concepts:
//
//   - Principal: A single authorization identity per request
//     (System/User/Test). Set via NewSystemContext, NewUserContext, or
//     WithPrincipal. Each context can carry exactly one principal.
//
//   - Superuser bypass: IsSuperuser short-circuits data-scope and
//     permission checks at the call site. Callers must consult it before
//     invoking the data-scope resolver, never inside it.
//
// Usage rules:
//
//  1. Background tasks must declare a System principal via NewSystemContext.
//  2. Check IsSuperuser before resolving scopes, not after.
package authz
