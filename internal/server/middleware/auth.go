package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lyfdddd/ryadmin/internal/authz"
	"github.com/lyfdddd/ryadmin/internal/contexts"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/server/biz"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

// ExtractBearerToken pulls the token out of the Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", errors.New("invalid authorization header")
	}

	return token, nil
}

// WithJWTAuth validates the session token and binds the user, their
// principal, and their tenant scope to the request context. Every query
// below this point carries the tenant predicate of the session.
func WithJWTAuth(auth *biz.AuthService, users *biz.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearerToken(c.Request)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, err)
			return
		}

		claims, err := auth.ParseToken(token)
		if err != nil {
			if errors.Is(err, biz.ErrInvalidToken) {
				AbortWithError(c, http.StatusUnauthorized, biz.ErrInvalidToken)
			} else {
				AbortWithError(c, http.StatusInternalServerError, errors.New("failed to validate token"))
			}

			return
		}

		scoped := tenant.WithTenant(c.Request.Context(), claims.TenantID)

		user, err := authz.RunAsSystem(scoped, func(ctx context.Context) (*model.User, error) {
			return users.GetUserByID(ctx, claims.UserID)
		})
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, biz.ErrInvalidToken)
			return
		}

		if user.Status != model.StatusEnabled {
			AbortWithError(c, http.StatusUnauthorized, biz.ErrUserDisabled)
			return
		}

		ctx := tenant.WithTenant(c.Request.Context(), claims.TenantID)
		ctx = contexts.WithUser(ctx, user)
		ctx = authz.NewUserContext(ctx, user.ID, claims.TenantID, user.IsSuperuser())

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
