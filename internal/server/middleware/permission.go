package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyfdddd/ryadmin/internal/authz"
	"github.com/lyfdddd/ryadmin/internal/contexts"
	"github.com/lyfdddd/ryadmin/internal/server/biz"
)

// RequirePerm guards an endpoint behind one permission string. The
// superuser check runs first so wildcard holders never pay for the
// aggregation. Must run after WithJWTAuth.
func RequirePerm(aggregator *biz.PermissionAggregator, perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if authz.IsSuperuser(ctx) {
			c.Next()
			return
		}

		user, ok := contexts.GetUser(ctx)
		if !ok {
			AbortWithError(c, http.StatusUnauthorized, errors.New("no authenticated user"))
			return
		}

		set, err := aggregator.Aggregate(ctx, user)
		if err != nil {
			AbortWithError(c, http.StatusInternalServerError, errors.New("failed to resolve permissions"))
			return
		}

		if !set.Has(perm) {
			AbortWithError(c, http.StatusForbidden, errors.New("permission denied"))
			return
		}

		c.Next()
	}
}
