package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyfdddd/ryadmin/internal/authz"
	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

// TenantHeader carries an administrator's tenant override.
const TenantHeader = "RY-Tenant-Id"

// WithTenantOverride lets a superuser act inside another tenant for one
// request. The override is a dynamic scope, so audit trails can tell it
// apart from the session's own tenant. Must run after WithJWTAuth.
func WithTenantOverride() gin.HandlerFunc {
	return func(c *gin.Context) {
		override := c.GetHeader(TenantHeader)
		if override == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		if current, ok := tenant.Current(ctx); ok && current == override {
			c.Next()
			return
		}

		if !authz.IsSuperuser(ctx) {
			AbortWithError(c, http.StatusForbidden, errors.New("tenant override requires superuser"))
			return
		}

		log.Info(ctx, "tenant override", log.String("tenant_id", override))

		c.Request = c.Request.WithContext(tenant.WithDynamic(ctx, override))
		c.Next()
	}
}
