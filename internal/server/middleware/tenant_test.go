package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lyfdddd/ryadmin/internal/authz"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

func overrideTestEngine(t *testing.T, superuser bool, observed *string, dynamic *bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		ctx := tenant.WithTenant(c.Request.Context(), "000000")
		ctx = authz.NewUserContext(ctx, 1, "000000", superuser)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	engine.Use(WithTenantOverride())
	engine.GET("/", func(c *gin.Context) {
		ctx := c.Request.Context()
		*observed, _ = tenant.Current(ctx)
		*dynamic = tenant.IsDynamic(ctx)
		c.Status(http.StatusOK)
	})

	return engine
}

func TestWithTenantOverride_SuperuserSwitchesTenant(t *testing.T) {
	var (
		observed string
		dynamic  bool
	)

	engine := overrideTestEngine(t, true, &observed, &dynamic)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TenantHeader, "100001")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100001", observed)
	assert.True(t, dynamic, "override scope is marked dynamic")
}

func TestWithTenantOverride_NonSuperuserForbidden(t *testing.T) {
	var (
		observed string
		dynamic  bool
	)

	engine := overrideTestEngine(t, false, &observed, &dynamic)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TenantHeader, "100001")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWithTenantOverride_NoHeaderKeepsSessionTenant(t *testing.T) {
	var (
		observed string
		dynamic  bool
	)

	engine := overrideTestEngine(t, false, &observed, &dynamic)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "000000", observed)
	assert.False(t, dynamic)
}

func TestWithTenantOverride_SameTenantIsNoop(t *testing.T) {
	var (
		observed string
		dynamic  bool
	)

	engine := overrideTestEngine(t, false, &observed, &dynamic)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TenantHeader, "000000")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "000000", observed)
	assert.False(t, dynamic)
}
