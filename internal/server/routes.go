package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/server/api"
	"github.com/lyfdddd/ryadmin/internal/server/biz"
	"github.com/lyfdddd/ryadmin/internal/server/middleware"
)

type Handlers struct {
	fx.In

	System   *api.SystemHandlers
	Auth     *api.AuthHandlers
	User     *api.UserHandlers
	Role     *api.RoleHandlers
	Menu     *api.MenuHandlers
	Dept     *api.DeptHandlers
	Category *api.CategoryHandlers
	Tenant   *api.TenantHandlers
	Dict     *api.DictHandlers
}

type Services struct {
	fx.In

	AuthService *biz.AuthService
	UserService *biz.UserService
	Aggregator  *biz.PermissionAggregator
}

func SetupRoutes(server *Server, handlers Handlers, services Services) {
	server.Use(middleware.AccessLog())
	server.Use(middleware.WithLoggingTracing(server.Config.Trace))

	// Setup CORS middleware at server level if enabled
	if server.Config.CORS.Enabled {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = server.Config.CORS.AllowedOrigins
		corsConfig.AllowMethods = server.Config.CORS.AllowedMethods
		corsConfig.AllowHeaders = server.Config.CORS.AllowedHeaders
		corsConfig.ExposeHeaders = server.Config.CORS.ExposedHeaders
		corsConfig.AllowCredentials = server.Config.CORS.AllowCredentials
		corsConfig.MaxAge = server.Config.CORS.MaxAge

		corsHandler := cors.New(corsConfig)
		server.Use(corsHandler)
		server.OPTIONS("*any", corsHandler)
	}

	perm := func(p string) gin.HandlerFunc {
		return middleware.RequirePerm(services.Aggregator, p)
	}

	publicGroup := server.Group("", middleware.WithTimeout(server.Config.RequestTimeout))
	{
		// Health check endpoint - no authentication required
		publicGroup.GET("/health", handlers.System.Health)
	}

	unSecureAdminGroup := server.Group("/admin", middleware.WithTimeout(server.Config.RequestTimeout))
	{
		// User Login - DO NOT AUTH
		unSecureAdminGroup.POST("/auth/signin", handlers.Auth.SignIn)
	}

	adminGroup := server.Group("/admin",
		middleware.WithTimeout(server.Config.RequestTimeout),
		middleware.WithJWTAuth(services.AuthService, services.UserService),
		middleware.WithTenantOverride(),
	)
	{
		adminGroup.GET("/profile", handlers.User.Profile)

		userGroup := adminGroup.Group("/system/users")
		userGroup.POST("", perm("system:user:add"), handlers.User.Create)
		userGroup.PUT("/:id/roles", perm("system:user:edit"), handlers.User.AssignRoles)
		userGroup.PUT("/:id/password", perm("system:user:resetPwd"), handlers.User.ChangePassword)
		userGroup.PUT("/:id/status", perm("system:user:edit"), handlers.User.UpdateStatus)

		roleGroup := adminGroup.Group("/system/roles")
		roleGroup.GET("", perm("system:role:list"), handlers.Role.List)
		roleGroup.POST("", perm("system:role:add"), handlers.Role.Create)
		roleGroup.PUT("/:id/datascope", perm("system:role:edit"), handlers.Role.UpdateDataScope)
		roleGroup.PUT("/:id/menus", perm("system:role:edit"), handlers.Role.AssignMenus)
		roleGroup.DELETE("/:id", perm("system:role:remove"), handlers.Role.Delete)

		menuGroup := adminGroup.Group("/system/menus")
		menuGroup.GET("", perm("system:menu:list"), handlers.Menu.List)
		menuGroup.POST("", perm("system:menu:add"), handlers.Menu.Create)

		deptGroup := adminGroup.Group("/system/depts")
		deptGroup.GET("/tree", perm("system:dept:list"), handlers.Dept.ListTree)
		deptGroup.POST("", perm("system:dept:add"), handlers.Dept.Create)
		deptGroup.PUT("/:id", perm("system:dept:edit"), handlers.Dept.Update)
		deptGroup.DELETE("/:id", perm("system:dept:remove"), handlers.Dept.Delete)

		categoryGroup := adminGroup.Group("/system/categories")
		categoryGroup.GET("/tree", perm("system:category:list"), handlers.Category.ListTree)
		categoryGroup.POST("", perm("system:category:add"), handlers.Category.Create)
		categoryGroup.PUT("/:id", perm("system:category:edit"), handlers.Category.Update)
		categoryGroup.DELETE("/:id", perm("system:category:remove"), handlers.Category.Delete)

		tenantGroup := adminGroup.Group("/system/tenants")
		tenantGroup.GET("", perm("system:tenant:list"), handlers.Tenant.List)
		tenantGroup.POST("", perm("system:tenant:add"), handlers.Tenant.Create)

		dictGroup := adminGroup.Group("/system/dict")
		dictGroup.GET("/data/:type", perm("system:dict:list"), handlers.Dict.ListData)
		dictGroup.POST("/data", perm("system:dict:add"), handlers.Dict.CreateData)
		// Sync is superuser-only, enforced inside the handler.
		dictGroup.POST("/sync", handlers.Dict.Sync)
	}
}
