package api

import (
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(NewAuthHandlers),
	fx.Provide(NewSystemHandlers),
	fx.Provide(NewUserHandlers),
	fx.Provide(NewRoleHandlers),
	fx.Provide(NewMenuHandlers),
	fx.Provide(NewDeptHandlers),
	fx.Provide(NewCategoryHandlers),
	fx.Provide(NewTenantHandlers),
	fx.Provide(NewDictHandlers),
)
