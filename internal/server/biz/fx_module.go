package biz

import (
	"go.uber.org/fx"
)

var Module = fx.Module("biz",
	fx.Provide(NewTenantService),
	fx.Provide(NewUserService),
	fx.Provide(NewRoleService),
	fx.Provide(NewMenuService),
	fx.Provide(NewDeptService),
	fx.Provide(NewCategoryService),
	fx.Provide(NewDictService),
	fx.Provide(NewDataScopeCache),
	fx.Provide(NewDataScopeResolver),
	fx.Provide(NewPermissionAggregator),
	fx.Provide(NewLogAuditSink),
	fx.Provide(NewLoginThrottle),
	fx.Provide(NewVerificationCodeService),
	fx.Provide(NewPasswordStrategy),
	fx.Provide(NewSMSStrategy),
	fx.Provide(NewEmailStrategy),
	fx.Provide(NewSocialStrategy),
	fx.Provide(NewDisabledSocialClient),
	fx.Provide(NewAuthService),
)
