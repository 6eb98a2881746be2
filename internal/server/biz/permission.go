package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/pkg/xcache"
)

// WildcardPermission matches every permission check.
const WildcardPermission = "*:*:*"

// PermissionSet is what a session carries: the user's role keys and the
// flattened menu permission strings those roles grant.
type PermissionSet struct {
	RoleKeys    []string `json:"roleKeys"`
	Permissions []string `json:"permissions"`
}

// Has reports whether the set grants the given permission string.
func (p PermissionSet) Has(perm string) bool {
	return lo.Contains(p.Permissions, WildcardPermission) || lo.Contains(p.Permissions, perm)
}

// HasRole reports whether the set carries the given role key.
func (p PermissionSet) HasRole(key string) bool {
	return lo.Contains(p.RoleKeys, key)
}

type PermissionAggregatorParams struct {
	fx.In

	DB          *gorm.DB
	MenuService *MenuService
}

// PermissionAggregator flattens a user's roles into the permission set
// handed to sessions. Superusers get the wildcard instead of an
// enumeration, so newly added permissions never lag behind for them.
type PermissionAggregator struct {
	*AbstractService

	menuService *MenuService
	cache       xcache.Cache[PermissionSet]
}

func NewPermissionAggregator(params PermissionAggregatorParams) *PermissionAggregator {
	return &PermissionAggregator{
		AbstractService: &AbstractService{db: params.DB},
		menuService:     params.MenuService,
		cache:           xcache.NewMemoryWithOptions[PermissionSet](10*time.Minute, 15*time.Minute),
	}
}

// Aggregate builds the permission set for a user with roles loaded.
func (s *PermissionAggregator) Aggregate(ctx context.Context, user *model.User) (PermissionSet, error) {
	if user.IsSuperuser() {
		return PermissionSet{
			RoleKeys:    []string{model.SuperadminRoleKey},
			Permissions: []string{WildcardPermission},
		}, nil
	}

	key := fmt.Sprintf("perms:%d", user.ID)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		return cached, nil
	}

	set, err := s.aggregate(ctx, user)
	if err != nil {
		return PermissionSet{}, err
	}

	if err := s.cache.Set(ctx, key, set); err != nil {
		log.Warn(ctx, "failed to cache permission set", log.Cause(err))
	}

	return set, nil
}

func (s *PermissionAggregator) aggregate(ctx context.Context, user *model.User) (PermissionSet, error) {
	roleKeys := make([]string, 0, len(user.Roles))
	roleIDs := make([]int64, 0, len(user.Roles))

	for _, role := range user.Roles {
		if role.Status != model.StatusEnabled {
			continue
		}

		roleKeys = append(roleKeys, role.Key)
		roleIDs = append(roleIDs, role.ID)
	}

	perms, err := s.menuService.PermsByRoleIDs(ctx, roleIDs)
	if err != nil {
		return PermissionSet{}, err
	}

	return PermissionSet{
		RoleKeys:    lo.Uniq(roleKeys),
		Permissions: lo.Uniq(perms),
	}, nil
}

// Invalidate drops a user's cached permission set after a role or menu
// assignment change.
func (s *PermissionAggregator) Invalidate(ctx context.Context, userID int64) {
	if err := s.cache.Delete(ctx, fmt.Sprintf("perms:%d", userID)); err != nil {
		log.Warn(ctx, "failed to invalidate permission set",
			log.Int64("user_id", userID), log.Cause(err))
	}
}

// InvalidateAll drops every cached permission set. Menu mutations affect
// an unknown set of users, so they clear broadly.
func (s *PermissionAggregator) InvalidateAll(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		log.Warn(ctx, "failed to clear permission cache", log.Cause(err))
	}
}
