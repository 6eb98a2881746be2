package biz

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/pkg/xcache"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

type UserServiceParams struct {
	fx.In

	CacheConfig xcache.Config
	DB          *gorm.DB
}

type UserService struct {
	*AbstractService

	UserCache xcache.Cache[model.User]
}

func NewUserService(params UserServiceParams) *UserService {
	return &UserService{
		AbstractService: &AbstractService{db: params.DB},
		UserCache:       xcache.NewFromConfig[model.User](params.CacheConfig),
	}
}

// CreateUser creates a new user with a hashed password.
func (s *UserService) CreateUser(ctx context.Context, user *model.User, password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}

	user.Password = hashedPassword

	if err := s.dbFromContext(ctx).Omit("Roles", "Dept").Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID gets a user by id with caching. Roles are preloaded so
// permission checks can work off the cached value.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	cacheKey := buildUserCacheKey(ctx, id)
	if user, err := s.UserCache.Get(ctx, cacheKey); err == nil {
		return &user, nil
	}

	var user model.User

	err := s.dbFromContext(ctx).
		Preload("Roles").
		First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.UserCache.Set(ctx, cacheKey, user); err != nil {
		log.Warn(ctx, "failed to cache user", log.Cause(err))
	}

	return &user, nil
}

// GetUserByUsername looks up an activated user within the current tenant
// scope. Used by the password login strategy.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUserWhere(ctx, "username = ?", username)
}

// GetUserByPhone looks up an activated user by phone number within the
// current tenant scope. Used by the SMS login strategy.
func (s *UserService) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	return s.getUserWhere(ctx, "phone = ?", phone)
}

// GetUserByEmail looks up an activated user by email within the current
// tenant scope. Used by the email login strategy.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUserWhere(ctx, "email = ?", email)
}

// GetUserByOpenID looks up a user bound to a third-party identity.
func (s *UserService) GetUserByOpenID(ctx context.Context, openID string) (*model.User, error) {
	return s.getUserWhere(ctx, "open_id = ?", openID)
}

func (s *UserService) getUserWhere(ctx context.Context, query string, args ...any) (*model.User, error) {
	var user model.User

	err := s.dbFromContext(ctx).
		Preload("Roles").
		Where(query, args...).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// ChangePassword replaces the user's password and drops the cached entry.
func (s *UserService) ChangePassword(ctx context.Context, id int64, password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}

	err = s.dbFromContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password", hashedPassword).Error
	if err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.InvalidateUserCache(ctx, id)

	return nil
}

// UpdateUserStatus enables or disables a user.
func (s *UserService) UpdateUserStatus(ctx context.Context, id int64, status model.Status) error {
	err := s.dbFromContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	s.InvalidateUserCache(ctx, id)

	return nil
}

// AssignRoles replaces the user's role set.
func (s *UserService) AssignRoles(ctx context.Context, id int64, roleIDs []int64) error {
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		gdb := s.dbFromContext(ctx)

		var user model.User
		if err := gdb.First(&user, id).Error; err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		var roles []model.Role
		if len(roleIDs) > 0 {
			if err := gdb.Find(&roles, roleIDs).Error; err != nil {
				return fmt.Errorf("failed to load roles: %w", err)
			}
		}

		if err := gdb.Model(&user).Association("Roles").Replace(roles); err != nil {
			return fmt.Errorf("failed to assign roles: %w", err)
		}

		s.InvalidateUserCache(ctx, id)

		return nil
	})
}

// CountByDept reports how many users are assigned to a department. Used
// by the department delete guard.
func (s *UserService) CountByDept(ctx context.Context, deptID int64) (int64, error) {
	var count int64

	err := s.dbFromContext(ctx).Model(&model.User{}).
		Where("dept_id = ?", deptID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count users by dept: %w", err)
	}

	return count, nil
}

// buildUserCacheKey namespaces cached users by tenant. The cache is
// consulted before the tenant-predicated query runs, so without the
// tenant component a lookup under one tenant scope could serve another
// tenant's row.
func buildUserCacheKey(ctx context.Context, id int64) string {
	tenantID, ok := tenant.Current(ctx)
	if !ok {
		tenantID = model.DefaultTenantID
	}

	return fmt.Sprintf("user:%s:%d", tenantID, id)
}

// InvalidateUserCache removes a user from cache.
func (s *UserService) InvalidateUserCache(ctx context.Context, id int64) {
	_ = s.UserCache.Delete(ctx, buildUserCacheKey(ctx, id))
}

// ClearUserCache clears all cached users. Role changes affect permission
// sets of unknown users, so the whole region is dropped.
func (s *UserService) ClearUserCache(ctx context.Context) {
	_ = s.UserCache.Clear(ctx)
}
