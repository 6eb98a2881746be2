package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/contexts"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/objects"
	"github.com/lyfdddd/ryadmin/internal/server/biz"
)

type UserHandlersParams struct {
	fx.In

	UserService *biz.UserService
	Aggregator  *biz.PermissionAggregator
	Resolver    *biz.DataScopeResolver
}

func NewUserHandlers(params UserHandlersParams) *UserHandlers {
	return &UserHandlers{
		UserService: params.UserService,
		Aggregator:  params.Aggregator,
		Resolver:    params.Resolver,
	}
}

type UserHandlers struct {
	UserService *biz.UserService
	Aggregator  *biz.PermissionAggregator
	Resolver    *biz.DataScopeResolver
}

// ProfileResponse is the session owner's own view: identity, permission
// set, and resolved data scope.
type ProfileResponse struct {
	User        *model.User       `json:"user"`
	Permissions biz.PermissionSet `json:"permissions"`
	DataScope   biz.ScopeResult   `json:"dataScope"`
}

func (h *UserHandlers) Profile(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := contexts.GetUser(ctx)
	if !ok {
		JSONError(c, http.StatusUnauthorized, errors.New("no authenticated user"))
		return
	}

	perms, err := h.Aggregator.Aggregate(ctx, user)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	scope, err := h.Resolver.ResolveForUser(ctx, user)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	sanitized := *user
	sanitized.Password = ""

	c.JSON(http.StatusOK, objects.OK(ProfileResponse{
		User:        &sanitized,
		Permissions: perms,
		DataScope:   scope,
	}))
}

type CreateUserRequest struct {
	DeptID   int64  `json:"deptId"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

func (h *UserHandlers) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	user := &model.User{
		DeptID:   req.DeptID,
		Username: req.Username,
		Phone:    req.Phone,
		Email:    req.Email,
		Status:   model.StatusEnabled,
	}

	if err := h.UserService.CreateUser(c.Request.Context(), user, req.Password); err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	user.Password = ""

	c.JSON(http.StatusOK, objects.OK(user))
}

type AssignRolesRequest struct {
	RoleIDs []int64 `json:"roleIds"`
}

func (h *UserHandlers) AssignRoles(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	var req AssignRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if err := h.UserService.AssignRoles(c.Request.Context(), id, req.RoleIDs); err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	h.Aggregator.Invalidate(c.Request.Context(), id)

	c.JSON(http.StatusOK, objects.OK(nil))
}

type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

func (h *UserHandlers) ChangePassword(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if err := h.UserService.ChangePassword(c.Request.Context(), id, req.Password); err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(nil))
}

type UpdateUserStatusRequest struct {
	Status model.Status `json:"status" binding:"required"`
}

func (h *UserHandlers) UpdateStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if err := h.UserService.UpdateUserStatus(c.Request.Context(), id, req.Status); err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(nil))
}
