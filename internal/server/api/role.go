package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/objects"
	"github.com/lyfdddd/ryadmin/internal/server/biz"
)

type RoleHandlersParams struct {
	fx.In

	RoleService *biz.RoleService
}

func NewRoleHandlers(params RoleHandlersParams) *RoleHandlers {
	return &RoleHandlers{
		RoleService: params.RoleService,
	}
}

type RoleHandlers struct {
	RoleService *biz.RoleService
}

func (h *RoleHandlers) List(c *gin.Context) {
	roles, err := h.RoleService.ListRoles(c.Request.Context())
	if err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(roles))
}

type CreateRoleRequest struct {
	Name      string          `json:"name" binding:"required"`
	Key       string          `json:"key" binding:"required"`
	DataScope model.DataScope `json:"dataScope"`
	OrderNum  int             `json:"orderNum"`
}

func (h *RoleHandlers) Create(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if req.DataScope == "" {
		req.DataScope = model.DataScopeSelf
	}

	role := &model.Role{
		Name:      req.Name,
		Key:       req.Key,
		DataScope: req.DataScope,
		OrderNum:  req.OrderNum,
		Status:    model.StatusEnabled,
	}

	if err := h.RoleService.CreateRole(c.Request.Context(), role); err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(role))
}

type UpdateDataScopeRequest struct {
	DataScope model.DataScope `json:"dataScope" binding:"required"`
	DeptIDs   []int64         `json:"deptIds"`
}

func (h *RoleHandlers) UpdateDataScope(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	var req UpdateDataScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if err := h.RoleService.UpdateDataScope(c.Request.Context(), id, req.DataScope, req.DeptIDs); err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(nil))
}

type AssignMenusRequest struct {
	MenuIDs []int64 `json:"menuIds"`
}

func (h *RoleHandlers) AssignMenus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	var req AssignMenusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	if err := h.RoleService.AssignMenus(c.Request.Context(), id, req.MenuIDs); err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(nil))
}

func (h *RoleHandlers) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	if err := h.RoleService.DeleteRole(c.Request.Context(), id); err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(nil))
}
