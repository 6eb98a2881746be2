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

type MenuHandlersParams struct {
	fx.In

	MenuService *biz.MenuService
	Aggregator  *biz.PermissionAggregator
}

func NewMenuHandlers(params MenuHandlersParams) *MenuHandlers {
	return &MenuHandlers{
		MenuService: params.MenuService,
		Aggregator:  params.Aggregator,
	}
}

type MenuHandlers struct {
	MenuService *biz.MenuService
	Aggregator  *biz.PermissionAggregator
}

func (h *MenuHandlers) List(c *gin.Context) {
	menus, err := h.MenuService.ListMenus(c.Request.Context())
	if err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(menus))
}

type CreateMenuRequest struct {
	ParentID int64  `json:"parentId"`
	Name     string `json:"name" binding:"required"`
	Perms    string `json:"perms"`
	OrderNum int    `json:"orderNum"`
	Visible  bool   `json:"visible"`
}

func (h *MenuHandlers) Create(c *gin.Context) {
	var req CreateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	menu := &model.Menu{
		ParentID: req.ParentID,
		Name:     req.Name,
		Perms:    req.Perms,
		OrderNum: req.OrderNum,
		Visible:  req.Visible,
		Status:   model.StatusEnabled,
	}

	if err := h.MenuService.CreateMenu(c.Request.Context(), menu); err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	// Menu mutations change permission strings under existing roles.
	h.Aggregator.InvalidateAll(c.Request.Context())

	c.JSON(http.StatusOK, objects.OK(menu))
}
