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

type CategoryHandlersParams struct {
	fx.In

	CategoryService *biz.CategoryService
}

func NewCategoryHandlers(params CategoryHandlersParams) *CategoryHandlers {
	return &CategoryHandlers{
		CategoryService: params.CategoryService,
	}
}

type CategoryHandlers struct {
	CategoryService *biz.CategoryService
}

func (h *CategoryHandlers) ListTree(c *gin.Context) {
	forest, err := h.CategoryService.ListCategoryTree(c.Request.Context())
	if err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(forest))
}

type CreateCategoryRequest struct {
	ParentID int64  `json:"parentId"`
	Name     string `json:"name" binding:"required"`
	OrderNum int    `json:"orderNum"`
}

func (h *CategoryHandlers) Create(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	category := &model.Category{
		ParentID: req.ParentID,
		Name:     req.Name,
		OrderNum: req.OrderNum,
	}

	if err := h.CategoryService.CreateCategory(c.Request.Context(), category); err != nil {
		JSONError(c, treeErrorStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(category))
}

type UpdateCategoryRequest struct {
	ParentID int64  `json:"parentId"`
	Name     string `json:"name" binding:"required"`
	OrderNum int    `json:"orderNum"`
}

func (h *CategoryHandlers) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	category := &model.Category{
		TenantBase: model.TenantBase{Base: model.Base{ID: id}},
		ParentID:   req.ParentID,
		Name:       req.Name,
		OrderNum:   req.OrderNum,
	}

	if err := h.CategoryService.UpdateCategory(c.Request.Context(), category); err != nil {
		JSONError(c, treeErrorStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(nil))
}

func (h *CategoryHandlers) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	if err := h.CategoryService.DeleteCategory(c.Request.Context(), id); err != nil {
		JSONError(c, treeErrorStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(nil))
}
